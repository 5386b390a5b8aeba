// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ident generates identifiers and pseudonyms.

# IDs

Submissions and notes use random UUIDs:

	id := ident.NewID()

# Sender Hashes

The transport sender (a phone number) is never stored. Submissions keep an
HMAC-SHA256 pseudonym instead:

	hash := ident.HashSender(msg.Sender, cfg.SenderSalt)

The same sender and salt always give the same 16 hex characters, so repeated
messages from one phone can be correlated. An empty sender hashes to "".

# Short References

Success replies quote an 8 character reference derived from the submission
id. It uses Crockford's base32 alphabet (digits and uppercase letters without
I, L, O, U), so observers can read it back over the phone:

	ref := ident.ShortRef(submission.ID, cfg.SenderSalt)
*/
package ident
