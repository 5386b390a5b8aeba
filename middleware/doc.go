// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides message-handler wrappers and JSON-lines helpers.

# Message Logging

Wrap handlers with message logging:

	handle := middleware.WithLogging(h.Handle, hashSender)

Logs message start (sender_hash, received_at, length) at debug and
completion (duration_ms) at info, or the error on failure. Raw sender ids
are never logged.

# Panic Recovery

	handle = middleware.WithRecover(handle)

A panic becomes an error for that message only.

# JSON Lines

	msg, err := middleware.DecodeMessage(line, time.Now)
	err = middleware.WriteJSON(os.Stdout, result)

DecodeMessage rejects unknown fields and fills a missing received_at.
*/
package middleware
