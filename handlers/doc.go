// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the message handler that runs the coded-message
pipeline end to end.

# Handler

MessageHandler is built from the form catalog and its collaborators:

	h, err := handlers.NewMessageHandler(cat, store, reconciler, cfg)

The store satisfies Directory (observer and location lookup) and the
reconciler satisfies Submitter.

# Pipeline

	Normalize → Match envelope → FindForm → marker check
	  → Resolve date / period → grammar (cached) → Extract
	  → FindObserver / FindLocation → Reconcile → Compose

Parse stops before identity resolution and never touches storage; it backs
the dry-run command. Handle runs everything.

# Failures

Fatal outcomes produce a single reply and no write:

  - envelope mismatch, unknown prefix, marker/kind disagreement or an
    impossible report date: invalid-message
  - leftovers when parser.strict_unexpected_input is set: invalid-message
  - observer not found: unknown-observer
  - location not found: unknown-location

Everything else is stored and reported together. Handle returns an error
only for storage and internal failures, including reconcile.ErrRetriesExhausted.
*/
package handlers
