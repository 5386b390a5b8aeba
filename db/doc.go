// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and submission storage.

# Opening

	store, err := db.Open(ctx, "sqlite", "file:fieldcode.db")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

Both "postgres" (lib/pq) and "sqlite" (modernc.org/sqlite) are supported.
Queries are written with $n placeholders and rebound for SQLite.

# Transactions

InTx runs a read-modify-write against one transaction:

	err := store.InTx(ctx, func(q *db.Queries) error {
		subs, err := q.FindSubmissions(ctx, observerID, formID, period)
		...
		return q.UpdateSubmission(ctx, &subs[0])
	})

Serialization failures, deadlocks and SQLite busy errors come back wrapped
in ErrConflict so callers can retry.

# Tables

  - location: (type_code, code) unique
  - observer: optional home location
  - submission: one report; data is a JSON object of tag values
  - submission_note: comment history per submission

# Relationships

	location 1──* observer
	location 1──* submission
	observer 1──* submission
	submission 1──* submission_note

# Indexes

  - submission.(observer_id, form_id, report_date)
  - submission_note.submission_id
*/
package db
