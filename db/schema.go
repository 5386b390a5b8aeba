// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by Postgres and SQLite: timestamps are unix milliseconds,
// report dates are YYYY-MM-DD text and submission data is JSON text.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Locations
CREATE TABLE IF NOT EXISTS location (
    id TEXT PRIMARY KEY,
    type_code TEXT NOT NULL,
    code TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    UNIQUE (type_code, code)
);

-- Observers
CREATE TABLE IF NOT EXISTS observer (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT '',
    location_id TEXT REFERENCES location(id)
);

-- Submissions
CREATE TABLE IF NOT EXISTS submission (
    id TEXT PRIMARY KEY,
    observer_id TEXT NOT NULL REFERENCES observer(id),
    form_id TEXT NOT NULL,
    location_id TEXT NOT NULL REFERENCES location(id),
    report_date TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '{}',
    comment TEXT,
    sender_hash TEXT,
    created_at_ms BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submission_key ON submission(observer_id, form_id, report_date);

-- Submission notes
CREATE TABLE IF NOT EXISTS submission_note (
    id TEXT PRIMARY KEY,
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    created_at_ms BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submission_note_submission_id ON submission_note(submission_id);
`

// Tables lists every table, children first, for tests that reset state.
var Tables = []string{"submission_note", "submission", "observer", "location"}
