// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/fieldcode/models"
)

// FindObserver returns the observer with the given id or ErrNotFound.
func (q *Queries) FindObserver(ctx context.Context, id string) (*models.Observer, error) {
	var o models.Observer
	var locationID sql.NullString
	err := q.q.QueryRowContext(ctx, q.rebind(`
		SELECT id, name, role, location_id FROM observer WHERE id = $1
	`), id).Scan(&o.ID, &o.Name, &o.Role, &locationID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("observer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query observer: %w", err)
	}
	o.LocationID = locationID.String
	return &o, nil
}

// FindLocation returns the location with the given type and code or ErrNotFound.
func (q *Queries) FindLocation(ctx context.Context, typeCode, code string) (*models.Location, error) {
	var l models.Location
	err := q.q.QueryRowContext(ctx, q.rebind(`
		SELECT id, type_code, code, name FROM location WHERE type_code = $1 AND code = $2
	`), typeCode, code).Scan(&l.ID, &l.TypeCode, &l.Code, &l.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location %s%s: %w", typeCode, code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query location: %w", err)
	}
	return &l, nil
}

// UpsertLocation inserts the location or updates the name of the existing
// one with the same type and code. l.ID is set to the stored id.
func (q *Queries) UpsertLocation(ctx context.Context, l *models.Location) error {
	err := q.q.QueryRowContext(ctx, q.rebind(`
		INSERT INTO location (id, type_code, code, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (type_code, code) DO UPDATE SET name = excluded.name
		RETURNING id
	`), l.ID, l.TypeCode, l.Code, l.Name).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert location: %w", err)
	}
	return nil
}

// UpsertObserver inserts or replaces the observer record.
func (q *Queries) UpsertObserver(ctx context.Context, o *models.Observer) error {
	_, err := q.q.ExecContext(ctx, q.rebind(`
		INSERT INTO observer (id, name, role, location_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			location_id = excluded.location_id
	`), o.ID, o.Name, o.Role, nullString(o.LocationID))
	if err != nil {
		return fmt.Errorf("failed to upsert observer: %w", err)
	}
	return nil
}

const submissionColumns = `id, observer_id, form_id, location_id, report_date, data, comment, sender_hash, created_at_ms, updated_at_ms`

// FindSubmissions returns the submissions for one observer and form whose
// report date falls inside the period, earliest created first.
func (q *Queries) FindSubmissions(ctx context.Context, observerID, formID string, p models.ReportingPeriod) ([]models.Submission, error) {
	rows, err := q.q.QueryContext(ctx, q.rebind(`
		SELECT `+submissionColumns+`
		FROM submission
		WHERE observer_id = $1 AND form_id = $2 AND report_date >= $3 AND report_date < $4
		ORDER BY created_at_ms, report_date, id
	`), observerID, formID, p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return subs, nil
}

// GetSubmission returns one submission by id or ErrNotFound.
func (q *Queries) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	row := q.q.QueryRowContext(ctx, q.rebind(`
		SELECT `+submissionColumns+` FROM submission WHERE id = $1
	`), id)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return s, err
}

// CreateSubmission inserts a new submission. s.ID must be set.
func (q *Queries) CreateSubmission(ctx context.Context, s *models.Submission) error {
	data, err := encodeData(s.Data)
	if err != nil {
		return err
	}

	_, err = q.q.ExecContext(ctx, q.rebind(`
		INSERT INTO submission (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`), s.ID, s.ObserverID, s.FormID, s.LocationID, s.ReportDate.String(), data,
		nullString(s.Comment), nullString(s.SenderHash), s.CreatedAt.UnixMilli(), s.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// UpdateSubmission replaces the mutable columns of an existing submission.
func (q *Queries) UpdateSubmission(ctx context.Context, s *models.Submission) error {
	data, err := encodeData(s.Data)
	if err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, q.rebind(`
		UPDATE submission
		SET location_id = $1, data = $2, comment = $3, sender_hash = $4, updated_at_ms = $5
		WHERE id = $6
	`), s.LocationID, data, nullString(s.Comment), nullString(s.SenderHash), s.UpdatedAt.UnixMilli(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("submission %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

// AddNote attaches a note to a submission. n.ID must be set.
func (q *Queries) AddNote(ctx context.Context, n *models.Note) error {
	_, err := q.q.ExecContext(ctx, q.rebind(`
		INSERT INTO submission_note (id, submission_id, text, created_at_ms)
		VALUES ($1, $2, $3, $4)
	`), n.ID, n.SubmissionID, n.Text, n.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// ListNotes returns a submission's notes, oldest first.
func (q *Queries) ListNotes(ctx context.Context, submissionID string) ([]models.Note, error) {
	rows, err := q.q.QueryContext(ctx, q.rebind(`
		SELECT id, submission_id, text, created_at_ms
		FROM submission_note
		WHERE submission_id = $1
		ORDER BY created_at_ms, id
	`), submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		var createdMs int64
		if err := rows.Scan(&n.ID, &n.SubmissionID, &n.Text, &createdMs); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		n.CreatedAt = time.UnixMilli(createdMs).UTC()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var s models.Submission
	var reportDate, data string
	var comment, senderHash sql.NullString
	var createdMs, updatedMs int64

	err := row.Scan(&s.ID, &s.ObserverID, &s.FormID, &s.LocationID, &reportDate, &data,
		&comment, &senderHash, &createdMs, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	s.ReportDate, err = models.ParseDate(reportDate)
	if err != nil {
		return nil, fmt.Errorf("submission %s: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return nil, fmt.Errorf("failed to decode submission data: %w", err)
	}
	if s.Data == nil {
		s.Data = make(map[string]models.Value)
	}
	s.Comment = comment.String
	s.SenderHash = senderHash.String
	s.CreatedAt = time.UnixMilli(createdMs).UTC()
	s.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return &s, nil
}

func encodeData(data map[string]models.Value) (string, error) {
	if data == nil {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode submission data: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
