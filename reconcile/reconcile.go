// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/fieldcode/db"
	"github.com/danielhkuo/fieldcode/ident"
	"github.com/danielhkuo/fieldcode/keylock"
	"github.com/danielhkuo/fieldcode/models"
)

// ErrRetriesExhausted is returned when storage conflicts outlast the retry
// budget. It is an internal failure, not a parse problem.
var ErrRetriesExhausted = errors.New("storage retries exhausted")

// Store is the transactional storage the reconciler writes through.
type Store interface {
	InTx(ctx context.Context, fn func(q *db.Queries) error) error
}

// Request is one parsed message ready to be stored.
type Request struct {
	Form       *models.FormDefinition
	ObserverID string
	LocationID string
	ReportDate models.Date
	Period     models.ReportingPeriod
	Values     map[string]models.Value
	Comment    string
	HasComment bool
	SenderHash string
}

// Key is the identity key messages are serialized on.
func (r Request) Key() string {
	return fmt.Sprintf("%s:%s:%s", r.ObserverID, r.Form.ID, r.Period.Key())
}

// Result describes what Reconcile did.
type Result struct {
	Submission *models.Submission
	Created    bool
	// Duplicates counts the extra submissions found for the identity key.
	// The earliest is always the one updated.
	Duplicates int
}

// Reconciler finds or creates the submission for a request and merges the
// new values into it.
type Reconciler struct {
	store      Store
	locker     keylock.Locker
	logger     *slog.Logger
	maxRetries uint64
	newBackOff func() backoff.BackOff

	now func() time.Time
}

type Option func(*Reconciler)

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithClock sets the time source for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithRetries sets the retry budget and backoff policy for storage conflicts.
func WithRetries(maxRetries uint64, newBackOff func() backoff.BackOff) Option {
	return func(r *Reconciler) {
		r.maxRetries = maxRetries
		if newBackOff != nil {
			r.newBackOff = newBackOff
		}
	}
}

func New(store Store, locker keylock.Locker, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:      store,
		locker:     locker,
		logger:     slog.Default(),
		maxRetries: 5,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile stores the request. Messages sharing an identity key are
// serialized by the locker, and the read-modify-write runs in one
// transaction that is retried on storage conflicts.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (*Result, error) {
	if !req.Form.AlwaysCreate {
		unlock, err := r.locker.Lock(ctx, req.Key())
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", req.Key(), err)
		}
		defer unlock()
	}

	var result *Result
	attempt := 0
	op := func() error {
		attempt++
		res, err := r.reconcileOnce(ctx, req)
		if err != nil {
			if errors.Is(err, db.ErrConflict) {
				r.logger.Warn("storage conflict, retrying",
					"key", req.Key(),
					"attempt", attempt,
					"error", err,
				)
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}
		return nil, err
	}

	return result, nil
}

func (r *Reconciler) reconcileOnce(ctx context.Context, req Request) (*Result, error) {
	var result *Result

	err := r.store.InTx(ctx, func(q *db.Queries) error {
		now := r.now().UTC()

		var existing []models.Submission
		if !req.Form.AlwaysCreate {
			var err error
			existing, err = q.FindSubmissions(ctx, req.ObserverID, req.Form.ID, req.Period)
			if err != nil {
				return err
			}
		}

		var sub *models.Submission
		res := &Result{}
		if len(existing) == 0 {
			sub = &models.Submission{
				ID:         ident.NewID(),
				ObserverID: req.ObserverID,
				FormID:     req.Form.ID,
				LocationID: req.LocationID,
				ReportDate: req.ReportDate,
				Data:       make(map[string]models.Value, len(req.Values)),
				CreatedAt:  now,
			}
			res.Created = true
		} else {
			// FindSubmissions orders by creation, so the first is canonical.
			sub = &existing[0]
			res.Duplicates = len(existing) - 1
			if res.Duplicates > 0 {
				r.logger.Warn("multiple submissions for one key, merging into earliest",
					"observer_id", req.ObserverID,
					"form_id", req.Form.ID,
					"period", req.Period.Key(),
					"submission_id", sub.ID,
					"count", len(existing),
				)
			}
			sub.LocationID = req.LocationID
		}

		merge(sub, req)
		sub.UpdatedAt = now
		if req.SenderHash != "" {
			sub.SenderHash = req.SenderHash
		}

		if res.Created {
			if err := q.CreateSubmission(ctx, sub); err != nil {
				return err
			}
		} else if err := q.UpdateSubmission(ctx, sub); err != nil {
			return err
		}

		if req.HasComment && req.Form.CommentMode == models.CommentModeNote {
			note := &models.Note{
				ID:           ident.NewID(),
				SubmissionID: sub.ID,
				Text:         req.Comment,
				CreatedAt:    now,
			}
			if err := q.AddNote(ctx, note); err != nil {
				return err
			}
		}

		res.Submission = sub
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// merge writes new values over old ones per tag. Absent tags are untouched.
func merge(sub *models.Submission, req Request) {
	if sub.Data == nil {
		sub.Data = make(map[string]models.Value, len(req.Values))
	}
	maps.Copy(sub.Data, req.Values)

	if !req.HasComment {
		return
	}
	switch req.Form.CommentMode {
	case models.CommentModeField:
		sub.Data[req.Form.CommentField] = models.TextValue(req.Comment)
	default:
		sub.Comment = req.Comment
	}
}
