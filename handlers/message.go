// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/fieldcode/catalog"
	"github.com/danielhkuo/fieldcode/cliparse"
	"github.com/danielhkuo/fieldcode/compose"
	"github.com/danielhkuo/fieldcode/db"
	"github.com/danielhkuo/fieldcode/envelope"
	"github.com/danielhkuo/fieldcode/extract"
	"github.com/danielhkuo/fieldcode/grammar"
	"github.com/danielhkuo/fieldcode/ident"
	"github.com/danielhkuo/fieldcode/models"
	"github.com/danielhkuo/fieldcode/period"
	"github.com/danielhkuo/fieldcode/reconcile"
	"github.com/danielhkuo/fieldcode/textnorm"
)

// Directory resolves observer and location identities.
type Directory interface {
	FindObserver(ctx context.Context, id string) (*models.Observer, error)
	FindLocation(ctx context.Context, typeCode, code string) (*models.Location, error)
}

// Submitter stores a parsed message.
type Submitter interface {
	Reconcile(ctx context.Context, req reconcile.Request) (*reconcile.Result, error)
}

// Result is everything known about one processed message.
type Result struct {
	Envelope   *models.Envelope        `json:"envelope,omitempty"`
	FormID     string                  `json:"form_id,omitempty"`
	ReportDate *models.Date            `json:"report_date,omitempty"`
	Period     *models.ReportingPeriod `json:"period,omitempty"`
	Outcome    *models.ParseOutcome    `json:"outcome"`
	Failure    compose.Failure         `json:"failure,omitempty"`

	SubmissionID string `json:"submission_id,omitempty"`
	Created      bool   `json:"created,omitempty"`
	Ref          string `json:"ref,omitempty"`

	Reply compose.Reply `json:"reply"`

	form    *models.FormDefinition
	comment textnorm.Result
}

// Stored reports whether the message was written to a submission.
func (r *Result) Stored() bool {
	return r.SubmissionID != ""
}

// hasContent reports whether there is anything to write: a bound value or a
// comment.
func (r *Result) hasContent() bool {
	return len(r.Outcome.Values) > 0 || r.comment.HasComment
}

type MessageHandler struct {
	cat        *catalog.Catalog
	dir        Directory
	sub        Submitter
	cfg        cliparse.Config
	logger     *slog.Logger
	normalizer *textnorm.Normalizer
	matcher    *envelope.Matcher
	grammars   *grammar.Cache
}

type Option func(*MessageHandler)

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *MessageHandler) { h.logger = l }
}

func NewMessageHandler(cat *catalog.Catalog, dir Directory, sub Submitter, cfg cliparse.Config, opts ...Option) (*MessageHandler, error) {
	matcher, err := envelope.NewMatcher(cat.Prefixes(), cat.Parser.LocationTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to build envelope matcher: %w", err)
	}

	h := &MessageHandler{
		cat:    cat,
		dir:    dir,
		sub:    sub,
		cfg:    cfg,
		logger: slog.Default(),
		normalizer: textnorm.New(textnorm.Config{
			AllowedPunctuation: cat.Parser.AllowedPunctuation + envelope.Marker,
			Substitutions:      cat.Parser.SubstitutionTable(),
		}),
		matcher:  matcher,
		grammars: grammar.NewCache(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// HashSender pseudonymises a transport sender id with the configured salt.
func (h *MessageHandler) HashSender(sender string) string {
	return ident.HashSender(sender, h.cfg.SenderSalt)
}

// Parse runs the storage-free part of the pipeline: normalize, match the
// envelope, resolve the date and period, and extract the responses. The
// returned reply is what would be sent if storage succeeded.
func (h *MessageHandler) Parse(msg models.Message) (*Result, error) {
	res := &Result{}
	res.comment = h.normalizer.Normalize(msg.Text)

	env, ok := h.matcher.Match(res.comment.Code)
	if !ok {
		return h.mismatch(res, "envelope did not match"), nil
	}
	env.Comment = res.comment.Comment
	res.Envelope = &env

	form, err := h.cat.FindForm(env.Prefix)
	if err != nil {
		return h.mismatch(res, "unknown form prefix"), nil
	}
	res.form = form
	res.FormID = form.ID

	if sel := h.cat.Parser.MarkerSelects(); sel != "" && env.Marker != (form.Kind == sel) {
		return h.mismatch(res, "marker does not match form kind"), nil
	}

	date, err := period.Resolve(env.Day, env.HasDay, msg.ReceivedAt)
	if err != nil {
		return h.mismatch(res, "invalid report date"), nil
	}
	p := period.For(form, date)
	res.ReportDate = &date
	res.Period = &p

	g, err := h.grammars.Get(form)
	if err != nil {
		return nil, fmt.Errorf("failed to build grammar for form %s: %w", form.ID, err)
	}
	res.Outcome = extract.Extract(g, env.Responses)

	switch {
	case h.cat.Parser.StrictUnexpectedInput && len(res.Outcome.UnexpectedInput) > 0:
		res.Failure = compose.FailureInvalidMessage
	case !res.hasContent() && !res.Outcome.HasProblems():
		// Envelope only, no responses and no comment
		res.Failure = compose.FailureInvalidMessage
	}

	res.Reply = compose.Compose(h.composeInput(res))
	return res, nil
}

// Handle runs the full pipeline for one message. Parse problems are reported
// in the Result; the error is reserved for storage and internal failures.
func (h *MessageHandler) Handle(ctx context.Context, msg models.Message) (*Result, error) {
	res, err := h.Parse(msg)
	if err != nil {
		return nil, err
	}
	if res.Failure != compose.FailureNone || res.Outcome.Status == models.StatusEnvelopeMismatch {
		return res, nil
	}
	env := res.Envelope

	// Resolve identities
	if _, err := h.dir.FindObserver(ctx, env.ObserverID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return h.fail(res, compose.FailureUnknownObserver), nil
		}
		return nil, fmt.Errorf("failed to find observer: %w", err)
	}
	loc, err := h.dir.FindLocation(ctx, env.LocationType, env.LocationCode)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return h.fail(res, compose.FailureUnknownLocation), nil
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}

	// Only problems were found; they are reported and nothing is written.
	if !res.hasContent() {
		h.logger.Info("nothing to store",
			"observer_id", env.ObserverID,
			"form_id", res.FormID,
			"status", res.Outcome.Status,
		)
		return res, nil
	}

	// Store
	stored, err := h.sub.Reconcile(ctx, reconcile.Request{
		Form:       res.form,
		ObserverID: env.ObserverID,
		LocationID: loc.ID,
		ReportDate: *res.ReportDate,
		Period:     *res.Period,
		Values:     res.Outcome.Values,
		Comment:    res.comment.Comment,
		HasComment: res.comment.HasComment,
		SenderHash: h.HashSender(msg.Sender),
	})
	if err != nil {
		h.logger.Error("failed to store submission",
			"observer_id", env.ObserverID,
			"form_id", res.FormID,
			"error", err,
		)
		return nil, err
	}

	res.SubmissionID = stored.Submission.ID
	res.Created = stored.Created
	res.Ref = ident.ShortRef(stored.Submission.ID, h.cfg.SenderSalt)
	res.Reply = compose.Compose(h.composeInput(res))

	h.logger.Info("submission stored",
		"submission_id", res.SubmissionID,
		"observer_id", env.ObserverID,
		"form_id", res.FormID,
		"period", res.Period.Key(),
		"created", res.Created,
		"status", res.Outcome.Status,
	)

	return res, nil
}

func (h *MessageHandler) composeInput(res *Result) compose.Input {
	in := compose.Input{
		Failure: res.Failure,
		Outcome: res.Outcome,
		Form:    res.form,
		Ref:     res.Ref,
	}
	if res.Envelope != nil {
		in.Envelope = *res.Envelope
	}
	return in
}

func (h *MessageHandler) mismatch(res *Result, reason string) *Result {
	h.logger.Debug("envelope mismatch", "reason", reason)
	res.Outcome = models.EnvelopeMismatchOutcome()
	res.Reply = compose.Compose(h.composeInput(res))
	return res
}

func (h *MessageHandler) fail(res *Result, f compose.Failure) *Result {
	h.logger.Info("message rejected",
		"observer_id", res.Envelope.ObserverID,
		"location", res.Envelope.LocationType+res.Envelope.LocationCode,
		"failure", f,
	)
	res.Failure = f
	res.Reply = compose.Compose(h.composeInput(res))
	return res
}
