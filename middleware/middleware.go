// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/danielhkuo/fieldcode/models"
)

// HandlerFunc processes one inbound message.
type HandlerFunc[R any] func(ctx context.Context, msg models.Message) (R, error)

// WithLogging wraps a handler with message logging. The raw sender is never
// logged, only the hash produced by hashSender.
func WithLogging[R any](next HandlerFunc[R], hashSender func(string) string) HandlerFunc[R] {
	return func(ctx context.Context, msg models.Message) (R, error) {
		start := time.Now()
		sender := hashSender(msg.Sender)

		// Log message
		slog.Debug("message started",
			"sender_hash", sender,
			"received_at", msg.ReceivedAt,
			"length", len(msg.Text),
		)

		// Call the next handler
		res, err := next(ctx, msg)

		// Log completion
		duration := time.Since(start)
		if err != nil {
			slog.Error("message failed",
				"sender_hash", sender,
				"duration_ms", duration.Milliseconds(),
				"error", err,
			)
			return res, err
		}
		slog.Info("message completed",
			"sender_hash", sender,
			"duration_ms", duration.Milliseconds(),
		)
		return res, nil
	}
}

// WithRecover turns a panic in the handler into an error so one bad message
// cannot take down a worker pool.
func WithRecover[R any](next HandlerFunc[R]) HandlerFunc[R] {
	return func(ctx context.Context, msg models.Message) (res R, err error) {
		defer func() {
			if p := recover(); p != nil {
				slog.Error("handler panicked", "panic", p, "stack", string(debug.Stack()))
				err = fmt.Errorf("handler panicked: %v", p)
			}
		}()
		return next(ctx, msg)
	}
}

// WriteJSON writes v as one JSON line
func WriteJSON(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON line", "error", err)
		return err
	}
	return nil
}

// DecodeMessage parses one JSON line into a message. A missing received_at
// is filled with now.
func DecodeMessage(line []byte, now func() time.Time) (models.Message, error) {
	var msg models.Message
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		return models.Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = now()
	}
	return msg, nil
}
