// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/fieldcode/grammar"
)

var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrDuplicateTag   = grammar.ErrDuplicateTag
	ErrFormNotFound   = errors.New("form not found")
)

// ValidationError wraps a catalog validation failure with the offending form.
type ValidationError struct {
	Kind error
	Form string
	Msg  string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return fmt.Sprintf("form %q: %s", e.Form, e.Kind.Error())
	}
	return fmt.Sprintf("form %q: %s: %s", e.Form, e.Kind.Error(), e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalidf(form, format string, args ...any) error {
	return &ValidationError{Kind: ErrInvalidCatalog, Form: form, Msg: fmt.Sprintf(format, args...)}
}
