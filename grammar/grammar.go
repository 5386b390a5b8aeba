// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package grammar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielhkuo/fieldcode/models"
)

var (
	ErrDuplicateTag = errors.New("duplicate tag")
	ErrMissingValue = errors.New("missing value")
	ErrOutOfRange   = errors.New("value out of range")
)

// Field is the micro-grammar of one form field.
type Field struct {
	Spec models.FieldSpec
	Tag  string // canonical, uppercase

	pattern *regexp.Regexp
}

// TakesDigits reports whether the tag is followed by a digit run.
func (f *Field) TakesDigits() bool {
	return f.Spec.Kind != models.KindBoolean
}

// Parse decodes one token (the tag plus any digits following it).
func (f *Field) Parse(token string) (models.Value, error) {
	m := f.pattern.FindStringSubmatch(token)
	if m == nil {
		if f.TakesDigits() && strings.EqualFold(token, f.Tag) {
			return models.Value{}, fmt.Errorf("%s: %w", f.Tag, ErrMissingValue)
		}
		return models.Value{}, fmt.Errorf("%s: token %q does not match", f.Tag, token)
	}

	switch f.Spec.Kind {
	case models.KindBoolean:
		return models.BoolValue(), nil

	case models.KindMultiNumeric:
		digits := m[1]
		ns := make([]int, 0, len(digits))
		for _, c := range digits {
			ns = append(ns, int(c-'0'))
		}
		return models.IntsValue(ns), nil

	default:
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return models.Value{}, fmt.Errorf("%s: %w", f.Tag, ErrOutOfRange)
		}
		v := models.IntValue(n)
		v.Kind = f.Spec.Kind
		return v, nil
	}
}

// Grammar holds every field grammar of a form.
type Grammar struct {
	FormID string

	fields map[string]*Field
	maxTag int
}

// Build compiles the grammar for a form. Tag literals are matched
// case-insensitively and longest first, so "A" never eats the head of "AB".
func Build(form *models.FormDefinition) (*Grammar, error) {
	g := &Grammar{
		FormID: form.ID,
		fields: make(map[string]*Field),
	}

	for _, spec := range form.Fields() {
		tag := spec.CanonicalTag()
		if tag == "" {
			return nil, fmt.Errorf("form %q: empty tag", form.ID)
		}
		if _, exists := g.fields[tag]; exists {
			return nil, fmt.Errorf("form %q: %w: %s", form.ID, ErrDuplicateTag, tag)
		}

		expr := `^(?i:` + regexp.QuoteMeta(tag) + `)`
		switch spec.Kind {
		case models.KindBoolean:
			expr += `$`
		default:
			expr += `([0-9]+)$`
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("form %q: failed to compile grammar for %s: %w", form.ID, tag, err)
		}

		g.fields[tag] = &Field{Spec: spec, Tag: tag, pattern: re}
		g.maxTag = max(g.maxTag, len(tag))
	}

	return g, nil
}

// MatchTags returns every field whose tag is a prefix of s, longest tag
// first, so "A" is only tried after "AB".
func (g *Grammar) MatchTags(s string) []*Field {
	var out []*Field
	for n := min(len(s), g.maxTag); n > 0; n-- {
		if f, ok := g.Field(s[:n]); ok {
			out = append(out, f)
		}
	}
	return out
}

// Field returns the grammar for a tag, case-insensitively.
func (g *Grammar) Field(tag string) (*Field, bool) {
	f, ok := g.fields[strings.ToUpper(tag)]
	return f, ok
}
