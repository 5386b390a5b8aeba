// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CommentSeparator splits the code segment from the free-text comment.
const CommentSeparator = "@"

// Config is the immutable normalizer configuration.
type Config struct {
	// AllowedPunctuation lists non-alphanumeric characters kept in the code.
	AllowedPunctuation string
	// Substitutions maps confusable uppercase characters to their replacement.
	Substitutions map[rune]rune
}

// Result is a normalized message.
type Result struct {
	Code       string
	Comment    string
	HasComment bool
}

type Normalizer struct {
	allowed map[rune]bool
	subs    map[rune]rune
}

func New(cfg Config) *Normalizer {
	n := &Normalizer{
		allowed: make(map[rune]bool, len(cfg.AllowedPunctuation)),
		subs:    make(map[rune]rune, len(cfg.Substitutions)),
	}
	for _, r := range cfg.AllowedPunctuation {
		n.allowed[r] = true
	}
	for from, to := range cfg.Substitutions {
		n.subs[unicode.ToUpper(from)] = to
	}
	return n
}

// Normalize never fails. Empty input yields an empty code.
func (n *Normalizer) Normalize(raw string) Result {
	var res Result

	code := raw
	if i := strings.Index(raw, CommentSeparator); i >= 0 {
		code = raw[:i]
		res.Comment = raw[i+len(CommentSeparator):]
		res.HasComment = strings.TrimSpace(res.Comment) != ""
	}

	// Fold fullwidth digits and letters that some handsets send.
	code = norm.NFKC.String(code)

	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case n.allowed[r]:
		default:
			continue
		}

		r = unicode.ToUpper(r)
		if to, ok := n.subs[r]; ok {
			r = to
		}
		b.WriteRune(r)
	}
	res.Code = b.String()

	return res
}
