// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package extract

import (
	"errors"
	"slices"
	"strings"

	"github.com/danielhkuo/fieldcode/grammar"
	"github.com/danielhkuo/fieldcode/models"
)

// Extract runs the form grammar over a response blob.
//
// The blob is scanned left to right in runs of letters followed by digits.
// A letter run is bound only when it splits entirely into known tags, longest
// tag first; the last tag of the run takes the digits. A run that does not
// split cleanly is one UnknownTag and its digits go with it. Any other run of
// characters is reported as UnexpectedInput.
func Extract(g *grammar.Grammar, blob string) *models.ParseOutcome {
	out := models.NewParseOutcome()
	s := strings.ToUpper(blob)

	seen := make(map[string]models.Value)
	problems := make(map[models.ValueProblem]bool)
	addProblem := func(p models.ValueProblem) {
		if !problems[p] {
			problems[p] = true
			out.ValueProblems = append(out.ValueProblems, p)
		}
	}

	for i := 0; i < len(s); {
		if !isLetter(s[i]) {
			j := i
			for j < len(s) && !isLetter(s[j]) {
				j++
			}
			out.UnexpectedInput = append(out.UnexpectedInput, s[i:j])
			i = j
			continue
		}

		j := i
		for j < len(s) && isLetter(s[j]) {
			j++
		}
		run := s[i:j]

		fields := split(g, run)
		if fields == nil {
			out.UnknownTags = append(out.UnknownTags, run)
			i = skipDigits(s, j)
			continue
		}

		for _, f := range fields[:len(fields)-1] {
			bind(out, f, f.Tag, seen, addProblem)
		}
		last := fields[len(fields)-1]
		k := j
		if last.TakesDigits() {
			k = skipDigits(s, j)
		}
		bind(out, last, last.Tag+s[j:k], seen, addProblem)
		i = k
	}

	out.Finalize()
	return out
}

// split segments a letter run into known tags, preferring the longest tag at
// each position. It returns nil when no segmentation covers the whole run.
func split(g *grammar.Grammar, run string) []*grammar.Field {
	dead := make(map[int]bool)
	var walk func(pos int) []*grammar.Field
	walk = func(pos int) []*grammar.Field {
		if pos == len(run) {
			return []*grammar.Field{}
		}
		if dead[pos] {
			return nil
		}
		for _, f := range g.MatchTags(run[pos:]) {
			if rest := walk(pos + len(f.Tag)); rest != nil {
				return append([]*grammar.Field{f}, rest...)
			}
		}
		dead[pos] = true
		return nil
	}
	return walk(0)
}

func bind(out *models.ParseOutcome, f *grammar.Field, token string, seen map[string]models.Value, addProblem func(models.ValueProblem)) {
	v, err := f.Parse(token)
	switch {
	case errors.Is(err, grammar.ErrMissingValue):
		addProblem(models.ValueProblem{Tag: f.Tag, Kind: models.ProblemMissingValue, Raw: token})
		return
	case errors.Is(err, grammar.ErrOutOfRange):
		addProblem(models.ValueProblem{Tag: f.Tag, Kind: models.ProblemRangeError, Raw: token})
		return
	case err != nil:
		out.UnexpectedInput = append(out.UnexpectedInput, token)
		return
	}

	if first, ok := seen[f.Tag]; ok {
		if !first.Equal(v) {
			out.MultipleEntries = append(out.MultipleEntries, f.Tag)
		}
		return
	}
	seen[f.Tag] = v

	if kind, ok := check(f.Spec, v); !ok {
		addProblem(models.ValueProblem{Tag: f.Tag, Kind: kind, Raw: token})
		return
	}
	out.Values[f.Tag] = v
}

// check applies range and option constraints. Values that fail are reported
// but never stored.
func check(spec models.FieldSpec, v models.Value) (models.ProblemKind, bool) {
	ints := []int{v.Int}
	switch v.Kind {
	case models.KindBoolean:
		return "", true
	case models.KindMultiNumeric:
		ints = v.Ints
	}

	for _, n := range ints {
		if spec.Min != nil && n < *spec.Min {
			return models.ProblemRangeError, false
		}
		if spec.Max != nil && n > *spec.Max {
			return models.ProblemRangeError, false
		}
		if len(spec.Options) > 0 && !slices.Contains(spec.Options, n) {
			return models.ProblemInvalidOption, false
		}
	}
	return "", true
}

func isLetter(c byte) bool {
	return 'A' <= c && c <= 'Z'
}

func skipDigits(s string, i int) int {
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	return i
}
