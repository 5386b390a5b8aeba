// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"slices"
	"sort"
)

// Parse status constants
type Status string

const (
	StatusOk               Status = "ok"
	StatusMultipleEntry    Status = "multiple_entry"
	StatusUnknownTag       Status = "unknown_tag"
	StatusUnexpectedInput  Status = "unexpected_input"
	StatusEnvelopeMismatch Status = "envelope_mismatch"
)

// severity orders statuses; higher wins when several flags are raised.
var severity = map[Status]int{
	StatusOk:               0,
	StatusMultipleEntry:    1,
	StatusUnknownTag:       2,
	StatusUnexpectedInput:  3,
	StatusEnvelopeMismatch: 4,
}

// Severity returns the rank of s in EnvelopeMismatch > UnexpectedInput >
// UnknownTag > MultipleEntry > Ok.
func (s Status) Severity() int {
	return severity[s]
}

// Value problem constants. These never change the status.
type ProblemKind string

const (
	ProblemRangeError    ProblemKind = "range_error"
	ProblemInvalidOption ProblemKind = "invalid_option"
	ProblemMissingValue  ProblemKind = "missing_value"
)

type ValueProblem struct {
	Tag  string      `json:"tag"`
	Kind ProblemKind `json:"kind"`
	Raw  string      `json:"raw,omitempty"`
}

// ParseOutcome is the result of extracting one response blob.
type ParseOutcome struct {
	Values          map[string]Value `json:"values"`
	Status          Status           `json:"status"`
	UnexpectedInput []string         `json:"unexpected_input,omitempty"` // leftover fragments
	UnknownTags     []string         `json:"unknown_tags,omitempty"`
	MultipleEntries []string         `json:"multiple_entries,omitempty"`
	ValueProblems   []ValueProblem   `json:"value_problems,omitempty"`
}

// NewParseOutcome returns an empty Ok outcome.
func NewParseOutcome() *ParseOutcome {
	return &ParseOutcome{Values: make(map[string]Value), Status: StatusOk}
}

// EnvelopeMismatchOutcome is the outcome of a message with no usable envelope.
func EnvelopeMismatchOutcome() *ParseOutcome {
	o := NewParseOutcome()
	o.Status = StatusEnvelopeMismatch
	return o
}

// Flags returns every raised status flag, most severe first.
func (o *ParseOutcome) Flags() []Status {
	var flags []Status
	if o.Status == StatusEnvelopeMismatch {
		flags = append(flags, StatusEnvelopeMismatch)
	}
	if len(o.UnexpectedInput) > 0 {
		flags = append(flags, StatusUnexpectedInput)
	}
	if len(o.UnknownTags) > 0 {
		flags = append(flags, StatusUnknownTag)
	}
	if len(o.MultipleEntries) > 0 {
		flags = append(flags, StatusMultipleEntry)
	}
	return flags
}

// Finalize sorts the offending tag lists and sets Status to the most severe
// raised flag, or Ok when none were raised.
func (o *ParseOutcome) Finalize() {
	sort.Strings(o.UnknownTags)
	o.UnknownTags = slices.Compact(o.UnknownTags)
	sort.Strings(o.MultipleEntries)
	o.MultipleEntries = slices.Compact(o.MultipleEntries)
	sort.SliceStable(o.ValueProblems, func(i, j int) bool {
		return o.ValueProblems[i].Tag < o.ValueProblems[j].Tag
	})

	status := StatusOk
	for _, f := range o.Flags() {
		if f.Severity() > status.Severity() {
			status = f
		}
	}
	o.Status = status
}

// HasProblems reports whether anything needs to be reported back, including
// value problems that do not affect Status.
func (o *ParseOutcome) HasProblems() bool {
	return o.Status != StatusOk || len(o.ValueProblems) > 0
}

// InvalidResponseTags lists tags whose values were rejected or conflicting.
func (o *ParseOutcome) InvalidResponseTags() []string {
	tags := slices.Clone(o.MultipleEntries)
	for _, p := range o.ValueProblems {
		tags = append(tags, p.Tag)
	}
	sort.Strings(tags)
	return slices.Compact(tags)
}
