// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"strings"
	"time"
)

// Form kind constants
type FormKind string

const (
	FormKindChecklist FormKind = "checklist"
	FormKindIncident  FormKind = "incident"
)

// Field value kind constants
type ValueKind string

const (
	KindBoolean      ValueKind = "boolean"
	KindNumeric      ValueKind = "numeric"
	KindMultiNumeric ValueKind = "multi_numeric"
	KindChoice       ValueKind = "choice"

	// KindText is only used for the reserved comment field.
	KindText ValueKind = "text"
)

// Comment mode constants
type CommentMode string

const (
	CommentModeNote  CommentMode = "note"
	CommentModeField CommentMode = "field"
)

// DefaultCommentField is the reserved data key used by CommentModeField forms.
const DefaultCommentField = "COMMENT"

// Form definition types

type FieldSpec struct {
	Tag         string    `yaml:"tag" json:"tag"`
	Description string    `yaml:"description" json:"description"`
	Kind        ValueKind `yaml:"kind" json:"kind"`
	Min         *int      `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *int      `yaml:"max,omitempty" json:"max,omitempty"`
	Options     []int     `yaml:"options,omitempty" json:"options,omitempty"`
}

// AllowsMultiple reports whether the field carries several simultaneous values.
func (f FieldSpec) AllowsMultiple() bool {
	return f.Kind == KindMultiNumeric
}

// CanonicalTag returns the tag in its stored/reported form.
func (f FieldSpec) CanonicalTag() string {
	return strings.ToUpper(f.Tag)
}

type FieldGroup struct {
	Name   string      `yaml:"name" json:"name"`
	Fields []FieldSpec `yaml:"fields" json:"fields"`
}

type Activity struct {
	Name  string `yaml:"name" json:"name"`
	Start Date   `yaml:"start" json:"start"`
	End   Date   `yaml:"end" json:"end"` // exclusive
}

type FormDefinition struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	Prefix       string       `yaml:"prefix" json:"prefix"`
	Kind         FormKind     `yaml:"kind" json:"kind"`
	AlwaysCreate bool         `yaml:"always_create" json:"always_create"`
	CommentMode  CommentMode  `yaml:"comment_mode" json:"comment_mode"`
	CommentField string       `yaml:"comment_field,omitempty" json:"comment_field,omitempty"`
	Activities   []Activity   `yaml:"activities,omitempty" json:"activities,omitempty"`
	Groups       []FieldGroup `yaml:"groups" json:"groups"`
}

// Fields returns every field of the form in group order.
func (f *FormDefinition) Fields() []FieldSpec {
	var fields []FieldSpec
	for _, g := range f.Groups {
		fields = append(fields, g.Fields...)
	}
	return fields
}

// Field looks up a field by tag, case-insensitively.
func (f *FormDefinition) Field(tag string) (FieldSpec, bool) {
	tag = strings.ToUpper(tag)
	for _, g := range f.Groups {
		for _, field := range g.Fields {
			if field.CanonicalTag() == tag {
				return field, true
			}
		}
	}
	return FieldSpec{}, false
}

// Identity types

type Observer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	LocationID string `json:"location_id,omitempty"`
}

type Location struct {
	ID       string `json:"id"`
	TypeCode string `json:"type_code"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

// Message types

// Message is one inbound coded text. Sender is opaque transport identity.
type Message struct {
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
	Sender     string    `json:"sender"`
}

type Envelope struct {
	ObserverID   string `json:"observer_id"`
	Prefix       string `json:"prefix"`
	Day          int    `json:"day,omitempty"`
	HasDay       bool   `json:"has_day"`
	LocationType string `json:"location_type"`
	LocationCode string `json:"location_code"`
	Marker       bool   `json:"marker"`
	Responses    string `json:"responses"`
	Comment      string `json:"comment,omitempty"`
}

// Storage types

type Submission struct {
	ID         string           `json:"id"`
	ObserverID string           `json:"observer_id"`
	FormID     string           `json:"form_id"`
	LocationID string           `json:"location_id"`
	ReportDate Date             `json:"report_date"`
	Data       map[string]Value `json:"data"`
	Comment    string           `json:"comment,omitempty"`
	SenderHash string           `json:"-"` // Never expose in JSON
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type Note struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReportingPeriod is the half-open window [Start, End) a submission is
// deduplicated against. Activity is empty for single-day periods.
type ReportingPeriod struct {
	Activity string `json:"activity,omitempty"`
	Start    Date   `json:"start"`
	End      Date   `json:"end"`
}

// DayPeriod returns the single-day period containing d.
func DayPeriod(d Date) ReportingPeriod {
	return ReportingPeriod{Start: d, End: d.AddDays(1)}
}

// Contains reports whether d falls inside the period.
func (p ReportingPeriod) Contains(d Date) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}

// Key is a stable string form used for lock keys and logging.
func (p ReportingPeriod) Key() string {
	return p.Start.String() + "/" + p.End.String()
}
