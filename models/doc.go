// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain types shared by the message pipeline.

# Form Types

Forms are data, not Go types. A form is read-only while a message is parsed:

  - FormDefinition: id, prefix, kind, comment mode, activities, field groups
  - FieldGroup: ordered list of fields
  - FieldSpec: tag, description, value kind, min/max, options
  - Activity: named [start, end) reporting window

# Message Types

Types created fresh for each inbound message:

  - Message: text, receipt time, opaque sender
  - Envelope: observer, prefix, day, location, marker, response blob, comment
  - ParseOutcome: extracted values plus every raised problem

# Storage Types

  - Submission: data reported by one observer for one form in one period
  - Note: free-text comment attached to a submission
  - Observer, Location: identity records
  - ReportingPeriod: deduplication window

# Values

Value is a tagged union over the field kinds. Its JSON form is the natural
one for the kind:

	BoolValue()           → true
	IntValue(5)           → 5
	IntsValue([]int{2,1}) → [1,2]
	TextValue("late")     → "late"

# Constants

Form kinds:

	FormKindChecklist = "checklist"
	FormKindIncident  = "incident"

Parse status, least to most severe:

	StatusOk, StatusMultipleEntry, StatusUnknownTag,
	StatusUnexpectedInput, StatusEnvelopeMismatch

Value problems (reported, never stored):

	ProblemRangeError, ProblemInvalidOption, ProblemMissingValue
*/
package models
