// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package compose

import (
	"github.com/danielhkuo/fieldcode/models"
)

// Reply template constants
type Template string

const (
	TemplateSuccess              Template = "success"
	TemplateUnknownObserver      Template = "unknown-observer"
	TemplateUnknownLocation      Template = "unknown-location"
	TemplateInvalidQuestionCodes Template = "invalid-question-codes"
	TemplateInvalidResponses     Template = "invalid-responses"
	TemplateInvalidMessage       Template = "invalid-message"
)

// Failure is a fatal pipeline outcome. Nothing is stored when it is set.
type Failure string

const (
	FailureNone            Failure = ""
	FailureInvalidMessage  Failure = "invalid_message"
	FailureUnknownObserver Failure = "unknown_observer"
	FailureUnknownLocation Failure = "unknown_location"
)

// Message is one reply line before rendering.
type Message struct {
	Template  Template `json:"template"`
	Tags      []string `json:"tags,omitempty"`
	Fragments []string `json:"fragments,omitempty"`
	Observer  string   `json:"observer,omitempty"`
	Location  string   `json:"location,omitempty"`
	Form      string   `json:"form,omitempty"`
	Ref       string   `json:"ref,omitempty"`
}

type Reply struct {
	Messages []Message `json:"messages"`
}

// Templates returns the reply's templates in order.
func (r Reply) Templates() []Template {
	out := make([]Template, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = m.Template
	}
	return out
}

// Input is everything the composer needs from one processed message.
type Input struct {
	Failure  Failure
	Envelope models.Envelope
	Outcome  *models.ParseOutcome
	Form     *models.FormDefinition
	// Ref is the short submission reference; empty when nothing was stored.
	Ref string
}

// Compose maps a pipeline result to reply messages. A fatal failure yields
// exactly one message. Otherwise every problem class gets its own message,
// and success is sent only when there were no problems.
func Compose(in Input) Reply {
	switch in.Failure {
	case FailureUnknownObserver:
		return reply(Message{Template: TemplateUnknownObserver, Observer: in.Envelope.ObserverID})
	case FailureUnknownLocation:
		return reply(Message{Template: TemplateUnknownLocation, Location: in.Envelope.LocationType + in.Envelope.LocationCode})
	case FailureInvalidMessage:
		return reply(invalidMessage(in.Outcome))
	}

	if in.Outcome == nil || in.Outcome.Status == models.StatusEnvelopeMismatch {
		return reply(Message{Template: TemplateInvalidMessage})
	}

	var msgs []Message
	o := in.Outcome
	if len(o.UnknownTags) > 0 {
		msgs = append(msgs, Message{Template: TemplateInvalidQuestionCodes, Tags: o.UnknownTags})
	}
	if tags := o.InvalidResponseTags(); len(tags) > 0 {
		msgs = append(msgs, Message{Template: TemplateInvalidResponses, Tags: tags})
	}
	if len(o.UnexpectedInput) > 0 {
		msgs = append(msgs, invalidMessage(o))
	}
	if len(msgs) > 0 {
		return Reply{Messages: msgs}
	}

	success := Message{Template: TemplateSuccess, Ref: in.Ref}
	if in.Form != nil {
		success.Form = in.Form.Name
		if success.Form == "" {
			success.Form = in.Form.ID
		}
	}
	return reply(success)
}

func invalidMessage(o *models.ParseOutcome) Message {
	m := Message{Template: TemplateInvalidMessage}
	if o != nil {
		m.Fragments = o.UnexpectedInput
	}
	return m
}

func reply(m Message) Reply {
	return Reply{Messages: []Message{m}}
}
