// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package compose

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultTemplates are the built-in English reply texts.
var DefaultTemplates = map[Template]string{
	TemplateSuccess:              `Thank you. Your {{.Form}} report was received{{if .Ref}} (ref {{.Ref}}){{end}}.`,
	TemplateUnknownObserver:      `Observer ID {{.Observer}} is not registered. Please check your ID and resend.`,
	TemplateUnknownLocation:      `Location {{.Location}} is not known. Please check the location code and resend.`,
	TemplateInvalidQuestionCodes: `Unknown question codes: {{join .Tags ", "}}. Please correct and resend.`,
	TemplateInvalidResponses:     `Invalid answers for: {{join .Tags ", "}}. Please correct and resend.`,
	TemplateInvalidMessage:       `Your message could not be understood{{if .Fragments}} near "{{join .Fragments " "}}"{{end}}. Please check the format and resend.`,
}

// Renderer turns reply messages into text.
type Renderer struct {
	templates map[Template]*template.Template
}

// NewRenderer parses DefaultTemplates with overrides applied on top.
func NewRenderer(overrides map[Template]string) (*Renderer, error) {
	funcs := template.FuncMap{"join": strings.Join}

	r := &Renderer{templates: make(map[Template]*template.Template, len(DefaultTemplates))}
	for name, text := range DefaultTemplates {
		if o, ok := overrides[name]; ok {
			text = o
		}
		t, err := template.New(string(name)).Funcs(funcs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	for name := range overrides {
		if _, ok := DefaultTemplates[name]; !ok {
			return nil, fmt.Errorf("unknown template: %s", name)
		}
	}
	return r, nil
}

// Render returns one line of text per reply message.
func (r *Renderer) Render(reply Reply) ([]string, error) {
	lines := make([]string, 0, len(reply.Messages))
	for _, m := range reply.Messages {
		t, ok := r.templates[m.Template]
		if !ok {
			return nil, fmt.Errorf("unknown template: %s", m.Template)
		}
		var b strings.Builder
		if err := t.Execute(&b, m); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", m.Template, err)
		}
		lines = append(lines, b.String())
	}
	return lines, nil
}
