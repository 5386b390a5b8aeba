// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package compose maps pipeline outcomes to reply messages and renders them.

# Templates

	success                 nothing to report; carries the submission ref
	unknown-observer        observer id not registered (fatal)
	unknown-location        location type+code not registered (fatal)
	invalid-question-codes  UnknownTag tags
	invalid-responses       RangeError, InvalidOption, MissingValue and MultipleEntry tags
	invalid-message         envelope mismatch, strict-mode leftovers, or leftovers

A fatal failure produces a single message. Recoverable problems each get a
message and suppress success even though the valid values were stored.

# Rendering

Renderer uses text/template. Overrides replace the default English texts
per template:

	r, err := compose.NewRenderer(map[compose.Template]string{
		compose.TemplateSuccess: "Merci ({{.Ref}})",
	})
	lines, err := r.Render(reply)
*/
package compose
