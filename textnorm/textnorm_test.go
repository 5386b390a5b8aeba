// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	n := New(Config{
		AllowedPunctuation: "!",
		Substitutions:      map[rune]rune{'O': '0', 'i': '1'},
	})

	tests := []struct {
		name       string
		input      string
		code       string
		comment    string
		hasComment bool
	}{
		{
			name:  "empty input",
			input: "",
			code:  "",
		},
		{
			name:  "whitespace and case",
			input: " 123 pb 5 ps 42 aa1 ",
			code:  "123PB5PS42AA1",
		},
		{
			name:  "disallowed punctuation stripped",
			input: "123.PB,5-PS/42;AA1",
			code:  "123PB5PS42AA1",
		},
		{
			name:  "allowed punctuation kept",
			input: "123X5PS42!AB",
			code:  "123X5PS42!AB",
		},
		{
			name:  "confusion substitution",
			input: "1o3 PSi",
			code:  "103PS1",
		},
		{
			name:  "fullwidth digits folded",
			input: "１２３PB",
			code:  "123PB",
		},
		{
			name:       "comment split at first separator",
			input:      "123PB5PS42AA1@ Queue was long @ noon ",
			code:       "123PB5PS42AA1",
			comment:    " Queue was long @ noon ",
			hasComment: true,
		},
		{
			name:       "blank comment is not a comment",
			input:      "123PB@   ",
			code:       "123PB",
			comment:    "   ",
			hasComment: false,
		},
		{
			name:       "comment only",
			input:      "@hello",
			code:       "",
			comment:    "hello",
			hasComment: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got.Code != tt.code {
				t.Errorf("Code = %q, want %q", got.Code, tt.code)
			}
			if got.Comment != tt.comment {
				t.Errorf("Comment = %q, want %q", got.Comment, tt.comment)
			}
			if got.HasComment != tt.hasComment {
				t.Errorf("HasComment = %v, want %v", got.HasComment, tt.hasComment)
			}
		})
	}
}

func TestNormalize_NoConfig(t *testing.T) {
	n := New(Config{})

	got := n.Normalize("12x!ab")
	if got.Code != "12XAB" {
		t.Errorf("Code = %q, want %q", got.Code, "12XAB")
	}
}
