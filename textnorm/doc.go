// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package textnorm cleans raw message text before envelope matching: it
// splits off the "@" comment, strips whitespace and disallowed punctuation,
// uppercases and applies the confusion table.
package textnorm
