// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package grammar builds per-field micro-grammars from a form definition.

	boolean        TAG
	numeric        TAG digits       (bounds checked by the extractor)
	choice         TAG digits       (membership checked by the extractor)
	multi_numeric  TAG digits       (each digit is a separate value)

Tags match case-insensitively and are reported uppercase. The tag scanner
tries longer tags first, so with tags A and AB the input AB5 binds AB=5.

Grammars are immutable once built. Use Cache to build each form's grammar
once per process.
*/
package grammar
