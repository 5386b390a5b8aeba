// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package catalog loads the form catalog and parser settings from YAML.

# Loading

	cat, err := catalog.Load("catalog.yml")
	form, err := cat.FindForm("PB")

Load validates the document and applies defaults. A catalog that fails
validation is never returned.

# Document

	version: "1.0"
	parser:
	  allowed_punctuation: "!"
	  substitutions: {"O": "0"}
	  location_types: [PS, W]
	  marker_kind: incident        # incident | checklist | none
	  strict_unexpected_input: false
	forms:
	  - id: pre-election
	    prefix: PB
	    kind: checklist            # checklist | incident
	    always_create: false
	    comment_mode: note         # note | field
	    activities:
	      - {name: election-week, start: 2021-03-01, end: 2021-03-08}
	    groups:
	      - name: Arrival
	        fields:
	          - {tag: AA, kind: numeric, min: 0, max: 99}
	          - {tag: AB, kind: choice, options: [1, 2, 3]}
	          - {tag: AC, kind: multi_numeric}
	          - {tag: AD, kind: boolean}

# Validation

Validate rejects:

  - tag collisions inside a form (ErrDuplicateTag)
  - duplicate prefixes or form ids
  - tags, prefixes or location types that are not letters only
  - choice fields with no options, numeric fields with min > max
  - substitution entries that would rewrite a prefix, tag or location type

Defaults: marker_kind = incident, comment_mode = note, comment_field = COMMENT.
*/
package catalog
