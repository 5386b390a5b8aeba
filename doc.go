// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the fieldcode command.

fieldcode turns coded text messages sent by election observers into
structured submissions against a form catalog, and composes the short
reply each sender gets back.

# Message Format

	1234 PB 15 PS42 ! AAB5AC12 @free text comment
	^    ^  ^  ^    ^ ^        ^
	|    |  |  |    | |        comment (after the first @)
	|    |  |  |    | tagged responses
	|    |  |  |    optional marker selecting the incident form kind
	|    |  |  location type and code
	|    |  optional day of month
	|    form prefix
	observer id

# Running

	fieldcode migrate -d "file:fieldcode.db"
	fieldcode roster  -d "file:fieldcode.db" roster.yml
	fieldcode parse   -c catalog.yml "1234PB15PS42AAB5"
	SENDER_SALT=... fieldcode ingest -c catalog.yml -d "file:fieldcode.db" messages.jsonl

# Configuration

  - DATABASE_URL (-d): database connection string
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - FIELDCODE_CATALOG (-c): form catalog YAML
  - SENDER_SALT (--sender-salt): secret for sender hashes and reply refs
  - REDIS_ADDR (--redis-addr): optional, shares key locks across processes
  - WORKERS (-w): concurrent ingest workers (default: 4)

# Architecture

  - textnorm: message normalization and comment split
  - envelope: envelope pattern matching
  - period: report date and reporting period resolution
  - grammar: per-form tag grammars, cached
  - extract: response extraction and problem classification
  - reconcile: find-or-create and merge of submissions
  - compose: reply selection and rendering
  - handlers: the pipeline end to end
  - catalog, models, db, keylock, ident, middleware, cliparse, commands

See package documentation for each component.
*/
package main
