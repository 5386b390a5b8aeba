// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package commands implements the fieldcode command line.

	fieldcode migrate                 create the schema
	fieldcode roster FILE             import observers and locations
	fieldcode parse MESSAGE...        dry-run one message
	fieldcode ingest [FILE]           process JSON-lines messages

Global flags are bound by cliparse.BindFlags and resolved against the
environment (and an optional .env file) before any subcommand runs. The
resolved configuration also selects the log level and format.
*/
package commands
