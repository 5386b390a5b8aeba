// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line flags and configuration.

# Configuration

Commands bind the flags on their pflag.FlagSet and resolve once parsed:

	var cfg cliparse.Config
	cliparse.BindFlags(cmd.PersistentFlags(), &cfg)
	...
	resolved, err := cliparse.Resolve(cfg)

ParseFlags does both for a plain argument list.

# CLI Flags

	-d, --database-url   Database URL
	-t, --database-type  sqlite (default) or postgres
	-c, --catalog        Form catalog YAML file
	    --redis-addr     Redis address; enables cross-process locking
	    --instance       Redis key namespace (default: default)
	-w, --workers        Concurrent message workers (default: 4)
	    --sender-salt    Sender hash salt
	    --log-level      debug, info (default), warn, error
	    --log-format     json (default) or text

# Environment Variables

Flags fall back to environment variables:

	DATABASE_URL        → -d
	DATABASE_TYPE       → -t
	FIELDCODE_CATALOG   → -c
	REDIS_ADDR          → --redis-addr
	FIELDCODE_INSTANCE  → --instance
	WORKERS             → -w
	SENDER_SALT         → --sender-salt
	LOG_LEVEL           → --log-level
	LOG_FORMAT          → --log-format

CLI flags take precedence over environment variables. LoadDotEnv reads a
.env file first without overriding variables that are already set.

# Validation

Resolve fails when a value is malformed. RequireCatalog demands a catalog
path for the commands that parse messages, and RequireStorage demands
DATABASE_URL and SENDER_SALT for the commands that write submissions.
*/
package cliparse
