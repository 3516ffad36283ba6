// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3464)
  - DatabaseURL: SQLite path or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - TickInterval: How often the lifecycle clock sweep runs (default: 30s)

# CLI Flags

	-p     Server port
	-d     Database URL
	-t     Database type
	-tick  Clock trigger interval

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	TICK_INTERVAL → -tick

CLI flags take precedence over environment variables. A .env file, if
present, is loaded by main before parsing.

# Validation

ParseFlags returns an error if DATABASE_URL is missing, the database
type is unknown, or the tick interval is below one second.
*/
package cliparse
