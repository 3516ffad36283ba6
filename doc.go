// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Gatherly API server.

Gatherly lets a group converge on a shared plan: propose options, vote,
reach consensus, confirm, collect RSVPs. The interesting part is the
consensus lifecycle engine (package engine); everything else is the thin
web surface around it.

# Starting the Server

The server reads configuration from a .env file, environment variables,
or CLI flags:

	DATABASE_URL=file:gatherly.db go run .

Or with flags:

	go run . -p 3464 -d "postgres://..." -t postgres

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string

Optional settings:

  - PORT (-p): Server port (default: 3464)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - TICK_INTERVAL (-tick): lifecycle sweep period (default: 30s)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - engine: the consensus lifecycle engine (state machine, evaluator,
    ballot store, participation gate, RSVP tracker)
  - handlers: HTTP request handlers over the engine
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Domain and request/response types
  - auth: Actor identity extraction
  - db: Schema creation
  - cliparse: Configuration parsing

A background goroutine calls engine.Tick on a fixed interval; external
schedulers can drive the same sweep through POST /tick.

See package documentation for each component.
*/
package main
