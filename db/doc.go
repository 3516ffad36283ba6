// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - hangout: Decision container, lifecycle phase, consensus config
  - option: Candidate choices per hangout (soft-removed, never deleted)
  - ballot: One ballot per (hangout, voter), upserted on re-vote
  - participant: Role and RSVP status per (hangout, user)
  - friendship: Directed rows, read bidirectionally

# Relationships

	hangout 1──* option
	hangout 1──* ballot
	hangout 1──* participant

Foreign keys from option/ballot/participant use ON DELETE CASCADE, but
hangouts are never physically deleted - cancellation is a phase, so RSVP
history stays intact.

# Concurrency Guarantees

Two constraints carry the engine's correctness:

  - ballot PRIMARY KEY (hangout_id, voter_id): revotes resolve to a
    single row via INSERT ... ON CONFLICT DO UPDATE, never read-then-write
  - hangout.phase: transitions are compare-and-swap
    (UPDATE ... WHERE phase = expected), so re-entrant transitions no-op

# Dialect

The DDL and all engine queries run unchanged on SQLite (modernc.org/sqlite)
and PostgreSQL (lib/pq): $n placeholders, CURRENT_TIMESTAMP defaults,
ON CONFLICT upserts.
*/
package db
