// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine implements the consensus lifecycle engine: the state
machine and vote-tallying logic that decides when a group of competing
options collapses into one confirmed plan.

# Components

  - Option registry (options.go): candidate choices, soft removal,
    insertion-ordered listing
  - Ballot store (ballots.go): one ballot per (hangout, voter), upserted
    via the store's conflict resolution
  - Consensus evaluator (consensus.go): pure Evaluate function, no I/O
  - Lifecycle state machine (lifecycle.go): CAS-guarded phase
    transitions, deadline expiry, clock-driven Tick
  - Participation gate (gate.go): CanView / CanVote / CanModify against
    privacy, phase, role, and friendship
  - RSVP tracker (rsvp.go): attendance intent after confirmation

# Construction

	eng := engine.New(db, engine.LogNotifier{})

The engine takes a *sql.DB (SQLite or PostgreSQL; queries are
dialect-portable) and an optional Notifier for logical events.

# Actor Identity

There is no ambient "current user". Every operation takes an explicit
actorID supplied by the caller's identity layer, and the gate decides
what that actor may do.

# Concurrency Model

Request/response, no in-process actors. Two store-level mechanisms carry
all serialization:

  - ballot upserts: INSERT ... ON CONFLICT (hangout_id, voter_id)
    DO UPDATE, so concurrent revotes collapse to one deterministic row
  - phase CAS: UPDATE hangout SET phase = new WHERE phase = expected,
    so a transition observed twice applies once and no-ops the second
    time, including its emitted events

Evaluation itself is pure and runs redundantly without coordination.
Hangouts share no state with each other.

# Errors

Expected conditions (closed poll, ineligible voter, removed option,
role failures, validation) are sentinel errors or ValidationError and
are surfaced to the caller, never logged as system errors. Wrapped
errors from database/sql are infrastructure failures.
*/
package engine
