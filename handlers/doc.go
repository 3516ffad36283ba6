// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Gatherly API.

# Handler Types

Each handler is a thin struct over the engine:

  - HangoutHandler: hangout lifecycle (create, publish, options, confirm, cancel)
  - VotingHandler: ballots and live results
  - SocialHandler: roster, friendships, RSVPs
  - ClockHandler: external clock trigger

Handlers are created via constructor functions that accept *engine.Engine:

	hangoutHandler := handlers.NewHangoutHandler(eng)

All domain decisions - who may act, which phase allows what, when
consensus fires - happen inside the engine; handlers only parse requests,
extract the actor, and map engine errors to HTTP statuses (errors.go).

# Hangout Lifecycle

	POST /hangouts                    → CreateHangout
	POST /hangouts/{id}/options       → AddOption (draft/polling)
	POST /hangouts/{id}/publish       → Publish (needs ≥2 live options)
	POST /hangouts/{id}/confirm       → ForceConfirm (owner override)
	POST /hangouts/{id}/cancel        → Cancel

# Voting Flow

	POST   /hangouts/{id}/ballots    → CastVote (upsert; may confirm)
	DELETE /hangouts/{id}/ballots    → RetractVote
	GET    /hangouts/{id}/my-ballot  → GetMyBallot
	GET    /hangouts/{id}/results    → GetResults (live, recomputed)

# Identity

Every mutating endpoint requires the X-Actor-ID header (see package
auth). Read endpoints accept anonymous callers, who see only public
hangouts.
*/
package handlers
