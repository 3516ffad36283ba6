// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes using Go 1.22+ method routing.

# Route Groups

  - Hangout lifecycle: create, read, options, publish, confirm, cancel
  - Voting: cast/retract/read ballots, live results
  - Social: participants, friendships, RSVPs
  - Clock: POST /tick for external schedulers
  - Health: GET /health

# Construction

	mux := router.NewRouter(eng)
	http.ListenAndServe(":3464", mux)

Every route is wrapped in request logging. The engine is the only
dependency; handlers hold no state of their own.
*/
package router
