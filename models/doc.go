// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain types and HTTP request/response types
for the Gatherly consensus engine.

# Lifecycle Phases

A hangout progresses through:

	draft → polling → confirmed → rsvp_collection → active → completed

with "cancelled" reachable from any non-terminal phase. "completed" and
"cancelled" are terminal. Confirmation always opens RSVP collection, so
the store records "rsvp_collection" directly when a poll confirms;
"confirmed" exists as a logical phase in the enum for that instant.

# Privacy Levels

  - public: visible and votable by anyone
  - friends_only: visible to the owner's active friends
  - private: visible to participants only

# Consensus Configuration

ConsensusConfig has no implicit defaults. Threshold, minimum
participants, the mandatory-vote flag, and the deadline fallback must
all be supplied when a hangout is created.
*/
package models
