// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The DDL sticks to the dialect shared by SQLite and PostgreSQL:
// TEXT/BOOLEAN/TIMESTAMP columns, CURRENT_TIMESTAMP defaults, and
// ON CONFLICT upserts at query time.
const schema = `
-- Hangouts
CREATE TABLE IF NOT EXISTS hangout (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    owner_id TEXT NOT NULL,
    privacy TEXT NOT NULL CHECK (privacy IN ('public', 'friends_only', 'private')),
    phase TEXT NOT NULL DEFAULT 'draft' CHECK (phase IN ('draft', 'polling', 'confirmed', 'rsvp_collection', 'active', 'completed', 'cancelled')),
    consensus_threshold REAL NOT NULL,
    minimum_participants INTEGER NOT NULL,
    require_mandatory_votes BOOLEAN NOT NULL DEFAULT FALSE,
    deadline_fallback TEXT NOT NULL CHECK (deadline_fallback IN ('plurality', 'cancel')),
    allow_member_options BOOLEAN NOT NULL DEFAULT FALSE,
    voting_deadline TIMESTAMP,
    starts_at TIMESTAMP,
    ends_at TIMESTAMP,
    winning_option_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_hangout_phase ON hangout(phase);
CREATE INDEX IF NOT EXISTS idx_hangout_owner ON hangout(owner_id);

-- Options
CREATE TABLE IF NOT EXISTS option (
    id TEXT PRIMARY KEY,
    hangout_id TEXT NOT NULL REFERENCES hangout(id) ON DELETE CASCADE,
    payload TEXT NOT NULL,
    contributor_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    removed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_option_hangout_id ON option(hangout_id);

-- Ballots: at most one per (hangout, voter), enforced by the store
CREATE TABLE IF NOT EXISTS ballot (
    hangout_id TEXT NOT NULL REFERENCES hangout(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    option_id TEXT NOT NULL REFERENCES option(id),
    cast_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (hangout_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_hangout_id ON ballot(hangout_id);
CREATE INDEX IF NOT EXISTS idx_ballot_option_id ON ballot(option_id);

-- Participants
CREATE TABLE IF NOT EXISTS participant (
    hangout_id TEXT NOT NULL REFERENCES hangout(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('owner', 'co_host', 'member', 'mandatory')),
    rsvp_status TEXT NOT NULL DEFAULT 'pending' CHECK (rsvp_status IN ('pending', 'yes', 'no', 'maybe')),
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (hangout_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_participant_user ON participant(user_id);

-- Friendships: rows may exist in either direction; readers check both
CREATE TABLE IF NOT EXISTS friendship (
    user_id TEXT NOT NULL,
    friend_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('active', 'blocked')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, friend_id)
);

CREATE INDEX IF NOT EXISTS idx_friendship_friend ON friendship(friend_id);
`
