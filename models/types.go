// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"
)

// Hangout phase constants
const (
	PhaseDraft          = "draft"
	PhasePolling        = "polling"
	PhaseConfirmed      = "confirmed"
	PhaseRSVPCollection = "rsvp_collection"
	PhaseActive         = "active"
	PhaseCompleted      = "completed"
	PhaseCancelled      = "cancelled"
)

// Privacy level constants
const (
	PrivacyPublic      = "public"
	PrivacyFriendsOnly = "friends_only"
	PrivacyPrivate     = "private"
)

// Participant role constants
const (
	RoleOwner     = "owner"
	RoleCoHost    = "co_host"
	RoleMember    = "member"
	RoleMandatory = "mandatory"
)

// RSVP status constants
const (
	RSVPPending = "pending"
	RSVPYes     = "yes"
	RSVPNo      = "no"
	RSVPMaybe   = "maybe"
)

// Deadline fallback constants
const (
	FallbackPlurality = "plurality"
	FallbackCancel    = "cancel"
)

// Friendship status constants
const (
	FriendshipActive  = "active"
	FriendshipBlocked = "blocked"
)

// Request types

type CreateHangoutRequest struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Privacy        string          `json:"privacy"`
	Config         ConsensusConfig `json:"config"`
	VotingDeadline *time.Time      `json:"voting_deadline,omitempty"`
	StartsAt       *time.Time      `json:"starts_at,omitempty"`
	EndsAt         *time.Time      `json:"ends_at,omitempty"`
}

type AddOptionRequest struct {
	// Payload is opaque to the engine. Title/location/time live inside it
	// and are interpreted only by the caller.
	Payload json.RawMessage `json:"payload"`
}

type AddParticipantRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
}

type ForceConfirmRequest struct {
	OptionID string `json:"option_id"`
}

type SetRSVPRequest struct {
	Status string `json:"status"`
}

type SetFriendshipRequest struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// Response types

type CreateHangoutResponse struct {
	HangoutID string `json:"hangout_id"`
}

type AddOptionResponse struct {
	OptionID string `json:"option_id"`
}

type CastVoteResponse struct {
	Ballot Ballot          `json:"ballot"`
	Result ConsensusResult `json:"result"`
}

type HangoutDetailResponse struct {
	Hangout Hangout  `json:"hangout"`
	Options []Option `json:"options"`
}

type ResultsResponse struct {
	Result  ConsensusResult `json:"result"`
	Tallies []OptionTally   `json:"tallies"`
}

type RSVPSummaryResponse struct {
	Counts map[string]int `json:"counts"`
}

type TickResponse struct {
	Transitions int `json:"transitions"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Domain types

// ConsensusConfig controls when a poll collapses into a confirmed plan.
// Every field is required at creation time; there are no implicit defaults.
type ConsensusConfig struct {
	// Threshold is the percentage of eligible participants the winning
	// option must reach, in (0, 100].
	Threshold float64 `json:"threshold"`
	// MinimumParticipants is the floor on total ballots cast before any
	// automatic confirmation.
	MinimumParticipants int `json:"minimum_participants"`
	// RequireMandatoryVotes blocks consensus while any mandatory
	// participant has not voted.
	RequireMandatoryVotes bool `json:"require_mandatory_votes"`
	// DeadlineFallback is what happens when the voting deadline passes
	// without consensus: "plurality" confirms the strict leader, "cancel"
	// cancels the hangout.
	DeadlineFallback string `json:"deadline_fallback"`
	// AllowMemberOptions lets non-host participants contribute options.
	AllowMemberOptions bool `json:"allow_member_options"`
}

type Hangout struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	OwnerID         string          `json:"owner_id"`
	Privacy         string          `json:"privacy"`
	Phase           string          `json:"phase"`
	Config          ConsensusConfig `json:"config"`
	VotingDeadline  *time.Time      `json:"voting_deadline,omitempty"`
	StartsAt        *time.Time      `json:"starts_at,omitempty"`
	EndsAt          *time.Time      `json:"ends_at,omitempty"`
	WinningOptionID *string         `json:"winning_option_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Option struct {
	ID            string          `json:"id"`
	HangoutID     string          `json:"hangout_id"`
	Payload       json.RawMessage `json:"payload"`
	ContributorID string          `json:"contributor_id"`
	Position      int             `json:"position"`
	Removed       bool            `json:"removed"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Ballot struct {
	HangoutID string    `json:"hangout_id"`
	VoterID   string    `json:"voter_id"`
	OptionID  string    `json:"option_id"`
	CastAt    time.Time `json:"cast_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Participant struct {
	HangoutID  string    `json:"hangout_id"`
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	RSVPStatus string    `json:"rsvp_status"`
	JoinedAt   time.Time `json:"joined_at"`
}

// ConsensusResult is derived from the current ballots on demand. It is
// never persisted as a source of truth.
type ConsensusResult struct {
	WinnerOptionID   *string  `json:"winner_option_id,omitempty"`
	WinnerVotes      int      `json:"winner_votes"`
	TotalBallots     int      `json:"total_ballots"`
	EligibleCount    int      `json:"eligible_count"`
	Percent          float64  `json:"percent"`
	Tie              bool     `json:"tie"`
	Blocked          bool     `json:"blocked"`
	MissingMandatory []string `json:"missing_mandatory,omitempty"`
	Reached          bool     `json:"reached"`
}

type OptionTally struct {
	OptionID string `json:"option_id"`
	Votes    int    `json:"votes"`
}

// ValidPhase reports whether s is one of the defined lifecycle phases.
func ValidPhase(s string) bool {
	switch s {
	case PhaseDraft, PhasePolling, PhaseConfirmed, PhaseRSVPCollection,
		PhaseActive, PhaseCompleted, PhaseCancelled:
		return true
	}
	return false
}

// TerminalPhase reports whether s is a phase no transition leaves.
func TerminalPhase(s string) bool {
	return s == PhaseCompleted || s == PhaseCancelled
}

// ValidPrivacy reports whether s is one of the defined privacy levels.
func ValidPrivacy(s string) bool {
	switch s {
	case PrivacyPublic, PrivacyFriendsOnly, PrivacyPrivate:
		return true
	}
	return false
}

// ValidRole reports whether s is one of the defined participant roles.
func ValidRole(s string) bool {
	switch s {
	case RoleOwner, RoleCoHost, RoleMember, RoleMandatory:
		return true
	}
	return false
}

// ValidRSVPStatus reports whether s is a settable RSVP status. "pending"
// is the initial state, not something a participant sets.
func ValidRSVPStatus(s string) bool {
	switch s {
	case RSVPYes, RSVPNo, RSVPMaybe:
		return true
	}
	return false
}
