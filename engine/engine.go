// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/gatherly/models"
)

// Engine is the consensus lifecycle engine. It owns no global state: every
// hangout's lifecycle is independent, and all serialization happens in the
// backing store (ballot upserts, phase compare-and-swap).
type Engine struct {
	db       *sql.DB
	notifier Notifier
}

// New creates an Engine on top of db. notifier may be nil, in which case
// no events are emitted.
func New(db *sql.DB, notifier Notifier) *Engine {
	return &Engine{db: db, notifier: notifier}
}

// readRetryDelay is the pause before the single retry of an idempotent
// read that failed with an infrastructure error.
const readRetryDelay = 50 * time.Millisecond

// Timestamps are stored in UTC; SQLite has no timezone-aware column type.
func nowUTC() time.Time {
	return time.Now().UTC()
}

// loadHangout fetches one hangout row. Returns ErrHangoutNotFound for a
// missing id.
func (e *Engine) loadHangout(ctx context.Context, id string) (models.Hangout, error) {
	var h models.Hangout
	var description sql.NullString
	var winning sql.NullString
	var deadline, startsAt, endsAt sql.NullTime

	scan := func() error {
		return e.db.QueryRowContext(ctx, `
			SELECT id, title, description, owner_id, privacy, phase,
			       consensus_threshold, minimum_participants, require_mandatory_votes,
			       deadline_fallback, allow_member_options,
			       voting_deadline, starts_at, ends_at, winning_option_id,
			       created_at, updated_at
			FROM hangout
			WHERE id = $1
		`, id).Scan(
			&h.ID, &h.Title, &description, &h.OwnerID, &h.Privacy, &h.Phase,
			&h.Config.Threshold, &h.Config.MinimumParticipants, &h.Config.RequireMandatoryVotes,
			&h.Config.DeadlineFallback, &h.Config.AllowMemberOptions,
			&deadline, &startsAt, &endsAt, &winning,
			&h.CreatedAt, &h.UpdatedAt,
		)
	}

	err := scan()
	if err != nil && err != sql.ErrNoRows {
		// Reads are idempotent; retry once before surfacing.
		time.Sleep(readRetryDelay)
		err = scan()
	}
	if err == sql.ErrNoRows {
		return models.Hangout{}, ErrHangoutNotFound
	}
	if err != nil {
		return models.Hangout{}, fmt.Errorf("load hangout: %w", err)
	}

	h.Description = description.String
	if winning.Valid {
		h.WinningOptionID = &winning.String
	}
	if deadline.Valid {
		t := deadline.Time
		h.VotingDeadline = &t
	}
	if startsAt.Valid {
		t := startsAt.Time
		h.StartsAt = &t
	}
	if endsAt.Valid {
		t := endsAt.Time
		h.EndsAt = &t
	}
	return h, nil
}

// loadOptions returns all options for a hangout, removed ones included,
// in insertion order.
func (e *Engine) loadOptions(ctx context.Context, hangoutID string) ([]models.Option, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id, hangout_id, payload, contributor_id, position, removed, created_at
		FROM option
		WHERE hangout_id = $1
		ORDER BY position, id
	`, hangoutID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	var options []models.Option
	for rows.Next() {
		var opt models.Option
		var payload []byte
		if err := rows.Scan(&opt.ID, &opt.HangoutID, &payload, &opt.ContributorID, &opt.Position, &opt.Removed, &opt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		opt.Payload = payload
		options = append(options, opt)
	}
	return options, rows.Err()
}

// loadBallots returns all ballots for a hangout.
func (e *Engine) loadBallots(ctx context.Context, hangoutID string) ([]models.Ballot, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT hangout_id, voter_id, option_id, cast_at, updated_at
		FROM ballot
		WHERE hangout_id = $1
	`, hangoutID)
	if err != nil {
		return nil, fmt.Errorf("load ballots: %w", err)
	}
	defer rows.Close()

	var ballots []models.Ballot
	for rows.Next() {
		var b models.Ballot
		if err := rows.Scan(&b.HangoutID, &b.VoterID, &b.OptionID, &b.CastAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

// loadParticipants returns all participants for a hangout.
func (e *Engine) loadParticipants(ctx context.Context, hangoutID string) ([]models.Participant, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT hangout_id, user_id, role, rsvp_status, joined_at
		FROM participant
		WHERE hangout_id = $1
		ORDER BY joined_at, user_id
	`, hangoutID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.HangoutID, &p.UserID, &p.Role, &p.RSVPStatus, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// participantRole returns the actor's role on the hangout, or "" when the
// actor is not a participant.
func (e *Engine) participantRole(ctx context.Context, hangoutID, userID string) (string, error) {
	var role string
	err := e.db.QueryRowContext(ctx, `
		SELECT role FROM participant WHERE hangout_id = $1 AND user_id = $2
	`, hangoutID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load participant role: %w", err)
	}
	return role, nil
}

// Results evaluates the hangout's current consensus state and per-option
// tallies. Recomputed on every read; nothing is cached.
func (e *Engine) Results(ctx context.Context, actorID, hangoutID string) (models.ResultsResponse, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return models.ResultsResponse{}, err
	} else if !ok {
		return models.ResultsResponse{}, ErrHangoutNotFound
	}

	options, err := e.loadOptions(ctx, hangoutID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	ballots, err := e.loadBallots(ctx, hangoutID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	participants, err := e.loadParticipants(ctx, hangoutID)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	return models.ResultsResponse{
		Result:  Evaluate(options, ballots, participants, h.Config),
		Tallies: Tally(options, ballots),
	}, nil
}
