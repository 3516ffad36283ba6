// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/gatherly/models"
)

// CastVote records or replaces the actor's ballot. The write is an upsert
// keyed on (hangout_id, voter_id): the store's conflict resolution, not a
// read-then-write, so concurrent revotes race safely to a single row and
// a retried cast is harmless.
//
// On a public hangout a first-time voter is enrolled as a member, keeping
// the eligible-participant denominator consistent with the voter set.
//
// Every successful cast re-evaluates consensus in the same call; if the
// threshold is met the confirm transition fires before CastVote returns,
// so there is no window where the poll is past consensus but still open.
func (e *Engine) CastVote(ctx context.Context, actorID, hangoutID, optionID string) (models.CastVoteResponse, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return models.CastVoteResponse{}, err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return models.CastVoteResponse{}, err
	} else if !ok {
		return models.CastVoteResponse{}, ErrHangoutNotFound
	}
	if h.Phase != models.PhasePolling {
		return models.CastVoteResponse{}, ErrPollClosed
	}
	if actorID == "" {
		return models.CastVoteResponse{}, ErrNotEligible
	}

	role, err := e.participantRole(ctx, hangoutID, actorID)
	if err != nil {
		return models.CastVoteResponse{}, err
	}
	if role == "" && h.Privacy != models.PrivacyPublic {
		return models.CastVoteResponse{}, ErrNotEligible
	}

	if optionID == "" {
		return models.CastVoteResponse{}, ValidationError{Field: "option_id", Message: "option_id is required"}
	}
	var removed bool
	err = e.db.QueryRowContext(ctx, `
		SELECT removed FROM option WHERE id = $1 AND hangout_id = $2
	`, optionID, hangoutID).Scan(&removed)
	if err == sql.ErrNoRows {
		return models.CastVoteResponse{}, ValidationError{Field: "option_id", Message: "no such option"}
	}
	if err != nil {
		return models.CastVoteResponse{}, fmt.Errorf("load option: %w", err)
	}
	if removed {
		return models.CastVoteResponse{}, ErrOptionRemoved
	}

	now := nowUTC()
	if role == "" {
		_, err = e.db.ExecContext(ctx, `
			INSERT INTO participant (hangout_id, user_id, role, rsvp_status, joined_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hangout_id, user_id) DO NOTHING
		`, hangoutID, actorID, models.RoleMember, models.RSVPPending, now)
		if err != nil {
			return models.CastVoteResponse{}, fmt.Errorf("enroll voter: %w", err)
		}
	}

	_, err = e.db.ExecContext(ctx, `
		INSERT INTO ballot (hangout_id, voter_id, option_id, cast_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (hangout_id, voter_id) DO UPDATE SET
			option_id = excluded.option_id,
			updated_at = excluded.updated_at
	`, hangoutID, actorID, optionID, now)
	if err != nil {
		return models.CastVoteResponse{}, fmt.Errorf("upsert ballot: %w", err)
	}

	e.emit(Event{Type: EventVoteCast, HangoutID: hangoutID, ActorID: actorID, OptionID: optionID, At: now})

	result, err := e.evaluateAndMaybeConfirm(ctx, actorID, hangoutID, h.Config)
	if err != nil {
		return models.CastVoteResponse{}, err
	}

	ballot := models.Ballot{
		HangoutID: hangoutID,
		VoterID:   actorID,
		OptionID:  optionID,
		CastAt:    now,
		UpdatedAt: now,
	}
	return models.CastVoteResponse{Ballot: ballot, Result: result}, nil
}

// RetractVote removes the actor's ballot. Idempotent: retracting a ballot
// that does not exist is not an error. Like CastVote it re-evaluates
// afterwards - dropping a vote can break a tie and complete consensus.
func (e *Engine) RetractVote(ctx context.Context, actorID, hangoutID string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if h.Phase != models.PhasePolling {
		return ErrPollClosed
	}

	_, err = e.db.ExecContext(ctx, `
		DELETE FROM ballot WHERE hangout_id = $1 AND voter_id = $2
	`, hangoutID, actorID)
	if err != nil {
		return fmt.Errorf("delete ballot: %w", err)
	}

	return e.reevaluate(ctx, actorID, hangoutID)
}

// GetBallot returns the actor's current ballot, or ErrNoBallot when the
// actor has not voted.
func (e *Engine) GetBallot(ctx context.Context, actorID, hangoutID string) (models.Ballot, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return models.Ballot{}, err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return models.Ballot{}, err
	} else if !ok {
		return models.Ballot{}, ErrHangoutNotFound
	}

	var b models.Ballot
	err = e.db.QueryRowContext(ctx, `
		SELECT hangout_id, voter_id, option_id, cast_at, updated_at
		FROM ballot WHERE hangout_id = $1 AND voter_id = $2
	`, hangoutID, actorID).Scan(&b.HangoutID, &b.VoterID, &b.OptionID, &b.CastAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Ballot{}, ErrNoBallot
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("load ballot: %w", err)
	}
	return b, nil
}

// reevaluate re-runs the evaluator after a mutation that can shift the
// outcome, firing the confirm transition when consensus is reached.
func (e *Engine) reevaluate(ctx context.Context, actorID, hangoutID string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if h.Phase != models.PhasePolling {
		return nil
	}
	_, err = e.evaluateAndMaybeConfirm(ctx, actorID, hangoutID, h.Config)
	return err
}

// evaluateAndMaybeConfirm runs the pure evaluator against current store
// state and, when consensus is reached, applies the confirm transition.
// Evaluation is stateless and cheap, so running it redundantly under
// concurrency is fine; the compare-and-swap inside confirm guarantees the
// transition's side effects fire once.
func (e *Engine) evaluateAndMaybeConfirm(ctx context.Context, actorID, hangoutID string, cfg models.ConsensusConfig) (models.ConsensusResult, error) {
	options, err := e.loadOptions(ctx, hangoutID)
	if err != nil {
		return models.ConsensusResult{}, err
	}
	ballots, err := e.loadBallots(ctx, hangoutID)
	if err != nil {
		return models.ConsensusResult{}, err
	}
	participants, err := e.loadParticipants(ctx, hangoutID)
	if err != nil {
		return models.ConsensusResult{}, err
	}

	result := Evaluate(options, ballots, participants, cfg)
	if result.Reached {
		if err := e.confirm(ctx, actorID, hangoutID, *result.WinnerOptionID); err != nil {
			return models.ConsensusResult{}, err
		}
	}
	return result, nil
}
