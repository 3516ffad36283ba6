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

// Phase transitions are compare-and-swap on the phase column: an UPDATE
// guarded by the expected source phase. A transition that finds the phase
// already moved treats the call as a no-op success, which makes every
// transition idempotent - two concurrent "consensus reached" evaluations
// cannot both fire confirmation side effects.

// casPhase applies from → to and reports whether this call won the swap.
func (e *Engine) casPhase(ctx context.Context, hangoutID, from, to string) (bool, error) {
	res, err := e.db.ExecContext(ctx, `
		UPDATE hangout SET phase = $1, updated_at = $2 WHERE id = $3 AND phase = $4
	`, to, nowUTC(), hangoutID, from)
	if err != nil {
		return false, fmt.Errorf("phase %s -> %s: %w", from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("phase %s -> %s: %w", from, to, err)
	}
	return n == 1, nil
}

// Publish moves a draft hangout into polling. Owner or co-host only, and
// the poll needs at least two live options to be worth voting on.
// Publishing an already-polling hangout is a no-op.
func (e *Engine) Publish(ctx context.Context, actorID, hangoutID string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if ok, err := e.CanModify(ctx, actorID, h, ActionPublish); err != nil {
		return err
	} else if !ok {
		return ErrForbidden
	}
	if h.Phase == models.PhasePolling {
		return nil
	}
	if h.Phase != models.PhaseDraft {
		return ErrPollClosed
	}

	live, err := e.ListLiveOptions(ctx, hangoutID)
	if err != nil {
		return err
	}
	if len(live) < 2 {
		return ValidationError{Field: "options", Message: "at least 2 live options required to publish"}
	}

	applied, err := e.casPhase(ctx, hangoutID, models.PhaseDraft, models.PhasePolling)
	if err != nil {
		return err
	}
	if applied {
		e.emit(Event{Type: EventPhaseChanged, HangoutID: hangoutID, ActorID: actorID,
			FromPhase: models.PhaseDraft, ToPhase: models.PhasePolling})
	}
	return nil
}

// confirm settles the poll on winnerID. Confirmation always opens RSVP
// collection immediately, so the swap lands on rsvp_collection and also
// records the winning option in the same statement. Only the caller that
// wins the swap emits ConsensusReached and PhaseChanged.
func (e *Engine) confirm(ctx context.Context, actorID, hangoutID, winnerID string) error {
	res, err := e.db.ExecContext(ctx, `
		UPDATE hangout SET phase = $1, winning_option_id = $2, updated_at = $3
		WHERE id = $4 AND phase = $5
	`, models.PhaseRSVPCollection, winnerID, nowUTC(), hangoutID, models.PhasePolling)
	if err != nil {
		return fmt.Errorf("confirm hangout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm hangout: %w", err)
	}
	if n == 0 {
		// Lost the swap or already settled; idempotent no-op.
		return nil
	}

	e.emit(Event{Type: EventConsensusReached, HangoutID: hangoutID, ActorID: actorID, OptionID: winnerID})
	e.emit(Event{Type: EventPhaseChanged, HangoutID: hangoutID, ActorID: actorID,
		FromPhase: models.PhasePolling, ToPhase: models.PhaseRSVPCollection, OptionID: winnerID})
	return nil
}

// ForceConfirm is the owner's manual override: settle the poll on any
// live option, regardless of the consensus threshold. Distinct from
// automatic consensus and always available while polling.
func (e *Engine) ForceConfirm(ctx context.Context, actorID, hangoutID, optionID string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if ok, err := e.CanModify(ctx, actorID, h, ActionForceConfirm); err != nil {
		return err
	} else if !ok {
		return ErrForbidden
	}
	if h.Phase != models.PhasePolling {
		return ErrPollClosed
	}

	var removed bool
	err = e.db.QueryRowContext(ctx, `
		SELECT removed FROM option WHERE id = $1 AND hangout_id = $2
	`, optionID, hangoutID).Scan(&removed)
	if err == sql.ErrNoRows {
		return ValidationError{Field: "option_id", Message: "no such option"}
	}
	if err != nil {
		return fmt.Errorf("load option: %w", err)
	}
	if removed {
		return ErrOptionRemoved
	}

	return e.confirm(ctx, actorID, hangoutID, optionID)
}

// Cancel retires the hangout from any non-terminal phase. Cancelling an
// already-cancelled hangout is a no-op; a completed one cannot be
// cancelled. The row is kept - RSVPs stay referencable.
func (e *Engine) Cancel(ctx context.Context, actorID, hangoutID string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if ok, err := e.CanModify(ctx, actorID, h, ActionCancel); err != nil {
		return err
	} else if !ok {
		return ErrForbidden
	}
	if h.Phase == models.PhaseCancelled {
		return nil
	}
	if h.Phase == models.PhaseCompleted {
		return ErrPhaseNotOpen
	}

	applied, err := e.casPhase(ctx, hangoutID, h.Phase, models.PhaseCancelled)
	if err != nil {
		return err
	}
	if applied {
		e.emit(Event{Type: EventPhaseChanged, HangoutID: hangoutID, ActorID: actorID,
			FromPhase: h.Phase, ToPhase: models.PhaseCancelled})
	}
	return nil
}

// Tick advances clock-driven transitions. A scheduler calls it
// periodically with the current time; the engine owns no timer of its
// own. Returns the number of transitions applied.
//
// Three sweeps:
//
//  1. polling hangouts past their voting deadline: confirm if consensus
//     holds, else apply the configured fallback (plurality leader, or
//     cancellation when there is none);
//  2. rsvp_collection hangouts whose start time has arrived → active;
//  3. active hangouts whose end time has passed → completed.
//
// Every sweep is CAS-guarded, so overlapping ticks are harmless.
func (e *Engine) Tick(ctx context.Context, now time.Time) (int, error) {
	transitions := 0

	expired, err := e.hangoutIDsWhere(ctx, `phase = 'polling' AND voting_deadline IS NOT NULL AND voting_deadline <= $1`, now)
	if err != nil {
		return transitions, err
	}
	for _, id := range expired {
		applied, err := e.expirePoll(ctx, id)
		if err != nil {
			return transitions, err
		}
		if applied {
			transitions++
		}
	}

	starting, err := e.hangoutIDsWhere(ctx, `phase = 'rsvp_collection' AND starts_at IS NOT NULL AND starts_at <= $1`, now)
	if err != nil {
		return transitions, err
	}
	for _, id := range starting {
		applied, err := e.casPhase(ctx, id, models.PhaseRSVPCollection, models.PhaseActive)
		if err != nil {
			return transitions, err
		}
		if applied {
			transitions++
			e.emit(Event{Type: EventPhaseChanged, HangoutID: id,
				FromPhase: models.PhaseRSVPCollection, ToPhase: models.PhaseActive})
		}
	}

	ending, err := e.hangoutIDsWhere(ctx, `phase = 'active' AND ends_at IS NOT NULL AND ends_at <= $1`, now)
	if err != nil {
		return transitions, err
	}
	for _, id := range ending {
		applied, err := e.casPhase(ctx, id, models.PhaseActive, models.PhaseCompleted)
		if err != nil {
			return transitions, err
		}
		if applied {
			transitions++
			e.emit(Event{Type: EventPhaseChanged, HangoutID: id,
				FromPhase: models.PhaseActive, ToPhase: models.PhaseCompleted})
		}
	}

	return transitions, nil
}

// expirePoll settles a poll whose voting deadline has passed. Consensus,
// if present, wins as usual. Otherwise the plurality fallback confirms a
// strict leader; a tie or an empty poll falls through to cancellation,
// as does the cancel fallback.
func (e *Engine) expirePoll(ctx context.Context, hangoutID string) (bool, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return false, err
	}
	if h.Phase != models.PhasePolling {
		return false, nil
	}

	options, err := e.loadOptions(ctx, hangoutID)
	if err != nil {
		return false, err
	}
	ballots, err := e.loadBallots(ctx, hangoutID)
	if err != nil {
		return false, err
	}
	participants, err := e.loadParticipants(ctx, hangoutID)
	if err != nil {
		return false, err
	}

	result := Evaluate(options, ballots, participants, h.Config)

	winner := ""
	if result.Reached {
		winner = *result.WinnerOptionID
	} else if h.Config.DeadlineFallback == models.FallbackPlurality &&
		result.WinnerOptionID != nil && !result.Tie {
		winner = *result.WinnerOptionID
	}

	if winner != "" {
		if err := e.confirm(ctx, "", hangoutID, winner); err != nil {
			return false, err
		}
		return true, nil
	}

	applied, err := e.casPhase(ctx, hangoutID, models.PhasePolling, models.PhaseCancelled)
	if err != nil {
		return false, err
	}
	if applied {
		e.emit(Event{Type: EventPhaseChanged, HangoutID: hangoutID,
			FromPhase: models.PhasePolling, ToPhase: models.PhaseCancelled})
	}
	return applied, nil
}

func (e *Engine) hangoutIDsWhere(ctx context.Context, cond string, args ...any) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT id FROM hangout WHERE `+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("scan hangouts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hangout id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
