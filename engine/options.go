// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/gatherly/models"
)

// AddOption registers a candidate choice. Allowed while the hangout is in
// draft or polling; afterwards the decision is settled and the registry
// is closed. Hosts can always contribute; other participants only when
// the configuration allows it.
func (e *Engine) AddOption(ctx context.Context, actorID, hangoutID string, payload json.RawMessage) (models.Option, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return models.Option{}, err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return models.Option{}, err
	} else if !ok {
		return models.Option{}, ErrHangoutNotFound
	}
	if h.Phase != models.PhaseDraft && h.Phase != models.PhasePolling {
		return models.Option{}, ErrPollClosed
	}
	if ok, err := e.CanModify(ctx, actorID, h, ActionAddOption); err != nil {
		return models.Option{}, err
	} else if !ok {
		return models.Option{}, ErrOptionAdditionDisabled
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return models.Option{}, ValidationError{Field: "payload", Message: "payload must be a JSON value"}
	}

	opt := models.Option{
		ID:            uuid.New().String(),
		HangoutID:     hangoutID,
		Payload:       payload,
		ContributorID: actorID,
		CreatedAt:     nowUTC(),
	}

	// Position is assigned inside the insert so listing order matches
	// insertion order without a separate counter.
	_, err = e.db.ExecContext(ctx, `
		INSERT INTO option (id, hangout_id, payload, contributor_id, position, removed, created_at)
		VALUES ($1, $2, $3, $4,
		        (SELECT COALESCE(MAX(position), 0) + 1 FROM option WHERE hangout_id = $2),
		        FALSE, $5)
	`, opt.ID, opt.HangoutID, string(opt.Payload), opt.ContributorID, opt.CreatedAt)
	if err != nil {
		return models.Option{}, fmt.Errorf("insert option: %w", err)
	}

	err = e.db.QueryRowContext(ctx, `
		SELECT position FROM option WHERE id = $1
	`, opt.ID).Scan(&opt.Position)
	if err != nil {
		return models.Option{}, fmt.Errorf("read option position: %w", err)
	}
	return opt, nil
}

// RemoveOption soft-removes an option: the row stays so existing ballots
// remain auditable, but it drops out of listings and tallies. The
// contributor may retract their own option; hosts may remove any.
//
// Removal is rejected with ErrOptionInUse when it would leave fewer than
// two live options on a poll that already has ballots - collapsing an
// in-flight poll to a single choice is never done silently.
func (e *Engine) RemoveOption(ctx context.Context, actorID, hangoutID, optionID string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if h.Phase != models.PhaseDraft && h.Phase != models.PhasePolling {
		return ErrPollClosed
	}

	var contributorID string
	var removed bool
	err = e.db.QueryRowContext(ctx, `
		SELECT contributor_id, removed FROM option WHERE id = $1 AND hangout_id = $2
	`, optionID, hangoutID).Scan(&contributorID, &removed)
	if err == sql.ErrNoRows {
		return ValidationError{Field: "option_id", Message: "no such option"}
	}
	if err != nil {
		return fmt.Errorf("load option: %w", err)
	}
	if removed {
		// Already removed; removal is idempotent.
		return nil
	}

	if contributorID != actorID {
		if ok, err := e.CanModify(ctx, actorID, h, ActionRemoveOption); err != nil {
			return err
		} else if !ok {
			return ErrForbidden
		}
	}

	if h.Phase == models.PhasePolling {
		var liveCount, ballotCount int
		err = e.db.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM option WHERE hangout_id = $1 AND removed = FALSE),
			       (SELECT COUNT(*) FROM ballot WHERE hangout_id = $1)
		`, hangoutID).Scan(&liveCount, &ballotCount)
		if err != nil {
			return fmt.Errorf("count live options: %w", err)
		}
		if liveCount <= 2 && ballotCount > 0 {
			return ErrOptionInUse
		}
	}

	_, err = e.db.ExecContext(ctx, `
		UPDATE option SET removed = TRUE WHERE id = $1
	`, optionID)
	if err != nil {
		return fmt.Errorf("remove option: %w", err)
	}

	// A removed option's ballots leave the tally, which can hand the
	// remaining leader a strict majority.
	if h.Phase == models.PhasePolling {
		return e.reevaluate(ctx, actorID, hangoutID)
	}
	return nil
}

// ListLiveOptions returns the hangout's non-removed options in insertion
// order.
func (e *Engine) ListLiveOptions(ctx context.Context, hangoutID string) ([]models.Option, error) {
	options, err := e.loadOptions(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	live := make([]models.Option, 0, len(options))
	for _, opt := range options {
		if !opt.Removed {
			live = append(live, opt)
		}
	}
	return live, nil
}
