// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"fmt"

	"github.com/danielhkuo/gatherly/models"
)

// SetRSVP records the actor's attendance intent. Open only while the
// hangout is collecting RSVPs or already underway.
func (e *Engine) SetRSVP(ctx context.Context, actorID, hangoutID, status string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if h.Phase != models.PhaseRSVPCollection && h.Phase != models.PhaseActive {
		return ErrPhaseNotOpen
	}
	if !models.ValidRSVPStatus(status) {
		return ValidationError{Field: "status", Message: "must be yes, no, or maybe"}
	}

	res, err := e.db.ExecContext(ctx, `
		UPDATE participant SET rsvp_status = $1
		WHERE hangout_id = $2 AND user_id = $3
	`, status, hangoutID, actorID)
	if err != nil {
		return fmt.Errorf("update rsvp: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotEligible
	}
	return nil
}

// RSVPSummary returns counts by RSVP status, recomputed on read. No
// cached counters to go stale - the same anti-staleness rule as the
// consensus evaluator.
func (e *Engine) RSVPSummary(ctx context.Context, actorID, hangoutID string) (map[string]int, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrHangoutNotFound
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT rsvp_status, COUNT(*) FROM participant
		WHERE hangout_id = $1
		GROUP BY rsvp_status
	`, hangoutID)
	if err != nil {
		return nil, fmt.Errorf("summarize rsvps: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{
		models.RSVPPending: 0,
		models.RSVPYes:     0,
		models.RSVPNo:      0,
		models.RSVPMaybe:   0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan rsvp count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
