// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/gatherly/models"
)

// CreateHangout creates a new hangout in the draft phase with the actor
// as owner. The consensus configuration is required in full; there are no
// implicit defaults to fall back on.
func (e *Engine) CreateHangout(ctx context.Context, actorID string, req models.CreateHangoutRequest) (models.Hangout, error) {
	if actorID == "" {
		return models.Hangout{}, ValidationError{Field: "actor", Message: "actor identity required"}
	}
	if req.Title == "" {
		return models.Hangout{}, ValidationError{Field: "title", Message: "title is required"}
	}
	if !models.ValidPrivacy(req.Privacy) {
		return models.Hangout{}, ValidationError{Field: "privacy", Message: "must be public, friends_only, or private"}
	}
	if err := validateConfig(req.Config); err != nil {
		return models.Hangout{}, err
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return models.Hangout{}, ValidationError{Field: "ends_at", Message: "must be after starts_at"}
	}

	now := nowUTC()
	h := models.Hangout{
		ID:             uuid.New().String(),
		Title:          req.Title,
		Description:    req.Description,
		OwnerID:        actorID,
		Privacy:        req.Privacy,
		Phase:          models.PhaseDraft,
		Config:         req.Config,
		VotingDeadline: req.VotingDeadline,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Hangout{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO hangout (id, title, description, owner_id, privacy, phase,
		                     consensus_threshold, minimum_participants, require_mandatory_votes,
		                     deadline_fallback, allow_member_options,
		                     voting_deadline, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, h.ID, h.Title, h.Description, h.OwnerID, h.Privacy, h.Phase,
		h.Config.Threshold, h.Config.MinimumParticipants, h.Config.RequireMandatoryVotes,
		h.Config.DeadlineFallback, h.Config.AllowMemberOptions,
		h.VotingDeadline, h.StartsAt, h.EndsAt, now, now)
	if err != nil {
		return models.Hangout{}, fmt.Errorf("insert hangout: %w", err)
	}

	// The owner is always a participant.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO participant (hangout_id, user_id, role, rsvp_status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, h.ID, actorID, models.RoleOwner, models.RSVPPending, now)
	if err != nil {
		return models.Hangout{}, fmt.Errorf("insert owner participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Hangout{}, fmt.Errorf("commit hangout: %w", err)
	}
	return h, nil
}

func validateConfig(cfg models.ConsensusConfig) error {
	if cfg.Threshold <= 0 || cfg.Threshold > 100 {
		return ValidationError{Field: "config.threshold", Message: "must be in (0, 100]"}
	}
	if cfg.MinimumParticipants < 1 {
		return ValidationError{Field: "config.minimum_participants", Message: "must be at least 1"}
	}
	if cfg.DeadlineFallback != models.FallbackPlurality && cfg.DeadlineFallback != models.FallbackCancel {
		return ValidationError{Field: "config.deadline_fallback", Message: "must be plurality or cancel"}
	}
	return nil
}

// GetHangout returns the hangout and its live options if the actor may
// view it. Invisible hangouts are indistinguishable from missing ones.
func (e *Engine) GetHangout(ctx context.Context, actorID, hangoutID string) (models.HangoutDetailResponse, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return models.HangoutDetailResponse{}, err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return models.HangoutDetailResponse{}, err
	} else if !ok {
		return models.HangoutDetailResponse{}, ErrHangoutNotFound
	}

	options, err := e.ListLiveOptions(ctx, hangoutID)
	if err != nil {
		return models.HangoutDetailResponse{}, err
	}
	return models.HangoutDetailResponse{Hangout: h, Options: options}, nil
}

// AddParticipant adds a user to the hangout roster. Owner/co-host only.
// Re-adding an existing participant is a no-op that preserves their
// current role and RSVP.
func (e *Engine) AddParticipant(ctx context.Context, actorID, hangoutID, userID, role string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if ok, err := e.CanModify(ctx, actorID, h, ActionManageRoster); err != nil {
		return err
	} else if !ok {
		return ErrForbidden
	}

	if userID == "" {
		return ValidationError{Field: "user_id", Message: "user_id is required"}
	}
	if !models.ValidRole(role) {
		return ValidationError{Field: "role", Message: "unknown role"}
	}
	if role == models.RoleOwner {
		// Role owner is unique per hangout and assigned at creation.
		return ValidationError{Field: "role", Message: "a hangout has exactly one owner"}
	}
	if models.TerminalPhase(h.Phase) {
		return ErrPhaseNotOpen
	}

	_, err = e.db.ExecContext(ctx, `
		INSERT INTO participant (hangout_id, user_id, role, rsvp_status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hangout_id, user_id) DO NOTHING
	`, hangoutID, userID, role, models.RSVPPending, nowUTC())
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// SetParticipantRole changes a participant's role, e.g. promoting to
// co-host or toggling mandatory status. The owner's role is immutable.
//
// Demoting a mandatory participant re-evaluates the poll: their missing
// vote may have been the only thing blocking consensus.
func (e *Engine) SetParticipantRole(ctx context.Context, actorID, hangoutID, userID, role string) error {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return err
	} else if !ok {
		return ErrHangoutNotFound
	}
	if ok, err := e.CanModify(ctx, actorID, h, ActionManageRoster); err != nil {
		return err
	} else if !ok {
		return ErrForbidden
	}

	if !models.ValidRole(role) || role == models.RoleOwner {
		return ValidationError{Field: "role", Message: "unknown or reserved role"}
	}
	if userID == h.OwnerID {
		return ValidationError{Field: "user_id", Message: "the owner's role cannot change"}
	}

	res, err := e.db.ExecContext(ctx, `
		UPDATE participant SET role = $1
		WHERE hangout_id = $2 AND user_id = $3 AND role <> 'owner'
	`, role, hangoutID, userID)
	if err != nil {
		return fmt.Errorf("update participant role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ValidationError{Field: "user_id", Message: "not a participant"}
	}

	if h.Phase == models.PhasePolling {
		return e.reevaluate(ctx, actorID, hangoutID)
	}
	return nil
}

// Participants lists the hangout roster for anyone who can view it.
func (e *Engine) Participants(ctx context.Context, actorID, hangoutID string) ([]models.Participant, error) {
	h, err := e.loadHangout(ctx, hangoutID)
	if err != nil {
		return nil, err
	}
	if ok, err := e.CanView(ctx, actorID, h); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrHangoutNotFound
	}
	return e.loadParticipants(ctx, hangoutID)
}
