// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"fmt"

	"github.com/danielhkuo/gatherly/models"
)

// Structural actions checked by CanModify.
const (
	ActionAddOption    = "add_option"
	ActionRemoveOption = "remove_option"
	ActionPublish      = "publish"
	ActionForceConfirm = "force_confirm"
	ActionCancel       = "cancel"
	ActionManageRoster = "manage_roster"
)

// CanView reports whether the actor may see the hangout at all.
//
//	public       → always
//	friends_only → owner, participants, or an active friend of the owner
//	private      → participants only
func (e *Engine) CanView(ctx context.Context, actorID string, h models.Hangout) (bool, error) {
	if h.Privacy == models.PrivacyPublic {
		return true, nil
	}
	if actorID == "" {
		return false, nil
	}
	if actorID == h.OwnerID {
		return true, nil
	}

	role, err := e.participantRole(ctx, h.ID, actorID)
	if err != nil {
		return false, err
	}
	if role != "" {
		return true, nil
	}

	if h.Privacy == models.PrivacyFriendsOnly {
		return e.friends(ctx, h.OwnerID, actorID)
	}
	return false, nil
}

// CanVote reports whether the actor may cast a ballot right now: the
// hangout must be visible, in the polling phase, and either public or one
// the actor participates in.
func (e *Engine) CanVote(ctx context.Context, actorID string, h models.Hangout) (bool, error) {
	ok, err := e.CanView(ctx, actorID, h)
	if err != nil || !ok {
		return false, err
	}
	if h.Phase != models.PhasePolling {
		return false, nil
	}
	if h.Privacy == models.PrivacyPublic {
		return actorID != "", nil
	}
	role, err := e.participantRole(ctx, h.ID, actorID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

// CanModify reports whether the actor may perform a structural action.
// Adding an option is the one action members can hold, and only when the
// hangout's configuration allows contributed options.
func (e *Engine) CanModify(ctx context.Context, actorID string, h models.Hangout, action string) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	role, err := e.participantRole(ctx, h.ID, actorID)
	if err != nil {
		return false, err
	}

	host := role == models.RoleOwner || role == models.RoleCoHost
	if host {
		return true, nil
	}

	if action == ActionAddOption {
		return role != "" && h.Config.AllowMemberOptions, nil
	}
	return false, nil
}

// friends reports whether a and b have an active friendship. The store
// does not guarantee a canonical direction - a row may exist as (a, b) or
// (b, a) - so both are consulted, and either active row is sufficient. A
// blocked row in either direction wins over an active one.
func (e *Engine) friends(ctx context.Context, a, b string) (bool, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT status FROM friendship
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`, a, b)
	if err != nil {
		return false, fmt.Errorf("load friendship: %w", err)
	}
	defer rows.Close()

	active := false
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return false, fmt.Errorf("scan friendship: %w", err)
		}
		if status == models.FriendshipBlocked {
			return false, nil
		}
		if status == models.FriendshipActive {
			active = true
		}
	}
	return active, rows.Err()
}

// SetFriendship records the actor's relation to another user, replacing
// any prior row in the actor's direction.
func (e *Engine) SetFriendship(ctx context.Context, actorID, otherID, status string) error {
	if actorID == "" || otherID == "" || actorID == otherID {
		return ValidationError{Field: "user_id", Message: "two distinct users required"}
	}
	if status != models.FriendshipActive && status != models.FriendshipBlocked {
		return ValidationError{Field: "status", Message: "must be active or blocked"}
	}

	_, err := e.db.ExecContext(ctx, `
		INSERT INTO friendship (user_id, friend_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, friend_id) DO UPDATE SET status = excluded.status
	`, actorID, otherID, status, nowUTC())
	if err != nil {
		return fmt.Errorf("save friendship: %w", err)
	}
	return nil
}
