// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/gatherly/auth"
	"github.com/danielhkuo/gatherly/engine"
	"github.com/danielhkuo/gatherly/middleware"
	"github.com/danielhkuo/gatherly/models"
)

// SocialHandler covers the roster and friendship surface the
// participation gate depends on.
type SocialHandler struct {
	eng *engine.Engine
}

func NewSocialHandler(eng *engine.Engine) *SocialHandler {
	return &SocialHandler{eng: eng}
}

// AddParticipant handles POST /hangouts/{id}/participants
func (h *SocialHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.AddParticipantRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.AddParticipant(r.Context(), actorID, hangoutID, req.UserID, req.Role); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("participant added", "hangout_id", hangoutID, "user_id", req.UserID, "role", req.Role)

	w.WriteHeader(http.StatusCreated)
}

// SetRole handles PUT /hangouts/{id}/participants/{userID}
func (h *SocialHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	userID := r.PathValue("userID")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.SetRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.SetParticipantRole(r.Context(), actorID, hangoutID, userID, req.Role); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("participant role set", "hangout_id", hangoutID, "user_id", userID, "role", req.Role)

	w.WriteHeader(http.StatusNoContent)
}

// ListParticipants handles GET /hangouts/{id}/participants
func (h *SocialHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")

	participants, err := h.eng.Participants(r.Context(), auth.ActorID(r), hangoutID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, participants)
}

// SetFriendship handles PUT /friendships
func (h *SocialHandler) SetFriendship(w http.ResponseWriter, r *http.Request) {
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.SetFriendshipRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.SetFriendship(r.Context(), actorID, req.UserID, req.Status); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("friendship set", "user_id", actorID, "friend_id", req.UserID, "status", req.Status)

	w.WriteHeader(http.StatusNoContent)
}

// SetRSVP handles PUT /hangouts/{id}/rsvp
func (h *SocialHandler) SetRSVP(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.SetRSVPRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.SetRSVP(r.Context(), actorID, hangoutID, req.Status); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("rsvp set", "hangout_id", hangoutID, "user_id", actorID, "status", req.Status)

	w.WriteHeader(http.StatusNoContent)
}

// GetRSVPSummary handles GET /hangouts/{id}/rsvps
func (h *SocialHandler) GetRSVPSummary(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")

	counts, err := h.eng.RSVPSummary(r.Context(), auth.ActorID(r), hangoutID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RSVPSummaryResponse{Counts: counts})
}
