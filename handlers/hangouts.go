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

type HangoutHandler struct {
	eng *engine.Engine
}

func NewHangoutHandler(eng *engine.Engine) *HangoutHandler {
	return &HangoutHandler{eng: eng}
}

// CreateHangout handles POST /hangouts
func (h *HangoutHandler) CreateHangout(w http.ResponseWriter, r *http.Request) {
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.CreateHangoutRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hangout, err := h.eng.CreateHangout(r.Context(), actorID, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("hangout created", "hangout_id", hangout.ID, "owner", actorID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateHangoutResponse{
		HangoutID: hangout.ID,
	})
}

// GetHangout handles GET /hangouts/{id}
func (h *HangoutHandler) GetHangout(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	if hangoutID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "hangout id is required")
		return
	}

	detail, err := h.eng.GetHangout(r.Context(), auth.ActorID(r), hangoutID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// AddOption handles POST /hangouts/{id}/options
func (h *HangoutHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.AddOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	opt, err := h.eng.AddOption(r.Context(), actorID, hangoutID, req.Payload)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("option added", "hangout_id", hangoutID, "option_id", opt.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddOptionResponse{
		OptionID: opt.ID,
	})
}

// RemoveOption handles DELETE /hangouts/{id}/options/{optionID}
func (h *HangoutHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	optionID := r.PathValue("optionID")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.eng.RemoveOption(r.Context(), actorID, hangoutID, optionID); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("option removed", "hangout_id", hangoutID, "option_id", optionID)

	w.WriteHeader(http.StatusNoContent)
}

// Publish handles POST /hangouts/{id}/publish
func (h *HangoutHandler) Publish(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.eng.Publish(r.Context(), actorID, hangoutID); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("hangout published", "hangout_id", hangoutID)

	w.WriteHeader(http.StatusNoContent)
}

// ForceConfirm handles POST /hangouts/{id}/confirm
func (h *HangoutHandler) ForceConfirm(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.ForceConfirmRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.eng.ForceConfirm(r.Context(), actorID, hangoutID, req.OptionID); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("hangout force-confirmed", "hangout_id", hangoutID, "option_id", req.OptionID)

	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles POST /hangouts/{id}/cancel
func (h *HangoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.eng.Cancel(r.Context(), actorID, hangoutID); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("hangout cancelled", "hangout_id", hangoutID)

	w.WriteHeader(http.StatusNoContent)
}
