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

type VotingHandler struct {
	eng *engine.Engine
}

func NewVotingHandler(eng *engine.Engine) *VotingHandler {
	return &VotingHandler{eng: eng}
}

// CastVote handles POST /hangouts/{id}/ballots
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.eng.CastVote(r.Context(), actorID, hangoutID, req.OptionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("ballot cast", "hangout_id", hangoutID, "voter", actorID,
		"option_id", req.OptionID, "consensus_reached", resp.Result.Reached)

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// RetractVote handles DELETE /hangouts/{id}/ballots
func (h *VotingHandler) RetractVote(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.eng.RetractVote(r.Context(), actorID, hangoutID); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("ballot retracted", "hangout_id", hangoutID, "voter", actorID)

	w.WriteHeader(http.StatusNoContent)
}

// GetMyBallot handles GET /hangouts/{id}/my-ballot
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")
	actorID, err := auth.RequireActor(r)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	ballot, err := h.eng.GetBallot(r.Context(), actorID, hangoutID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}

// GetResults handles GET /hangouts/{id}/results
//
// Tallies are live: this system converges in the open, so anyone who can
// view the hangout can watch consensus form.
func (h *VotingHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	hangoutID := r.PathValue("id")

	resp, err := h.eng.Results(r.Context(), auth.ActorID(r), hangoutID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
