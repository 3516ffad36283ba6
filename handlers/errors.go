// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/gatherly/auth"
	"github.com/danielhkuo/gatherly/engine"
	"github.com/danielhkuo/gatherly/middleware"
)

// writeEngineError maps engine errors onto HTTP statuses. Expected
// conditions carry their own user-facing message; only infrastructure
// failures are logged as errors and hidden behind a generic response.
func writeEngineError(w http.ResponseWriter, err error) {
	var ve engine.ValidationError

	switch {
	case errors.Is(err, auth.ErrMissingActor):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Actor-ID header required")
	case errors.Is(err, engine.ErrHangoutNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Hangout not found")
	case errors.Is(err, engine.ErrNoBallot):
		middleware.ErrorResponse(w, http.StatusNotFound, "No ballot cast")
	case errors.Is(err, engine.ErrNotEligible),
		errors.Is(err, engine.ErrForbidden),
		errors.Is(err, engine.ErrOptionAdditionDisabled):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrPollClosed),
		errors.Is(err, engine.ErrPhaseNotOpen),
		errors.Is(err, engine.ErrOptionRemoved),
		errors.Is(err, engine.ErrOptionInUse):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.As(err, &ve):
		middleware.ErrorResponse(w, http.StatusBadRequest, ve.Error())
	default:
		slog.Error("engine operation failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
