// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/gatherly/engine"
	"github.com/danielhkuo/gatherly/middleware"
	"github.com/danielhkuo/gatherly/models"
)

// ClockHandler exposes the engine's clock trigger. The in-process
// scheduler calls engine.Tick directly; this endpoint exists for external
// schedulers (cron, k8s CronJob) and for operators nudging a stuck sweep.
type ClockHandler struct {
	eng *engine.Engine
}

func NewClockHandler(eng *engine.Engine) *ClockHandler {
	return &ClockHandler{eng: eng}
}

// Tick handles POST /tick
func (h *ClockHandler) Tick(w http.ResponseWriter, r *http.Request) {
	n, err := h.eng.Tick(r.Context(), time.Now().UTC())
	if err != nil {
		slog.Error("tick failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Tick failed")
		return
	}

	if n > 0 {
		slog.Info("tick applied transitions", "count", n)
	}

	middleware.JSONResponse(w, http.StatusOK, models.TickResponse{Transitions: n})
}
