// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"log/slog"
	"time"
)

// Event type constants
const (
	EventVoteCast         = "vote_cast"
	EventConsensusReached = "consensus_reached"
	EventPhaseChanged     = "phase_changed"
)

// Event is a logical notification emitted by the engine. A separate
// dispatcher may turn these into push/email/in-app notices.
type Event struct {
	Type      string
	HangoutID string
	ActorID   string
	FromPhase string
	ToPhase   string
	OptionID  string
	At        time.Time
}

// Notifier receives engine events. Implementations must not block: the
// engine calls Publish synchronously inside state transitions, and a
// delivery failure must never fail the transition. Anything slow or
// fallible belongs behind the implementation's own queue.
type Notifier interface {
	Publish(ev Event)
}

// LogNotifier writes events to slog. It is the default dispatcher when
// no external one is wired in.
type LogNotifier struct{}

func (LogNotifier) Publish(ev Event) {
	slog.Info("event",
		"type", ev.Type,
		"hangout_id", ev.HangoutID,
		"actor_id", ev.ActorID,
		"from_phase", ev.FromPhase,
		"to_phase", ev.ToPhase,
		"option_id", ev.OptionID,
	)
}

// emit publishes an event, swallowing notifier panics. Notification
// failure is non-fatal to the surrounding transition.
func (e *Engine) emit(ev Event) {
	if e.notifier == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("notifier panicked", "type", ev.Type, "hangout_id", ev.HangoutID, "panic", r)
		}
	}()
	e.notifier.Publish(ev)
}
