// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"errors"
	"fmt"
)

// Expected, recoverable conditions. Handlers surface these directly to the
// caller; none of them are logged as system errors.
var (
	// ErrHangoutNotFound covers both missing rows and rows the actor may
	// not view, so privacy does not leak existence.
	ErrHangoutNotFound = errors.New("hangout not found")

	// ErrNotEligible means the actor may view the hangout but is not
	// allowed to vote on it.
	ErrNotEligible = errors.New("not eligible to vote on this hangout")

	// ErrForbidden means the actor lacks the role a structural action
	// requires (owner or co-host).
	ErrForbidden = errors.New("action requires owner or co-host")

	// ErrPollClosed means the poll is not accepting votes or option
	// changes in its current phase. This is an expected race: two users
	// competing to be the vote that tips consensus.
	ErrPollClosed = errors.New("this decision is already settled or not yet open")

	// ErrPhaseNotOpen means the hangout's phase does not permit the
	// requested non-poll action (RSVPs, cancellation of a completed
	// hangout).
	ErrPhaseNotOpen = errors.New("hangout phase does not allow this action")

	// ErrOptionRemoved means the target option has been soft-removed.
	ErrOptionRemoved = errors.New("option has been removed")

	// ErrOptionInUse means removing the option would collapse the poll
	// below two live choices while ballots are outstanding.
	ErrOptionInUse = errors.New("option cannot be removed while the poll depends on it")

	// ErrOptionAdditionDisabled means the hangout's configuration forbids
	// participant-contributed options.
	ErrOptionAdditionDisabled = errors.New("only the owner or a co-host may add options")

	// ErrNoBallot means the actor has no ballot on the poll.
	ErrNoBallot = errors.New("no ballot cast")
)

// ValidationError reports malformed input with a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsExpected reports whether err is one of the engine's expected
// conditions, as opposed to an infrastructure failure.
func IsExpected(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	for _, known := range []error{
		ErrHangoutNotFound, ErrNotEligible, ErrForbidden, ErrPollClosed,
		ErrPhaseNotOpen, ErrOptionRemoved, ErrOptionInUse, ErrOptionAdditionDisabled,
		ErrNoBallot,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
