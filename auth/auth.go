// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"net/http"
	"strings"
)

const actorHeader = "X-Actor-ID"

var ErrMissingActor = errors.New("actor identity required")

// ActorID extracts the caller's identity from the request. The identity
// provider in front of this service is trusted to have authenticated the
// header; the engine only ever sees the resulting opaque id.
func ActorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(actorHeader))
}

// RequireActor is ActorID for endpoints that cannot proceed anonymously.
func RequireActor(r *http.Request) (string, error) {
	id := ActorID(r)
	if id == "" {
		return "", ErrMissingActor
	}
	if !ValidActorID(id) {
		return "", ErrMissingActor
	}
	return id, nil
}

// ValidActorID rejects ids that are empty, oversized, or contain
// whitespace/control characters. Identities are opaque, but garbage in
// the header should fail fast rather than become a participant row.
func ValidActorID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}
	return true
}
