// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth extracts caller identity from HTTP requests.

Gatherly sits behind an identity provider that authenticates requests
and forwards the caller's id in the X-Actor-ID header. This package is
the only place that header is read:

	actorID, err := auth.RequireActor(r)

Endpoints that tolerate anonymous callers (e.g. viewing a public
hangout) use ActorID, which returns "" when the header is absent.

No session state, tokens, or cryptography live here - authorization
decisions belong to the engine's participation gate, which receives the
actor id as an explicit parameter.
*/
package auth
