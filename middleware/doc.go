// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Request Logging

WithLogging wraps a handler with structured start/finish logging,
including the acting user and request duration:

	mux.HandleFunc("POST /hangouts", middleware.WithLogging(h.CreateHangout))

# JSON Helpers

JSONResponse and ErrorResponse write JSON bodies with the right
Content-Type; ParseJSONBody decodes a request body:

	var req models.CreateHangoutRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# CORS

CORS reflects the request origin and handles preflight, allowing the
web frontend to pass the X-Actor-ID header.
*/
package middleware
