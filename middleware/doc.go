// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides command middleware and response helpers for the
shell.

# Handlers

A HandlerFunc serves one parsed command:

	func(w io.Writer, sess *models.Session, req *models.Request)

# Request IDs and Logging

Wrap handlers so every command gets a uuid and a log line pair:

	h := middleware.WithRequestID(middleware.WithLogging(handler))

Logs command start (request_id, verb, argc) and completion (duration_ms).
Arguments are never logged.

# Access Control

	middleware.RequireAdmin(handler) - admin login required
	middleware.RequireVoter(handler) - voter login required

# Responses

	middleware.TextResponse(w, "Candidate added with ID %d", id)
	middleware.JSONResponse(w, summary)
	middleware.ErrorResponse(w, middleware.KindNotFound, "Candidate not found")
*/
package middleware
