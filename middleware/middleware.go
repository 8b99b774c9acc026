// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/models"
)

// HandlerFunc serves one shell command
type HandlerFunc func(w io.Writer, sess *models.Session, req *models.Request)

// Error kinds used in ErrorResponse
const (
	KindUsage     = "usage"
	KindForbidden = "forbidden"
	KindNotFound  = "not_found"
	KindConflict  = "conflict"
	KindInternal  = "internal"
)

// WithRequestID assigns a fresh request id unless one is already set
func WithRequestID(next HandlerFunc) HandlerFunc {
	return func(w io.Writer, sess *models.Session, req *models.Request) {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		next(w, sess, req)
	}
}

// WithLogging wraps a handler with command logging. Arguments are not
// logged since they may carry secrets.
func WithLogging(next HandlerFunc) HandlerFunc {
	return func(w io.Writer, sess *models.Session, req *models.Request) {
		start := time.Now()

		slog.Info("command started",
			"request_id", req.ID,
			"verb", req.Verb,
			"argc", len(req.Args),
		)

		next(w, sess, req)

		duration := time.Since(start)
		slog.Info("command completed",
			"request_id", req.ID,
			"verb", req.Verb,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// RequireAdmin rejects the command unless the session is an admin login
func RequireAdmin(next HandlerFunc) HandlerFunc {
	return func(w io.Writer, sess *models.Session, req *models.Request) {
		if !sess.Admin {
			ErrorResponse(w, KindForbidden, "admin login required")
			return
		}
		next(w, sess, req)
	}
}

// RequireVoter rejects the command unless a voter is logged in
func RequireVoter(next HandlerFunc) HandlerFunc {
	return func(w io.Writer, sess *models.Session, req *models.Request) {
		if sess.VoterID == "" {
			ErrorResponse(w, KindForbidden, "voter login required")
			return
		}
		next(w, sess, req)
	}
}

// TextResponse writes one line of text
func TextResponse(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format+"\n", args...); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// JSONResponse writes data as indented JSON
func JSONResponse(w io.Writer, data any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes an error line
func ErrorResponse(w io.Writer, kind, message string) {
	resp := models.ErrorResponse{Error: kind, Message: message}
	TextResponse(w, "error (%s): %s", resp.Error, resp.Message)
}
