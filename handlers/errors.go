// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// ledgerError maps a ledger error to a user-facing message
func ledgerError(w io.Writer, req *models.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrPersistence):
		slog.Error("persistence failure", "request_id", req.ID, "verb", req.Verb, "error", err)
		middleware.ErrorResponse(w, middleware.KindInternal, "Could not save changes; nothing was changed")
	case errors.Is(err, ledger.ErrDuplicateVoter):
		middleware.ErrorResponse(w, middleware.KindConflict, "Student ID already registered.")
	case errors.Is(err, ledger.ErrEmptyVoterID):
		middleware.ErrorResponse(w, middleware.KindUsage, "ID cannot be empty.")
	case errors.Is(err, ledger.ErrInvalidField):
		middleware.ErrorResponse(w, middleware.KindUsage, "Fields cannot contain commas or line breaks.")
	case errors.Is(err, ledger.ErrNotFound):
		middleware.ErrorResponse(w, middleware.KindNotFound, "Candidate not found.")
	case errors.Is(err, ledger.ErrElectionClosed):
		middleware.ErrorResponse(w, middleware.KindConflict, "Election is not active now.")
	case errors.Is(err, ledger.ErrAlreadyVoted):
		middleware.ErrorResponse(w, middleware.KindConflict, "You have already voted.")
	case errors.Is(err, ledger.ErrUnknownCandidate):
		middleware.ErrorResponse(w, middleware.KindNotFound, "Invalid candidate ID.")
	case errors.Is(err, ledger.ErrUnknownVoter):
		middleware.ErrorResponse(w, middleware.KindNotFound, "Student not registered. Register first.")
	case errors.Is(err, ledger.ErrBadCredential):
		middleware.ErrorResponse(w, middleware.KindForbidden, "Wrong password.")
	case errors.Is(err, ledger.ErrNoCandidates):
		middleware.ErrorResponse(w, middleware.KindNotFound, "No candidates.")
	default:
		slog.Error("unexpected error", "request_id", req.ID, "verb", req.Verb, "error", err)
		middleware.ErrorResponse(w, middleware.KindInternal, "Internal error")
	}
}

// needArgs writes a usage error unless req has exactly n arguments
func needArgs(w io.Writer, req *models.Request, n int, usage string) bool {
	if len(req.Args) != n {
		middleware.ErrorResponse(w, middleware.KindUsage, usage)
		return false
	}
	return true
}

// candidateID parses the first argument as a candidate id
func candidateID(w io.Writer, req *models.Request, usage string) (int, bool) {
	if !needArgs(w, req, 1, usage) {
		return 0, false
	}
	id, err := strconv.Atoi(req.Arg(0))
	if err != nil {
		middleware.ErrorResponse(w, middleware.KindUsage, "candidate id must be a number")
		return 0, false
	}
	return id, true
}
