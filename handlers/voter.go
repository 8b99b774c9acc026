// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

type VoterHandler struct {
	ledger *ledger.Ledger
}

func NewVoterHandler(l *ledger.Ledger) *VoterHandler {
	return &VoterHandler{ledger: l}
}

// Register handles: register <id> <name> <secret>
func (h *VoterHandler) Register(w io.Writer, sess *models.Session, req *models.Request) {
	if !needArgs(w, req, 3, "usage: register <id> <name> <secret>") {
		return
	}

	if _, err := h.ledger.RegisterVoter(req.Arg(0), req.Arg(1), req.Arg(2)); err != nil {
		ledgerError(w, req, err)
		return
	}

	middleware.TextResponse(w, "Registration successful. You can now login to vote if election is active.")
}

// Login handles: login <id> <secret>
// A voter login replaces any admin login.
func (h *VoterHandler) Login(w io.Writer, sess *models.Session, req *models.Request) {
	if !needArgs(w, req, 2, "usage: login <id> <secret>") {
		return
	}

	v, err := h.ledger.Authenticate(req.Arg(0), req.Arg(1))
	if err != nil {
		ledgerError(w, req, err)
		return
	}

	sess.Clear()
	sess.VoterID = v.ID

	middleware.TextResponse(w, "Welcome, %s.", v.Name)
	if v.HasVoted {
		middleware.TextResponse(w, "You have already voted.")
	}
}

// Logout handles: logout (voters and admins)
func (h *VoterHandler) Logout(w io.Writer, sess *models.Session, req *models.Request) {
	if sess.VoterID == "" && !sess.Admin {
		middleware.TextResponse(w, "Not logged in.")
		return
	}
	sess.Clear()
	middleware.TextResponse(w, "Logged out.")
}

// Vote handles: vote <candidateId>
func (h *VoterHandler) Vote(w io.Writer, sess *models.Session, req *models.Request) {
	cid, ok := candidateID(w, req, "usage: vote <candidateId>")
	if !ok {
		return
	}

	rec, err := h.ledger.CastVote(sess.VoterID, cid)
	if err != nil && !errors.Is(err, ledger.ErrPartialFlush) {
		ledgerError(w, req, err)
		return
	}
	if err != nil {
		// The vote log has it; the tally files are rebuilt on the next start.
		slog.Warn("vote recorded with partial flush", "request_id", req.ID, "error", err)
	}

	name := "candidate " + req.Arg(0)
	if c, ok := h.ledger.Candidate(cid); ok {
		name = c.Name
	}
	middleware.TextResponse(w, "Vote cast successfully for %s (recorded %s).", name, humanize.Time(rec.CastAt))
}
