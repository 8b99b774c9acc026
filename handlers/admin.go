// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"io"
	"log/slog"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

type AdminHandler struct {
	ledger *ledger.Ledger
	cfg    cliparse.Config
}

func NewAdminHandler(l *ledger.Ledger, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{ledger: l, cfg: cfg}
}

// Login handles: admin <user> <pass>
func (h *AdminHandler) Login(w io.Writer, sess *models.Session, req *models.Request) {
	if !needArgs(w, req, 2, "usage: admin <user> <pass>") {
		return
	}

	if err := auth.ValidateAdmin(req.Arg(0), req.Arg(1), h.cfg.AdminUser, h.cfg.AdminPass); err != nil {
		slog.Warn("admin login rejected", "request_id", req.ID)
		middleware.ErrorResponse(w, middleware.KindForbidden, "Invalid admin credentials.")
		return
	}

	sess.Clear()
	sess.Admin = true
	middleware.TextResponse(w, "Admin login successful.")
}

// AddCandidate handles: candidate add <name> <dept>
func (h *AdminHandler) AddCandidate(w io.Writer, sess *models.Session, req *models.Request) {
	if !needArgs(w, req, 2, "usage: candidate add <name> <dept>") {
		return
	}

	c, err := h.ledger.AddCandidate(req.Arg(0), req.Arg(1))
	if err != nil {
		ledgerError(w, req, err)
		return
	}

	middleware.TextResponse(w, "Candidate added with ID %d", c.ID)
}

// RemoveCandidate handles: candidate remove <id>
func (h *AdminHandler) RemoveCandidate(w io.Writer, sess *models.Session, req *models.Request) {
	id, ok := candidateID(w, req, "usage: candidate remove <id>")
	if !ok {
		return
	}

	if err := h.ledger.RemoveCandidate(id); err != nil {
		ledgerError(w, req, err)
		return
	}

	middleware.TextResponse(w, "Candidate removed.")
}

// StartElection handles: election start
func (h *AdminHandler) StartElection(w io.Writer, sess *models.Session, req *models.Request) {
	if err := h.ledger.Start(); err != nil {
		ledgerError(w, req, err)
		return
	}
	middleware.TextResponse(w, "Election started (open).")
}

// StopElection handles: election stop
func (h *AdminHandler) StopElection(w io.Writer, sess *models.Session, req *models.Request) {
	if err := h.ledger.Stop(); err != nil {
		ledgerError(w, req, err)
		return
	}
	middleware.TextResponse(w, "Election stopped (closed).")
}
