// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/export"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

type ResultsHandler struct {
	ledger *ledger.Ledger
	cfg    cliparse.Config
}

func NewResultsHandler(l *ledger.Ledger, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{ledger: l, cfg: cfg}
}

// Status handles: status [json]
func (h *ResultsHandler) Status(w io.Writer, sess *models.Session, req *models.Request) {
	summary := h.ledger.Summary()

	switch req.Arg(0) {
	case "json":
		middleware.JSONResponse(w, summary)
	case "":
		middleware.TextResponse(w, "Election: %s | Voters: %s | Candidates: %s | Votes cast: %s",
			summary.Status,
			humanize.Comma(int64(summary.Voters)),
			humanize.Comma(int64(summary.Candidates)),
			humanize.Comma(int64(summary.VotesCast)),
		)
	default:
		middleware.ErrorResponse(w, middleware.KindUsage, "usage: status [json]")
	}
}

// Candidates handles: candidates
// Most recently added first.
func (h *ResultsHandler) Candidates(w io.Writer, sess *models.Session, req *models.Request) {
	candidates := h.ledger.Candidates()
	if len(candidates) == 0 {
		middleware.TextResponse(w, "No candidates found.")
		return
	}
	for _, c := range candidates {
		middleware.TextResponse(w, "ID: %d | Name: %s | Dept: %s | Votes: %d", c.ID, c.Name, c.Department, c.Votes)
	}
}

// Total handles: total
func (h *ResultsHandler) Total(w io.Writer, sess *models.Session, req *models.Request) {
	middleware.TextResponse(w, "Total votes cast: %s", humanize.Comma(int64(h.ledger.TotalVotes())))
}

// Tally handles: tally
func (h *ResultsHandler) Tally(w io.Writer, sess *models.Session, req *models.Request) {
	standings := h.ledger.Standings()
	if len(standings) == 0 {
		middleware.TextResponse(w, "No candidates found.")
		return
	}
	for _, e := range standings {
		middleware.TextResponse(w, "%s: %s (ID %d, %s) - %s votes",
			humanize.Ordinal(e.Rank), e.Name, e.CandidateID, e.Department, humanize.Comma(int64(e.Votes)))
	}
}

// Winner handles: winner
func (h *ResultsHandler) Winner(w io.Writer, sess *models.Session, req *models.Request) {
	c, err := h.ledger.DeclareWinner()
	if err != nil {
		ledgerError(w, req, err)
		return
	}
	middleware.TextResponse(w, "Winner: %s (ID %d) with %d votes.", c.Name, c.ID, c.Votes)
}

// Verify handles: verify
// Recounts from the vote log and reports what the last load repaired.
func (h *ResultsHandler) Verify(w io.Writer, sess *models.Session, req *models.Request) {
	if recon := h.ledger.Reconciliation(); recon.Changed() || recon.DanglingVotes > 0 {
		middleware.TextResponse(w, "Repaired on load: %d candidate counts, %d voter flags; %d votes for removed candidates",
			len(recon.CandidatesFixed), len(recon.VotersFixed), recon.DanglingVotes)
	}

	diffs := h.ledger.Verify()
	if len(diffs) == 0 {
		middleware.TextResponse(w, "Vote log and tallies agree.")
		return
	}
	for _, d := range diffs {
		middleware.TextResponse(w, "Candidate %d: stored %d, counted %d", d.CandidateID, d.Stored, d.Counted)
	}
}

// Export handles: export [path]
func (h *ResultsHandler) Export(w io.Writer, sess *models.Session, req *models.Request) {
	if len(req.Args) > 1 {
		middleware.ErrorResponse(w, middleware.KindUsage, "usage: export [path]")
		return
	}

	path := h.cfg.ExportPath
	if p := req.Arg(0); p != "" {
		path = p
	}

	if err := export.SaveResultsCSV(path, h.ledger.Candidates()); err != nil {
		slog.Error("export failed", "request_id", req.ID, "path", path, "error", err)
		middleware.ErrorResponse(w, middleware.KindInternal, "Export failed: "+err.Error())
		return
	}

	slog.Info("results exported", "path", path)
	middleware.TextResponse(w, "Results exported to %s", path)
}
