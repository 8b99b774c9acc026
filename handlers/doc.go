// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the shell command handlers for Quickly Vote.

# Handler Types

Each handler is a struct holding the ledger (and config where needed):

  - VoterHandler: registration, voter login and logout, casting a vote
  - AdminHandler: admin login, candidate management, election start and stop
  - ResultsHandler: status, candidate list, totals, standings, winner,
    recount and CSV export

Handlers are created via constructor functions:

	adminHandler := handlers.NewAdminHandler(l, cfg)

# Errors

Ledger errors are mapped to one user-facing line each, for example
ledger.ErrAlreadyVoted becomes "You have already voted." Persistence
failures are logged with slog and reported as internal errors.

A vote that reached the vote log but whose tally files could not be
rewritten is reported as cast; the files are repaired on the next start.

# Output

Counts go through go-humanize: totals use Comma, standings use Ordinal
ranks, and vote receipts show a relative time.
*/
package handlers
