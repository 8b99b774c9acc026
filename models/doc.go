// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain, request, and response types shared by the
ledger, the gateways, and the command shell.

# Domain Types

  - Voter: registered student with credential digest and voted flag
  - Candidate: id, name, department, vote count
  - VoteRecord: one cast vote (voter id, candidate id, second-precision time)
  - TallyEntry: ranked standings row
  - Discrepancy: stored count that disagrees with the vote log
  - Reconciliation: what Open repaired from the vote log

# Shell Types

  - Request: one parsed command (request id, verb, args)
  - Session: who is logged in to the shell
  - StatusResponse: status, voters, candidates, votes_cast
  - ErrorResponse: error, message

# Constants

Election status values:

	StatusOpen   = "open"
	StatusClosed = "closed"

Vote timestamps are written with TimestampLayout ("2006-01-02 15:04:05",
local time).
*/
package models
