// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the shell commands for Quickly Vote.

# Route Registration

NewRouter creates a Router with every command wired to the ledger:

	r := router.NewRouter(l, cfg)
	r.Dispatch(w, &sess, []string{"candidate", "add", "Nadia", "CSE"})

Patterns are one or two words. When the first two tokens name a
registered pattern it wins over the one-word pattern.

# Commands

Public:

	help
	status [json]                  - Election status and counts
	candidates                     - List candidates
	register <id> <name> <secret>  - Register a student
	login <id> <secret>            - Voter login
	admin <user> <pass>            - Admin login
	logout

Voter (requires login):

	vote <candidateId>

Admin (requires admin login):

	candidate add <name> <dept>
	candidate remove <id>
	election start
	election stop
	total
	tally                          - Ranked standings
	winner
	verify                         - Recount from the vote log
	export [path]                  - Results CSV

# Handler Initialization

	voterHandler := handlers.NewVoterHandler(l)
	adminHandler := handlers.NewAdminHandler(l, cfg)
	resultsHandler := handlers.NewResultsHandler(l, cfg)

Every registered handler is wrapped with WithRequestID and WithLogging.
*/
package router
