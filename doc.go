// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for Quickly Vote.

Quickly Vote is a single-process student election ledger. Admins manage
candidates and open or close the election; registered students log in and
cast exactly one vote each. Every change is flushed to disk before it is
reported as done.

# Starting the Shell

The admin password is required, from the environment, a .env file, or a flag:

	ADMIN_PASS=... go run .

Or with flags:

	go run . -data ./election -admin-user nub -admin-pass nub

Commands are read from stdin, one per line. Quote arguments that contain
spaces:

	candidate add "Nadia Islam" CSE

A prompt is shown only when stdin is a terminal, so scripts can be piped in.

# Storage

  - file (default): students.txt, candidates.txt, votes.txt in -data
  - sqlite: -t sqlite (database at <data>/ballot.db unless -d is given)
  - postgres: -t postgres -d "postgres://..."

votes.txt (or the vote_record table) is the authoritative record. On start
the candidate counts and voted flags are rebuilt from it, and the derived
files are rewritten if they disagree.

# Election Status Across Restarts

By default the open/closed status is held in memory only and every restart
reopens the election. Adopters who need a closed election to stay closed
should set PERSIST_STATUS=true (-persist-status), which stores the status in
election.txt or the election_state table.

# Architecture

  - ledger: election rules, locking, rollback and reconciliation
  - store: in-memory record store (gods ordered maps)
  - persist: gateway interface and the text-file gateway
  - db: SQL gateway and schema (sqlite, postgres)
  - auth: credential hashers (djb2, hmac) and admin check
  - export: results CSV
  - router, handlers, middleware: shell commands
  - shell: line reader and session
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
