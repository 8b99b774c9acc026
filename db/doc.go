// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db stores the ledger in a SQL database instead of text files.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - student: registered voters, ordered by seq (registration order)
  - candidate: candidates with their stored vote counts
  - vote_record: append-only vote log, uuid primary key, ordered by seq
  - election_state: single row holding "open" or "closed"

vote_record has no foreign keys: records for removed candidates stay in the
log.

# Gateway

SQLGateway implements persist.Gateway and persist.StatusStore:

	conn, _ := sql.Open("sqlite", "file:ballot.db")
	gw, err := db.NewSQLGateway(conn)
	l, err := ledger.Open(gw)

Each Save call replaces its table inside one transaction.
AppendVoteRecord inserts a single row. Placeholders use the $N form, which
both lib/pq and modernc.org/sqlite accept.
*/
package db
