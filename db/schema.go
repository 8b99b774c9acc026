// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the ledger.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Column types are limited to what both SQLite and PostgreSQL accept.
// cast_at is stored in the same text layout as votes.txt.
const schema = `
-- Students
CREATE TABLE IF NOT EXISTS student (
    id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL,
    name TEXT NOT NULL,
    credential_digest TEXT NOT NULL,
    has_voted INTEGER NOT NULL DEFAULT 0 CHECK (has_voted IN (0, 1))
);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    department TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0)
);

-- Vote log (append-only)
CREATE TABLE IF NOT EXISTS vote_record (
    id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL UNIQUE,
    voter_id TEXT NOT NULL,
    candidate_id INTEGER NOT NULL,
    cast_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vote_record_candidate ON vote_record(candidate_id);

-- Election status (single row)
CREATE TABLE IF NOT EXISTS election_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    status TEXT NOT NULL CHECK (status IN ('open', 'closed'))
);
`
