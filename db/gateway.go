// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/persist"
)

// SQLGateway keeps the ledger collections in a SQL database. It works with
// the "sqlite" (modernc.org/sqlite) and "postgres" (lib/pq) drivers.
type SQLGateway struct {
	db *sql.DB
}

// NewSQLGateway creates the schema if needed
func NewSQLGateway(db *sql.DB) (*SQLGateway, error) {
	if err := CreateSchema(db); err != nil {
		return nil, fmt.Errorf("%w: %w", persist.ErrIO, err)
	}
	return &SQLGateway{db: db}, nil
}

func ioErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", persist.ErrIO, op, err)
}

// replace runs fill inside a transaction after emptying table
func (g *SQLGateway) replace(table string, fill func(tx *sql.Tx) error) error {
	tx, err := g.db.Begin()
	if err != nil {
		return ioErr("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return ioErr("clear "+table, err)
	}
	if err := fill(tx); err != nil {
		return ioErr("save "+table, err)
	}
	if err := tx.Commit(); err != nil {
		return ioErr("commit "+table, err)
	}
	return nil
}

func (g *SQLGateway) LoadVoters() ([]models.Voter, error) {
	rows, err := g.db.Query(`
		SELECT id, name, credential_digest, has_voted
		FROM student
		ORDER BY seq
	`)
	if err != nil {
		return nil, ioErr("query student", err)
	}
	defer rows.Close()

	voters := []models.Voter{}
	for rows.Next() {
		var v models.Voter
		var hasVoted int
		if err := rows.Scan(&v.ID, &v.Name, &v.CredentialDigest, &hasVoted); err != nil {
			return nil, ioErr("scan student", err)
		}
		v.HasVoted = hasVoted != 0
		voters = append(voters, v)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("read student", err)
	}
	return voters, nil
}

func (g *SQLGateway) SaveVoters(voters []models.Voter) error {
	return g.replace("student", func(tx *sql.Tx) error {
		for i, v := range voters {
			_, err := tx.Exec(`
				INSERT INTO student (id, seq, name, credential_digest, has_voted)
				VALUES ($1, $2, $3, $4, $5)
			`, v.ID, i+1, v.Name, v.CredentialDigest, boolToInt(v.HasVoted))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *SQLGateway) LoadCandidates() ([]models.Candidate, error) {
	rows, err := g.db.Query(`
		SELECT id, name, department, votes
		FROM candidate
		ORDER BY id
	`)
	if err != nil {
		return nil, ioErr("query candidate", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Department, &c.Votes); err != nil {
			return nil, ioErr("scan candidate", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("read candidate", err)
	}
	return candidates, nil
}

func (g *SQLGateway) SaveCandidates(candidates []models.Candidate) error {
	return g.replace("candidate", func(tx *sql.Tx) error {
		for _, c := range candidates {
			_, err := tx.Exec(`
				INSERT INTO candidate (id, name, department, votes)
				VALUES ($1, $2, $3, $4)
			`, c.ID, c.Name, c.Department, c.Votes)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *SQLGateway) LoadVoteRecords() ([]models.VoteRecord, error) {
	rows, err := g.db.Query(`
		SELECT voter_id, candidate_id, cast_at
		FROM vote_record
		ORDER BY seq
	`)
	if err != nil {
		return nil, ioErr("query vote_record", err)
	}
	defer rows.Close()

	records := []models.VoteRecord{}
	for rows.Next() {
		var r models.VoteRecord
		var castAt string
		if err := rows.Scan(&r.VoterID, &r.CandidateID, &castAt); err != nil {
			return nil, ioErr("scan vote_record", err)
		}
		r.CastAt, err = time.ParseInLocation(models.TimestampLayout, castAt, time.Local)
		if err != nil {
			slog.Warn("skipping vote record with bad timestamp", "voter_id", r.VoterID, "cast_at", castAt)
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("read vote_record", err)
	}
	return records, nil
}

func (g *SQLGateway) SaveVoteRecords(records []models.VoteRecord) error {
	return g.replace("vote_record", func(tx *sql.Tx) error {
		for i, r := range records {
			if err := insertVoteRecord(tx, i+1, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendVoteRecord inserts one row after the current last one
func (g *SQLGateway) AppendVoteRecord(r models.VoteRecord) error {
	tx, err := g.db.Begin()
	if err != nil {
		return ioErr("begin", err)
	}
	defer tx.Rollback()

	var last int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM vote_record`).Scan(&last); err != nil {
		return ioErr("query vote_record", err)
	}
	if err := insertVoteRecord(tx, last+1, r); err != nil {
		return ioErr("append vote_record", err)
	}
	if err := tx.Commit(); err != nil {
		return ioErr("commit vote_record", err)
	}
	return nil
}

func insertVoteRecord(tx *sql.Tx, seq int, r models.VoteRecord) error {
	_, err := tx.Exec(`
		INSERT INTO vote_record (id, seq, voter_id, candidate_id, cast_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), seq, r.VoterID, r.CandidateID, r.CastAt.Format(models.TimestampLayout))
	return err
}

func (g *SQLGateway) LoadStatus() (models.ElectionStatus, bool, error) {
	var status string
	err := g.db.QueryRow(`SELECT status FROM election_state WHERE id = 1`).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, ioErr("query election_state", err)
	}
	return models.ElectionStatus(status), true, nil
}

func (g *SQLGateway) SaveStatus(status models.ElectionStatus) error {
	_, err := g.db.Exec(`
		INSERT INTO election_state (id, status)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status
	`, string(status))
	if err != nil {
		return ioErr("save election_state", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
