// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// ElectionStatus is the open/closed gate for vote casting.
type ElectionStatus string

// Election status constants
const (
	StatusOpen   ElectionStatus = "open"
	StatusClosed ElectionStatus = "closed"
)

// TimestampLayout is the on-disk format of VoteRecord.CastAt (second precision, local time)
const TimestampLayout = "2006-01-02 15:04:05"

// Domain types

type Voter struct {
	ID               string `json:"voter_id"`
	Name             string `json:"name"`
	CredentialDigest string `json:"-"` // Never expose in JSON
	HasVoted         bool   `json:"has_voted"`
}

type Candidate struct {
	ID         int    `json:"candidate_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Votes      int    `json:"votes"`
}

// VoteRecord is immutable once created
type VoteRecord struct {
	VoterID     string    `json:"voter_id"`
	CandidateID int       `json:"candidate_id"`
	CastAt      time.Time `json:"cast_at"`
}

// Result types

type TallyEntry struct {
	Rank        int    `json:"rank"` // 1-indexed, ties share a rank
	CandidateID int    `json:"candidate_id"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	Votes       int    `json:"votes"`
}

// Discrepancy is a candidate whose stored count disagrees with the vote log
type Discrepancy struct {
	CandidateID int `json:"candidate_id"`
	Stored      int `json:"stored"`
	Counted     int `json:"counted"`
}

// Reconciliation summarizes what Open repaired while replaying the vote log
type Reconciliation struct {
	CandidatesFixed []Discrepancy `json:"candidates_fixed"`
	VotersFixed     []string      `json:"voters_fixed"`
	DanglingVotes   int           `json:"dangling_votes"` // records for removed candidates
}

// Changed reports whether any derived state had to be rewritten
func (r Reconciliation) Changed() bool {
	return len(r.CandidatesFixed) > 0 || len(r.VotersFixed) > 0
}

// Command types

// Request is a single parsed shell command
type Request struct {
	ID   string   `json:"request_id"`
	Verb string   `json:"verb"`
	Args []string `json:"args"`
}

// Arg returns the i-th argument or "" if absent
func (r *Request) Arg(i int) string {
	if i < 0 || i >= len(r.Args) {
		return ""
	}
	return r.Args[i]
}

type StatusResponse struct {
	Status     ElectionStatus `json:"status"`
	Voters     int            `json:"voters"`
	Candidates int            `json:"candidates"`
	VotesCast  int            `json:"votes_cast"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Session is the login state of one shell. At most one of VoterID and Admin
// is set.
type Session struct {
	VoterID string
	Admin   bool
}

func (s *Session) Clear() {
	s.VoterID = ""
	s.Admin = false
}
