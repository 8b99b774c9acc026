// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store holds the in-memory voter, candidate and vote collections.
package store

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/maps/treemap"

	"github.com/danielhkuo/quickly-vote/models"
)

// Store owns the three ledger collections. It has no knowledge of election
// rules: callers guarantee id uniqueness and serialize access.
type Store struct {
	voters     *linkedhashmap.Map // voter id -> models.Voter, registration order
	candidates *treemap.Map       // candidate id -> models.Candidate
	votes      []models.VoteRecord
}

func New() *Store {
	return &Store{
		voters:     linkedhashmap.New(),
		candidates: treemap.NewWithIntComparator(),
	}
}

// FindVoter returns a copy of the voter with the given id
func (s *Store) FindVoter(id string) (models.Voter, bool) {
	v, ok := s.voters.Get(id)
	if !ok {
		return models.Voter{}, false
	}
	return v.(models.Voter), true
}

// FindCandidate returns a copy of the candidate with the given id
func (s *Store) FindCandidate(id int) (models.Candidate, bool) {
	c, ok := s.candidates.Get(id)
	if !ok {
		return models.Candidate{}, false
	}
	return c.(models.Candidate), true
}

func (s *Store) InsertVoter(v models.Voter) {
	s.voters.Put(v.ID, v)
}

func (s *Store) InsertCandidate(c models.Candidate) {
	s.candidates.Put(c.ID, c)
}

func (s *Store) InsertVoteRecord(r models.VoteRecord) {
	s.votes = append(s.votes, r)
}

// UpdateVoter writes back a modified voter without changing its position
func (s *Store) UpdateVoter(v models.Voter) {
	s.voters.Put(v.ID, v)
}

func (s *Store) UpdateCandidate(c models.Candidate) {
	s.candidates.Put(c.ID, c)
}

// RemoveCandidate removes the candidate and reports whether it was present
func (s *Store) RemoveCandidate(id int) bool {
	if _, ok := s.candidates.Get(id); !ok {
		return false
	}
	s.candidates.Remove(id)
	return true
}

// RemoveVoter undoes a registration whose flush failed
func (s *Store) RemoveVoter(id string) bool {
	if _, ok := s.voters.Get(id); !ok {
		return false
	}
	s.voters.Remove(id)
	return true
}

// DropLastVoteRecord undoes an InsertVoteRecord whose append failed
func (s *Store) DropLastVoteRecord() {
	if len(s.votes) > 0 {
		s.votes = s.votes[:len(s.votes)-1]
	}
}

// AllCandidates returns a snapshot, most recently added first
func (s *Store) AllCandidates() []models.Candidate {
	values := s.candidates.Values()
	out := make([]models.Candidate, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		out = append(out, values[i].(models.Candidate))
	}
	return out
}

// CandidatesByID returns a snapshot in ascending id order
func (s *Store) CandidatesByID() []models.Candidate {
	values := s.candidates.Values()
	out := make([]models.Candidate, 0, len(values))
	for _, v := range values {
		out = append(out, v.(models.Candidate))
	}
	return out
}

// AllVoters returns a snapshot in registration order
func (s *Store) AllVoters() []models.Voter {
	values := s.voters.Values()
	out := make([]models.Voter, 0, len(values))
	for _, v := range values {
		out = append(out, v.(models.Voter))
	}
	return out
}

// VoteRecords returns a snapshot of the vote log in insertion order
func (s *Store) VoteRecords() []models.VoteRecord {
	out := make([]models.VoteRecord, len(s.votes))
	copy(out, s.votes)
	return out
}

// MaxCandidateID returns the highest candidate id, or 0 if there are none
func (s *Store) MaxCandidateID() int {
	if s.candidates.Empty() {
		return 0
	}
	k, _ := s.candidates.Max()
	return k.(int)
}

func (s *Store) VoterCount() int     { return s.voters.Size() }
func (s *Store) CandidateCount() int { return s.candidates.Size() }
func (s *Store) VoteCount() int      { return len(s.votes) }

// Reset replaces every collection, keeping the given orders
func (s *Store) Reset(voters []models.Voter, candidates []models.Candidate, votes []models.VoteRecord) {
	s.voters.Clear()
	s.candidates.Clear()
	for _, v := range voters {
		s.voters.Put(v.ID, v)
	}
	for _, c := range candidates {
		s.candidates.Put(c.ID, c)
	}
	s.votes = make([]models.VoteRecord, len(votes))
	copy(s.votes, votes)
}
