// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
)

func TestFindVoter(t *testing.T) {
	s := New()
	s.InsertVoter(models.Voter{ID: "S1", Name: "Alice"})

	tests := []struct {
		name  string
		id    string
		found bool
	}{
		{"exact match", "S1", true},
		{"different case", "s1", false},
		{"missing", "S2", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := s.FindVoter(tt.id)
			if ok != tt.found {
				t.Fatalf("FindVoter(%q) found = %v, want %v", tt.id, ok, tt.found)
			}
			if ok && v.Name != "Alice" {
				t.Errorf("FindVoter(%q) name = %q, want Alice", tt.id, v.Name)
			}
		})
	}
}

func TestFindVoter_ReturnsCopy(t *testing.T) {
	s := New()
	s.InsertVoter(models.Voter{ID: "S1"})

	v, _ := s.FindVoter("S1")
	v.HasVoted = true

	stored, _ := s.FindVoter("S1")
	if stored.HasVoted {
		t.Error("mutating a found voter changed the store")
	}

	s.UpdateVoter(v)
	stored, _ = s.FindVoter("S1")
	if !stored.HasVoted {
		t.Error("UpdateVoter did not write back")
	}
}

func TestAllCandidates_MostRecentFirst(t *testing.T) {
	s := New()
	for id := 1; id <= 3; id++ {
		s.InsertCandidate(models.Candidate{ID: id})
	}

	got := s.AllCandidates()
	want := []int{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("AllCandidates() len = %d, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.ID != want[i] {
			t.Errorf("AllCandidates()[%d].ID = %d, want %d", i, c.ID, want[i])
		}
	}

	byID := s.CandidatesByID()
	for i, c := range byID {
		if c.ID != i+1 {
			t.Errorf("CandidatesByID()[%d].ID = %d, want %d", i, c.ID, i+1)
		}
	}
}

func TestAllVoters_RegistrationOrder(t *testing.T) {
	s := New()
	ids := []string{"S3", "S1", "S2"}
	for _, id := range ids {
		s.InsertVoter(models.Voter{ID: id})
	}

	// Updating must not move a voter
	s.UpdateVoter(models.Voter{ID: "S3", HasVoted: true})

	got := s.AllVoters()
	for i, v := range got {
		if v.ID != ids[i] {
			t.Errorf("AllVoters()[%d].ID = %s, want %s", i, v.ID, ids[i])
		}
	}
}

func TestRemoveCandidate(t *testing.T) {
	s := New()
	s.InsertCandidate(models.Candidate{ID: 1})
	s.InsertCandidate(models.Candidate{ID: 2})

	if !s.RemoveCandidate(1) {
		t.Error("RemoveCandidate(1) = false, want true")
	}
	if s.RemoveCandidate(1) {
		t.Error("second RemoveCandidate(1) = true, want false")
	}
	if _, ok := s.FindCandidate(1); ok {
		t.Error("candidate 1 still present")
	}
	if s.CandidateCount() != 1 {
		t.Errorf("CandidateCount() = %d, want 1", s.CandidateCount())
	}
}

func TestMaxCandidateID(t *testing.T) {
	s := New()
	if got := s.MaxCandidateID(); got != 0 {
		t.Errorf("empty MaxCandidateID() = %d, want 0", got)
	}
	s.InsertCandidate(models.Candidate{ID: 3})
	s.InsertCandidate(models.Candidate{ID: 1})
	if got := s.MaxCandidateID(); got != 3 {
		t.Errorf("MaxCandidateID() = %d, want 3", got)
	}
}

func TestVoteRecords_Snapshot(t *testing.T) {
	s := New()
	now := time.Now()
	s.InsertVoteRecord(models.VoteRecord{VoterID: "S1", CandidateID: 1, CastAt: now})
	s.InsertVoteRecord(models.VoteRecord{VoterID: "S2", CandidateID: 2, CastAt: now})

	snap := s.VoteRecords()
	snap[0].CandidateID = 99

	if s.VoteRecords()[0].CandidateID != 1 {
		t.Error("vote log aliased by snapshot")
	}

	s.DropLastVoteRecord()
	if s.VoteCount() != 1 {
		t.Errorf("VoteCount() after drop = %d, want 1", s.VoteCount())
	}
	if s.VoteRecords()[0].VoterID != "S1" {
		t.Error("DropLastVoteRecord removed the wrong record")
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.InsertVoter(models.Voter{ID: "old"})

	s.Reset(
		[]models.Voter{{ID: "S1"}, {ID: "S2"}},
		[]models.Candidate{{ID: 5}},
		[]models.VoteRecord{{VoterID: "S1", CandidateID: 5}},
	)

	if _, ok := s.FindVoter("old"); ok {
		t.Error("Reset kept a stale voter")
	}
	if s.VoterCount() != 2 || s.CandidateCount() != 1 || s.VoteCount() != 1 {
		t.Errorf("Reset counts = %d/%d/%d, want 2/1/1", s.VoterCount(), s.CandidateCount(), s.VoteCount())
	}
}
