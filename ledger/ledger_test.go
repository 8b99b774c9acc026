// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/persist"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestRegisterVoter(t *testing.T) {
	l, gw := testutil.NewLedger(t)

	v, err := l.RegisterVoter("S1", "Alice", "abc")
	if err != nil {
		t.Fatalf("RegisterVoter() error = %v", err)
	}
	if v.HasVoted {
		t.Error("new voter has HasVoted = true")
	}
	if v.CredentialDigest != "0B885C8B" {
		t.Errorf("CredentialDigest = %s, want djb2 digest 0B885C8B", v.CredentialDigest)
	}

	// Persisted immediately
	voters, err := gw.LoadVoters()
	if err != nil {
		t.Fatalf("LoadVoters() error = %v", err)
	}
	if len(voters) != 1 || voters[0] != v {
		t.Errorf("persisted voters = %+v, want [%+v]", voters, v)
	}
}

func TestRegisterVoter_Errors(t *testing.T) {
	l, _ := testutil.NewLedger(t)
	testutil.RegisterTestVoter(t, l, "S1")

	tests := []struct {
		name    string
		id      string
		voter   string
		wantErr error
	}{
		{"duplicate", "S1", "Again", ledger.ErrDuplicateVoter},
		{"empty id", "", "Nobody", ledger.ErrEmptyVoterID},
		{"comma in id", "S,2", "Bob", ledger.ErrInvalidField},
		{"comma in name", "S2", "Bob, Jr", ledger.ErrInvalidField},
		{"newline in name", "S2", "Bob\n", ledger.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.RegisterVoter(tt.id, tt.voter, "pw")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RegisterVoter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Case-sensitive: "s1" is a different voter
	if _, err := l.RegisterVoter("s1", "Lower", "pw"); err != nil {
		t.Errorf("RegisterVoter(s1) error = %v, want nil", err)
	}

	voters := l.Voters()
	count := 0
	for _, v := range voters {
		if v.ID == "S1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("store holds %d records for S1, want 1", count)
	}
	if len(voters) != 2 {
		t.Errorf("Voters() len = %d, want 2", len(voters))
	}
}

func TestVerifyCredential(t *testing.T) {
	l, _ := testutil.NewLedger(t)
	v := testutil.RegisterTestVoter(t, l, "S1")

	if !l.VerifyCredential(v, "pw-S1") {
		t.Error("VerifyCredential() rejected the right secret")
	}
	if l.VerifyCredential(v, "pw-s1") {
		t.Error("VerifyCredential() accepted a different secret")
	}

	if _, err := l.Authenticate("S1", "pw-S1"); err != nil {
		t.Errorf("Authenticate() error = %v", err)
	}
	if _, err := l.Authenticate("S1", "nope"); !errors.Is(err, ledger.ErrBadCredential) {
		t.Errorf("Authenticate() wrong secret error = %v, want ErrBadCredential", err)
	}
	if _, err := l.Authenticate("S9", "pw-S9"); !errors.Is(err, ledger.ErrUnknownVoter) {
		t.Errorf("Authenticate() unknown voter error = %v, want ErrUnknownVoter", err)
	}
}

func TestWithHasher(t *testing.T) {
	gw := testutil.NewFileGateway(t)
	h := auth.HMACHasher{Salt: "s"}
	l := testutil.OpenLedger(t, gw, ledger.WithHasher(h))

	v, err := l.RegisterVoter("S1", "Alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if v.CredentialDigest != h.Digest("secret") {
		t.Error("ledger did not use the configured hasher")
	}
	if !l.VerifyCredential(v, "secret") {
		t.Error("VerifyCredential() failed with the configured hasher")
	}
}

func TestAddCandidate_IDsAndReload(t *testing.T) {
	tests := []struct {
		name     string
		votesFor int // candidate that gets one vote before removal, 0 for none
		remove   int
		wantNext int
	}{
		{name: "middle id removed", remove: 2, wantNext: 4},
		{name: "highest id removed without votes", remove: 3, wantNext: 3},
		{name: "highest id removed after votes", votesFor: 3, remove: 3, wantNext: 4},
		{name: "voted middle id removed", votesFor: 2, remove: 2, wantNext: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, gw := testutil.NewLedger(t)

			for i, name := range []string{"A", "B", "C"} {
				c, err := l.AddCandidate(name, "CSE")
				if err != nil {
					t.Fatalf("AddCandidate(%s) error = %v", name, err)
				}
				if c.ID != i+1 {
					t.Errorf("AddCandidate(%s).ID = %d, want %d", name, c.ID, i+1)
				}
				if c.Votes != 0 {
					t.Errorf("AddCandidate(%s).Votes = %d, want 0", name, c.Votes)
				}
			}
			if tt.votesFor != 0 {
				testutil.CastTestVotes(t, l, "s", 1, tt.votesFor)
			}
			if err := l.RemoveCandidate(tt.remove); err != nil {
				t.Fatalf("RemoveCandidate(%d) error = %v", tt.remove, err)
			}

			reloaded := testutil.OpenLedger(t, gw)
			c, err := reloaded.AddCandidate("D", "EEE")
			if err != nil {
				t.Fatal(err)
			}
			if c.ID != tt.wantNext {
				t.Errorf("next id after reload = %d, want %d", c.ID, tt.wantNext)
			}
			if diffs := reloaded.Verify(); len(diffs) != 0 {
				t.Errorf("Verify() after add = %+v, want none", diffs)
			}

			// Votes for the removed candidate never move to the new one
			for i := 0; i < 2; i++ {
				reloaded = testutil.OpenLedger(t, gw)
				got, ok := reloaded.Candidate(c.ID)
				if !ok {
					t.Fatalf("reopen %d: candidate %d missing", i+1, c.ID)
				}
				if got.Votes != 0 {
					t.Errorf("reopen %d: candidate D votes = %d, want 0", i+1, got.Votes)
				}
				if diffs := reloaded.Verify(); len(diffs) != 0 {
					t.Errorf("reopen %d: Verify() = %+v, want none", i+1, diffs)
				}
			}
		})
	}
}

func TestAddCandidate_DuplicateNamesAllowed(t *testing.T) {
	l, _ := testutil.NewLedger(t)
	a := testutil.AddTestCandidate(t, l, "Same")
	b := testutil.AddTestCandidate(t, l, "Same")
	if a == b {
		t.Errorf("duplicate names got the same id %d", a)
	}
}

func TestRemoveCandidate(t *testing.T) {
	l, gw := testutil.NewLedger(t)
	id := testutil.AddTestCandidate(t, l, "A")
	testutil.CastTestVotes(t, l, "v", 2, id)

	if err := l.RemoveCandidate(99); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("RemoveCandidate(99) error = %v, want ErrNotFound", err)
	}
	if err := l.RemoveCandidate(id); err != nil {
		t.Fatalf("RemoveCandidate() error = %v", err)
	}
	if _, ok := l.Candidate(id); ok {
		t.Error("candidate still present after removal")
	}

	// Vote records referencing the removed candidate stay in the log
	if n := len(l.VoteRecords()); n != 2 {
		t.Errorf("VoteRecords() len = %d, want 2", n)
	}
	candidates, _ := gw.LoadCandidates()
	if len(candidates) != 0 {
		t.Errorf("persisted candidates = %+v, want none", candidates)
	}

	reloaded := testutil.OpenLedger(t, gw)
	if got := reloaded.Reconciliation().DanglingVotes; got != 2 {
		t.Errorf("DanglingVotes = %d, want 2", got)
	}
}

func TestCastVote(t *testing.T) {
	gw := testutil.NewFileGateway(t)
	clock := testutil.NewClock()
	l := testutil.OpenLedger(t, gw, ledger.WithClock(clock.Now))

	testutil.RegisterTestVoter(t, l, "S1")
	cid := testutil.AddTestCandidate(t, l, "A")

	rec, err := l.CastVote("S1", cid)
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if rec.VoterID != "S1" || rec.CandidateID != cid || !rec.CastAt.Equal(clock.Now()) {
		t.Errorf("CastVote() record = %+v", rec)
	}

	if c, _ := l.Candidate(cid); c.Votes != 1 {
		t.Errorf("candidate votes = %d, want 1", c.Votes)
	}
	if v, _ := l.Voter("S1"); !v.HasVoted {
		t.Error("voter HasVoted = false after voting")
	}

	// All three collections are on disk
	records, _ := gw.LoadVoteRecords()
	if len(records) != 1 || records[0].VoterID != "S1" {
		t.Errorf("persisted vote log = %+v", records)
	}
	candidates, _ := gw.LoadCandidates()
	if len(candidates) != 1 || candidates[0].Votes != 1 {
		t.Errorf("persisted candidates = %+v", candidates)
	}
	voters, _ := gw.LoadVoters()
	if len(voters) != 1 || !voters[0].HasVoted {
		t.Errorf("persisted voters = %+v", voters)
	}
}

func TestCastVote_TruncatesToSeconds(t *testing.T) {
	gw := testutil.NewFileGateway(t)
	at := time.Date(2025, time.March, 1, 9, 0, 0, 750_000_000, time.Local)
	l := testutil.OpenLedger(t, gw, ledger.WithClock(func() time.Time { return at }))

	testutil.RegisterTestVoter(t, l, "S1")
	cid := testutil.AddTestCandidate(t, l, "A")

	rec, err := l.CastVote("S1", cid)
	if err != nil {
		t.Fatal(err)
	}
	if rec.CastAt.Nanosecond() != 0 {
		t.Errorf("CastAt = %v, want whole seconds", rec.CastAt)
	}
}

func TestCastVote_AtMostOnce(t *testing.T) {
	l, _ := testutil.NewLedger(t)
	testutil.RegisterTestVoter(t, l, "S1")
	a := testutil.AddTestCandidate(t, l, "A")
	b := testutil.AddTestCandidate(t, l, "B")

	successes := 0
	for i := 0; i < 5; i++ {
		for _, cid := range []int{a, b} {
			_, err := l.CastVote("S1", cid)
			switch {
			case err == nil:
				successes++
			case !errors.Is(err, ledger.ErrAlreadyVoted):
				t.Errorf("repeat vote error = %v, want ErrAlreadyVoted", err)
			}
		}
		// Closing and reopening must not reset the flag
		l.Stop()
		l.Start()
	}

	if successes != 1 {
		t.Errorf("successful votes = %d, want 1", successes)
	}
	if n := len(l.VoteRecords()); n != 1 {
		t.Errorf("vote log len = %d, want 1", n)
	}
}

func TestCastVote_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, l *ledger.Ledger)
		voterID   string
		candidate int
		wantErr   error
	}{
		{
			name:      "election closed",
			setup:     func(t *testing.T, l *ledger.Ledger) { l.Stop() },
			voterID:   "S1",
			candidate: 1,
			wantErr:   ledger.ErrElectionClosed,
		},
		{
			name:      "unknown candidate",
			voterID:   "S1",
			candidate: 42,
			wantErr:   ledger.ErrUnknownCandidate,
		},
		{
			name:      "unknown voter",
			voterID:   "S9",
			candidate: 1,
			wantErr:   ledger.ErrUnknownVoter,
		},
		{
			name: "already voted",
			setup: func(t *testing.T, l *ledger.Ledger) {
				testutil.RegisterTestVoter(t, l, "S2")
				if _, err := l.CastVote("S2", 1); err != nil {
					t.Fatal(err)
				}
			},
			voterID:   "S2",
			candidate: 1,
			wantErr:   ledger.ErrAlreadyVoted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, gw := testutil.NewLedger(t)
			testutil.RegisterTestVoter(t, l, "S1")
			testutil.AddTestCandidate(t, l, "A")
			if tt.setup != nil {
				tt.setup(t, l)
			}

			beforeTally := l.Tally()
			beforeLog := len(l.VoteRecords())
			beforeVoter, _ := l.Voter(tt.voterID)

			_, err := l.CastVote(tt.voterID, tt.candidate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CastVote() error = %v, want %v", err, tt.wantErr)
			}

			// Nothing changed in memory or on disk
			if got := len(l.VoteRecords()); got != beforeLog {
				t.Errorf("vote log len = %d, want %d", got, beforeLog)
			}
			for id, n := range l.Tally() {
				if beforeTally[id] != n {
					t.Errorf("tally[%d] = %d, want %d", id, n, beforeTally[id])
				}
			}
			if after, _ := l.Voter(tt.voterID); after != beforeVoter {
				t.Errorf("voter changed: %+v -> %+v", beforeVoter, after)
			}
			records, _ := gw.LoadVoteRecords()
			if len(records) != beforeLog {
				t.Errorf("persisted vote log len = %d, want %d", len(records), beforeLog)
			}
		})
	}
}

func TestTally_MatchesVoteLog(t *testing.T) {
	l, _ := testutil.NewLedger(t)
	a := testutil.AddTestCandidate(t, l, "A")
	b := testutil.AddTestCandidate(t, l, "B")
	c := testutil.AddTestCandidate(t, l, "C")

	testutil.CastTestVotes(t, l, "a", 4, a)
	testutil.CastTestVotes(t, l, "b", 2, b)

	counted := make(map[int]int)
	for _, rec := range l.VoteRecords() {
		counted[rec.CandidateID]++
	}

	tally := l.Tally()
	for _, id := range []int{a, b, c} {
		if tally[id] != counted[id] {
			t.Errorf("tally[%d] = %d, log count = %d", id, tally[id], counted[id])
		}
	}
	if l.TotalVotes() != 6 {
		t.Errorf("TotalVotes() = %d, want 6", l.TotalVotes())
	}
	if d := l.Verify(); len(d) != 0 {
		t.Errorf("Verify() = %+v, want no discrepancies", d)
	}
}

func TestDeclareWinner(t *testing.T) {
	l, _ := testutil.NewLedger(t)

	if _, err := l.DeclareWinner(); !errors.Is(err, ledger.ErrNoCandidates) {
		t.Errorf("DeclareWinner() on empty error = %v, want ErrNoCandidates", err)
	}

	// Insertion order is pinned: A, then B, then C
	a := testutil.AddTestCandidate(t, l, "A")
	b := testutil.AddTestCandidate(t, l, "B")
	c := testutil.AddTestCandidate(t, l, "C")
	testutil.CastTestVotes(t, l, "a", 5, a)
	testutil.CastTestVotes(t, l, "b", 5, b)
	testutil.CastTestVotes(t, l, "c", 3, c)

	w, err := l.DeclareWinner()
	if err != nil {
		t.Fatalf("DeclareWinner() error = %v", err)
	}
	if w.ID != b {
		t.Errorf("DeclareWinner() = %s (id %d), want B, the most recently added of the tie", w.Name, w.ID)
	}

	testutil.CastTestVotes(t, l, "x", 1, a)
	w, _ = l.DeclareWinner()
	if w.ID != a {
		t.Errorf("DeclareWinner() = %s, want A with a strict lead", w.Name)
	}
}

func TestDeclareWinner_StableAcrossReload(t *testing.T) {
	l, gw := testutil.NewLedger(t)
	a := testutil.AddTestCandidate(t, l, "A")
	b := testutil.AddTestCandidate(t, l, "B")
	testutil.CastTestVotes(t, l, "a", 2, a)
	testutil.CastTestVotes(t, l, "b", 2, b)

	for i := 0; i < 3; i++ {
		reloaded := testutil.OpenLedger(t, gw)
		w, err := reloaded.DeclareWinner()
		if err != nil {
			t.Fatal(err)
		}
		if w.ID != b {
			t.Errorf("reload %d: winner = %d, want %d", i, w.ID, b)
		}
	}
}

func TestStandings(t *testing.T) {
	l, _ := testutil.NewLedger(t)
	a := testutil.AddTestCandidate(t, l, "A")
	b := testutil.AddTestCandidate(t, l, "B")
	c := testutil.AddTestCandidate(t, l, "C")
	testutil.CastTestVotes(t, l, "a", 2, a)
	testutil.CastTestVotes(t, l, "c", 2, c)
	testutil.CastTestVotes(t, l, "b", 1, b)

	got := l.Standings()
	want := []struct{ id, rank, votes int }{
		{c, 1, 2},
		{a, 1, 2},
		{b, 3, 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Standings() len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].CandidateID != w.id || got[i].Rank != w.rank || got[i].Votes != w.votes {
			t.Errorf("Standings()[%d] = %+v, want id %d rank %d votes %d", i, got[i], w.id, w.rank, w.votes)
		}
	}
}

func TestStartStop_Idempotent(t *testing.T) {
	l, _ := testutil.NewLedger(t)

	if l.Status() != models.StatusOpen {
		t.Errorf("initial status = %s, want open", l.Status())
	}
	for i := 0; i < 2; i++ {
		if err := l.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
		if l.Status() != models.StatusClosed {
			t.Errorf("status after Stop = %s", l.Status())
		}
	}
	for i := 0; i < 2; i++ {
		if err := l.Start(); err != nil {
			t.Errorf("Start() error = %v", err)
		}
		if l.Status() != models.StatusOpen {
			t.Errorf("status after Start = %s", l.Status())
		}
	}
}

func TestStatus_ResetsOnRestartByDefault(t *testing.T) {
	l, gw := testutil.NewLedger(t)
	l.Stop()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	reloaded := testutil.OpenLedger(t, gw)
	if reloaded.Status() != models.StatusOpen {
		t.Errorf("status after restart = %s, want open", reloaded.Status())
	}
}

func TestStatus_Persistent(t *testing.T) {
	gw := testutil.NewFileGateway(t)
	l := testutil.OpenLedger(t, gw, ledger.WithPersistentStatus(gw))
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}

	reloaded := testutil.OpenLedger(t, gw, ledger.WithPersistentStatus(gw))
	if reloaded.Status() != models.StatusClosed {
		t.Errorf("status after restart = %s, want closed", reloaded.Status())
	}
}

func TestRollback_OnPersistenceFailure(t *testing.T) {
	faulty := &testutil.FaultyGateway{Gateway: testutil.NewFileGateway(t)}
	l := testutil.OpenLedger(t, faulty)
	testutil.RegisterTestVoter(t, l, "S1")
	cid := testutil.AddTestCandidate(t, l, "A")

	t.Run("register", func(t *testing.T) {
		faulty.Set(func(g *testutil.FaultyGateway) { g.FailVoters = true })
		defer faulty.Set(func(g *testutil.FaultyGateway) { g.FailVoters = false })

		_, err := l.RegisterVoter("S2", "Bob", "pw")
		if !errors.Is(err, ledger.ErrPersistence) || !errors.Is(err, testutil.ErrInjected) {
			t.Fatalf("RegisterVoter() error = %v, want ErrPersistence wrapping the cause", err)
		}
		if _, ok := l.Voter("S2"); ok {
			t.Error("voter kept in memory after failed save")
		}
	})

	t.Run("add candidate", func(t *testing.T) {
		faulty.Set(func(g *testutil.FaultyGateway) { g.FailCandidates = true })
		_, err := l.AddCandidate("B", "EEE")
		faulty.Set(func(g *testutil.FaultyGateway) { g.FailCandidates = false })

		if !errors.Is(err, ledger.ErrPersistence) {
			t.Fatalf("AddCandidate() error = %v, want ErrPersistence", err)
		}
		if len(l.Candidates()) != 1 {
			t.Error("candidate kept in memory after failed save")
		}
		c, err := l.AddCandidate("B", "EEE")
		if err != nil {
			t.Fatal(err)
		}
		if c.ID != cid+1 {
			t.Errorf("id after failed add = %d, want %d", c.ID, cid+1)
		}
	})

	t.Run("remove candidate", func(t *testing.T) {
		faulty.Set(func(g *testutil.FaultyGateway) { g.FailCandidates = true })
		err := l.RemoveCandidate(cid)
		faulty.Set(func(g *testutil.FaultyGateway) { g.FailCandidates = false })

		if !errors.Is(err, ledger.ErrPersistence) {
			t.Fatalf("RemoveCandidate() error = %v, want ErrPersistence", err)
		}
		if _, ok := l.Candidate(cid); !ok {
			t.Error("candidate removed from memory after failed save")
		}
	})

	t.Run("vote append", func(t *testing.T) {
		faulty.Set(func(g *testutil.FaultyGateway) { g.FailAppend = true })
		_, err := l.CastVote("S1", cid)
		faulty.Set(func(g *testutil.FaultyGateway) { g.FailAppend = false })

		if !errors.Is(err, ledger.ErrPersistence) || errors.Is(err, ledger.ErrPartialFlush) {
			t.Fatalf("CastVote() error = %v, want ErrPersistence only", err)
		}
		if v, _ := l.Voter("S1"); v.HasVoted {
			t.Error("HasVoted set after failed append")
		}
		if l.Tally()[cid] != 0 {
			t.Error("tally changed after failed append")
		}
		if len(l.VoteRecords()) != 0 {
			t.Error("vote record kept after failed append")
		}
	})
}

func TestCastVote_PartialFlushIsRepairedOnOpen(t *testing.T) {
	gw := testutil.NewFileGateway(t)
	faulty := &testutil.FaultyGateway{Gateway: gw}
	l := testutil.OpenLedger(t, faulty)
	testutil.RegisterTestVoter(t, l, "S1")
	cid := testutil.AddTestCandidate(t, l, "A")

	faulty.Set(func(g *testutil.FaultyGateway) { g.FailCandidates = true; g.FailVoters = true })
	rec, err := l.CastVote("S1", cid)
	if !errors.Is(err, ledger.ErrPersistence) || !errors.Is(err, ledger.ErrPartialFlush) {
		t.Fatalf("CastVote() error = %v, want ErrPartialFlush", err)
	}
	if rec.VoterID != "S1" {
		t.Errorf("CastVote() record = %+v, want the committed record", rec)
	}

	// The vote stands in memory
	if _, err := l.CastVote("S1", cid); !errors.Is(err, ledger.ErrAlreadyVoted) {
		t.Errorf("second CastVote() error = %v, want ErrAlreadyVoted", err)
	}

	// Derived files are stale on disk until the log is replayed
	candidates, _ := gw.LoadCandidates()
	if candidates[0].Votes != 0 {
		t.Fatalf("precondition: persisted votes = %d, want stale 0", candidates[0].Votes)
	}

	reloaded := testutil.OpenLedger(t, gw)
	recon := reloaded.Reconciliation()
	if len(recon.CandidatesFixed) != 1 || len(recon.VotersFixed) != 1 {
		t.Errorf("Reconciliation() = %+v, want one candidate and one voter fixed", recon)
	}
	if reloaded.Tally()[cid] != 1 {
		t.Errorf("tally after reload = %d, want 1", reloaded.Tally()[cid])
	}
	if v, _ := reloaded.Voter("S1"); !v.HasVoted {
		t.Error("HasVoted not rebuilt from the log")
	}

	// And the files were rewritten
	candidates, _ = gw.LoadCandidates()
	if candidates[0].Votes != 1 {
		t.Errorf("persisted votes after reload = %d, want 1", candidates[0].Votes)
	}
}

func TestOpen_RebuildsFromVoteLog(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		persist.VotersFile:     "S1,Alice,AAAA,0\nS2,Bob,BBBB,1\nS3,Cara,CCCC,0\n",
		persist.CandidatesFile: "1,Nadia,CSE,9\n3,Omar,EEE,0\n",
		persist.VotesFile:      "S1,1,2025-03-01 09:00:00\nS3,3,2025-03-01 09:01:00\nS4,2,2025-03-01 09:02:00\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	gw, err := persist.NewFileGateway(dir)
	if err != nil {
		t.Fatal(err)
	}
	l := testutil.OpenLedger(t, gw)

	tally := l.Tally()
	if tally[1] != 1 || tally[3] != 1 {
		t.Errorf("Tally() = %v, want 1:1 3:1", tally)
	}
	for id, want := range map[string]bool{"S1": true, "S2": false, "S3": true} {
		if v, _ := l.Voter(id); v.HasVoted != want {
			t.Errorf("voter %s HasVoted = %v, want %v", id, v.HasVoted, want)
		}
	}

	recon := l.Reconciliation()
	if recon.DanglingVotes != 1 {
		t.Errorf("DanglingVotes = %d, want 1 (candidate 2 was removed)", recon.DanglingVotes)
	}

	// Next id comes from the highest surviving candidate
	c, err := l.AddCandidate("New", "BBA")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != 4 {
		t.Errorf("next id = %d, want 4", c.ID)
	}
}

func TestOpen_LoadFailure(t *testing.T) {
	dir := t.TempDir()
	gw, err := persist.NewFileGateway(dir)
	if err != nil {
		t.Fatal(err)
	}
	// A directory where a file should be makes the read fail
	if err := os.Mkdir(filepath.Join(dir, persist.VotersFile), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := ledger.Open(gw); !errors.Is(err, ledger.ErrPersistence) {
		t.Errorf("Open() error = %v, want ErrPersistence", err)
	}
}

func TestClose_FlushesState(t *testing.T) {
	l, gw := testutil.NewLedger(t)
	testutil.RegisterTestVoter(t, l, "S1")
	testutil.AddTestCandidate(t, l, "A")

	// Wipe the files behind the ledger's back; Close writes them again
	for _, name := range []string{persist.VotersFile, persist.CandidatesFile} {
		os.Remove(filepath.Join(gw.Dir(), name))
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	voters, _ := gw.LoadVoters()
	candidates, _ := gw.LoadCandidates()
	if len(voters) != 1 || len(candidates) != 1 {
		t.Errorf("after Close: %d voters, %d candidates; want 1, 1", len(voters), len(candidates))
	}
}

func TestConcurrentVotesSameVoter(t *testing.T) {
	l, _ := testutil.NewLedger(t)
	testutil.RegisterTestVoter(t, l, "S1")
	a := testutil.AddTestCandidate(t, l, "A")
	b := testutil.AddTestCandidate(t, l, "B")

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cid := a
			if i%2 == 1 {
				cid = b
			}
			if _, err := l.CastVote("S1", cid); err == nil {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("successful votes = %d, want exactly 1", successCount.Load())
	}
	if l.TotalVotes() != 1 || len(l.VoteRecords()) != 1 {
		t.Errorf("TotalVotes() = %d, log = %d; want 1, 1", l.TotalVotes(), len(l.VoteRecords()))
	}
}

func TestConcurrentVotesDifferentVoters(t *testing.T) {
	l, gw := testutil.NewLedger(t)
	cid := testutil.AddTestCandidate(t, l, "A")

	numVoters := 15
	ids := make([]string, numVoters)
	for i := range ids {
		ids[i] = "V" + string(rune('A'+i))
		testutil.RegisterTestVoter(t, l, ids[i])
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := l.CastVote(id, cid); err != nil {
				t.Errorf("CastVote(%s) error = %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if l.Tally()[cid] != numVoters {
		t.Errorf("tally = %d, want %d", l.Tally()[cid], numVoters)
	}
	records, _ := gw.LoadVoteRecords()
	if len(records) != numVoters {
		t.Errorf("persisted vote log len = %d, want %d", len(records), numVoters)
	}
}
