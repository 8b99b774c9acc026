// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/persist"
)

// ErrInjected is returned by FaultyGateway for every failing call
var ErrInjected = errors.New("injected failure")

// Clock hands out a fixed time that tests can advance
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, time.March, 1, 9, 0, 0, 0, time.Local)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FaultyGateway wraps a gateway and fails selected operations on demand
type FaultyGateway struct {
	persist.Gateway

	mu             sync.Mutex
	FailVoters     bool
	FailCandidates bool
	FailAppend     bool
}

func (g *FaultyGateway) Set(fn func(g *FaultyGateway)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

func (g *FaultyGateway) fail(flag *bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *flag
}

func (g *FaultyGateway) SaveVoters(v []models.Voter) error {
	if g.fail(&g.FailVoters) {
		return ErrInjected
	}
	return g.Gateway.SaveVoters(v)
}

func (g *FaultyGateway) SaveCandidates(c []models.Candidate) error {
	if g.fail(&g.FailCandidates) {
		return ErrInjected
	}
	return g.Gateway.SaveCandidates(c)
}

func (g *FaultyGateway) AppendVoteRecord(r models.VoteRecord) error {
	if g.fail(&g.FailAppend) {
		return ErrInjected
	}
	return g.Gateway.AppendVoteRecord(r)
}

// NewFileGateway creates a text-file gateway in a fresh temp dir
func NewFileGateway(t *testing.T) *persist.FileGateway {
	t.Helper()

	gw, err := persist.NewFileGateway(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create gateway: %v", err)
	}
	return gw
}

// OpenLedger opens a ledger over gw with a fixed clock
func OpenLedger(t *testing.T, gw persist.Gateway, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()

	l, err := ledger.Open(gw, append([]ledger.Option{ledger.WithClock(NewClock().Now)}, opts...)...)
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	return l
}

// NewLedger opens an empty ledger backed by a temp dir
func NewLedger(t *testing.T) (*ledger.Ledger, *persist.FileGateway) {
	t.Helper()

	gw := NewFileGateway(t)
	return OpenLedger(t, gw), gw
}

// RegisterTestVoter registers a voter whose secret is "pw-" + id
func RegisterTestVoter(t *testing.T, l *ledger.Ledger, id string) models.Voter {
	t.Helper()

	v, err := l.RegisterVoter(id, "Voter "+id, "pw-"+id)
	if err != nil {
		t.Fatalf("Failed to register voter %s: %v", id, err)
	}
	return v
}

// AddTestCandidate adds a candidate and returns its id
func AddTestCandidate(t *testing.T, l *ledger.Ledger, name string) int {
	t.Helper()

	c, err := l.AddCandidate(name, "CSE")
	if err != nil {
		t.Fatalf("Failed to add candidate %s: %v", name, err)
	}
	return c.ID
}

// CastTestVotes registers n fresh voters with the given prefix and has each
// of them vote for candidateID
func CastTestVotes(t *testing.T, l *ledger.Ledger, prefix string, n, candidateID int) {
	t.Helper()

	for i := 0; i < n; i++ {
		id := prefix + string(rune('a'+i))
		RegisterTestVoter(t, l, id)
		if _, err := l.CastVote(id, candidateID); err != nil {
			t.Fatalf("Failed to cast vote for %s: %v", id, err)
		}
	}
}

// GetTestConfig returns a standard test configuration
func GetTestConfig(dataDir string) cliparse.Config {
	return cliparse.Config{
		DataDir:    dataDir,
		StoreType:  cliparse.StoreFile,
		HashScheme: "djb2",
		AdminUser:  "nub",
		AdminPass:  "nub",
		ExportPath: "results.csv",
	}
}

// Output collects shell output
type Output struct {
	bytes.Buffer
}

// Lines returns the non-empty output lines
func (o *Output) Lines() []string {
	var lines []string
	for _, line := range strings.Split(o.String(), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// AssertContains checks that the output contains want
func AssertContains(t *testing.T, out *Output, want string) {
	t.Helper()
	if !strings.Contains(out.String(), want) {
		t.Errorf("Expected output to contain %q, got:\n%s", want, out.String())
	}
}
