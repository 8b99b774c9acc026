// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/persist"
	"github.com/danielhkuo/quickly-vote/store"
)

// Ledger applies election rules on top of the record store and flushes every
// change through the gateway before reporting success. All methods are safe
// for concurrent use; each holds one lock for its whole read-modify-persist
// sequence.
type Ledger struct {
	mu sync.Mutex

	store  *store.Store
	gw     persist.Gateway
	status persist.StatusStore // nil: status resets to open on every Open
	hasher auth.Hasher
	now    func() time.Time

	state  models.ElectionStatus
	nextID int
	recon  models.Reconciliation
}

type Option func(*Ledger)

func WithHasher(h auth.Hasher) Option {
	return func(l *Ledger) { l.hasher = h }
}

// WithClock replaces time.Now for vote timestamps
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithPersistentStatus keeps the open/closed flag across restarts
func WithPersistentStatus(s persist.StatusStore) Option {
	return func(l *Ledger) { l.status = s }
}

// Open loads all collections from gw and rebuilds tallies and voted flags
// from the vote log. If the stored counts or flags disagree with the log,
// the candidate and voter files are rewritten.
func Open(gw persist.Gateway, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:  store.New(),
		gw:     gw,
		hasher: auth.DJB2Hasher{},
		now:    time.Now,
		state:  models.StatusOpen,
	}
	for _, opt := range opts {
		opt(l)
	}

	voters, err := gw.LoadVoters()
	if err != nil {
		return nil, persistErr("load voters", err)
	}
	candidates, err := gw.LoadCandidates()
	if err != nil {
		return nil, persistErr("load candidates", err)
	}
	records, err := gw.LoadVoteRecords()
	if err != nil {
		return nil, persistErr("load vote records", err)
	}

	l.store.Reset(voters, candidates, records)
	// Ids referenced only by the vote log belong to removed candidates and
	// are never handed out again.
	maxID := l.store.MaxCandidateID()
	for _, rec := range records {
		maxID = max(maxID, rec.CandidateID)
	}
	l.nextID = maxID + 1

	l.recon = l.reconcile()
	if l.recon.Changed() {
		slog.Warn("derived state disagreed with vote log, rewriting",
			"candidates_fixed", len(l.recon.CandidatesFixed),
			"voters_fixed", len(l.recon.VotersFixed),
		)
		if err := l.gw.SaveCandidates(l.store.CandidatesByID()); err != nil {
			return nil, persistErr("save candidates", err)
		}
		if err := l.gw.SaveVoters(l.store.AllVoters()); err != nil {
			return nil, persistErr("save voters", err)
		}
	}
	if l.recon.DanglingVotes > 0 {
		slog.Info("vote log references removed candidates", "records", l.recon.DanglingVotes)
	}

	if l.status != nil {
		status, found, err := l.status.LoadStatus()
		if err != nil {
			return nil, persistErr("load status", err)
		}
		if found {
			l.state = status
		}
	}

	slog.Info("ledger loaded",
		"voters", l.store.VoterCount(),
		"candidates", l.store.CandidateCount(),
		"votes", l.store.VoteCount(),
		"status", l.state,
	)
	return l, nil
}

// reconcile makes every candidate count and voted flag match the vote log
func (l *Ledger) reconcile() models.Reconciliation {
	var r models.Reconciliation

	counted := make(map[int]int)
	voted := make(map[string]bool)
	for _, rec := range l.store.VoteRecords() {
		counted[rec.CandidateID]++
		voted[rec.VoterID] = true
	}

	for _, c := range l.store.CandidatesByID() {
		if c.Votes != counted[c.ID] {
			r.CandidatesFixed = append(r.CandidatesFixed, models.Discrepancy{
				CandidateID: c.ID,
				Stored:      c.Votes,
				Counted:     counted[c.ID],
			})
			c.Votes = counted[c.ID]
			l.store.UpdateCandidate(c)
		}
		delete(counted, c.ID)
	}
	for _, n := range counted {
		r.DanglingVotes += n
	}

	for _, v := range l.store.AllVoters() {
		if v.HasVoted != voted[v.ID] {
			r.VotersFixed = append(r.VotersFixed, v.ID)
			v.HasVoted = voted[v.ID]
			l.store.UpdateVoter(v)
		}
	}
	return r
}

// Reconciliation reports what Open repaired
func (l *Ledger) Reconciliation() models.Reconciliation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recon
}

// Close flushes the voter and candidate files and the election status.
// The vote log is already durable after every CastVote.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.gw.SaveVoters(l.store.AllVoters()); err != nil {
		return persistErr("save voters", err)
	}
	if err := l.gw.SaveCandidates(l.store.CandidatesByID()); err != nil {
		return persistErr("save candidates", err)
	}
	if l.status != nil {
		if err := l.status.SaveStatus(l.state); err != nil {
			return persistErr("save status", err)
		}
	}
	return nil
}

func validField(s string) bool {
	return !strings.ContainsAny(s, persist.Delimiter+"\r\n")
}

// Election state

func (l *Ledger) Status() models.ElectionStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start opens the election. Starting an open election is a no-op.
func (l *Ledger) Start() error {
	return l.setStatus(models.StatusOpen)
}

// Stop closes the election. Stopping a closed election is a no-op.
func (l *Ledger) Stop() error {
	return l.setStatus(models.StatusClosed)
}

func (l *Ledger) setStatus(status models.ElectionStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == status {
		return nil
	}
	if l.status != nil {
		if err := l.status.SaveStatus(status); err != nil {
			return persistErr("save status", err)
		}
	}
	l.state = status
	slog.Info("election status changed", "status", status)
	return nil
}

// Voters

// RegisterVoter stores a new voter with the digest of secret
func (l *Ledger) RegisterVoter(id, name, secret string) (models.Voter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id == "" {
		return models.Voter{}, ErrEmptyVoterID
	}
	if !validField(id) || !validField(name) {
		return models.Voter{}, ErrInvalidField
	}
	if _, exists := l.store.FindVoter(id); exists {
		return models.Voter{}, ErrDuplicateVoter
	}

	v := models.Voter{
		ID:               id,
		Name:             name,
		CredentialDigest: l.hasher.Digest(secret),
	}
	l.store.InsertVoter(v)

	if err := l.gw.SaveVoters(l.store.AllVoters()); err != nil {
		l.store.RemoveVoter(id)
		slog.Error("failed to save voters", "error", err, "voter_id", id)
		return models.Voter{}, persistErr("save voters", err)
	}

	slog.Info("voter registered", "voter_id", id)
	return v, nil
}

// VerifyCredential reports whether secret matches the voter's stored digest
func (l *Ledger) VerifyCredential(v models.Voter, secret string) bool {
	return auth.Verify(l.hasher, v.CredentialDigest, secret)
}

// Authenticate looks up a voter and checks the secret
func (l *Ledger) Authenticate(voterID, secret string) (models.Voter, error) {
	l.mu.Lock()
	v, ok := l.store.FindVoter(voterID)
	l.mu.Unlock()

	if !ok {
		return models.Voter{}, ErrUnknownVoter
	}
	if !l.VerifyCredential(v, secret) {
		return models.Voter{}, ErrBadCredential
	}
	return v, nil
}

func (l *Ledger) Voter(id string) (models.Voter, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.FindVoter(id)
}

func (l *Ledger) Voters() []models.Voter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.AllVoters()
}

// Candidates

// AddCandidate assigns the next candidate id. Names need not be unique.
func (l *Ledger) AddCandidate(name, department string) (models.Candidate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !validField(name) || !validField(department) {
		return models.Candidate{}, ErrInvalidField
	}

	c := models.Candidate{
		ID:         l.nextID,
		Name:       name,
		Department: department,
	}
	l.store.InsertCandidate(c)
	l.nextID++

	if err := l.gw.SaveCandidates(l.store.CandidatesByID()); err != nil {
		l.store.RemoveCandidate(c.ID)
		l.nextID--
		slog.Error("failed to save candidates", "error", err, "candidate_id", c.ID)
		return models.Candidate{}, persistErr("save candidates", err)
	}

	slog.Info("candidate added", "candidate_id", c.ID, "name", name)
	return c, nil
}

// RemoveCandidate deletes a candidate. Vote records that reference it stay
// in the log.
func (l *Ledger) RemoveCandidate(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.store.FindCandidate(id)
	if !ok {
		return fmt.Errorf("candidate %d: %w", id, ErrNotFound)
	}
	l.store.RemoveCandidate(id)

	if err := l.gw.SaveCandidates(l.store.CandidatesByID()); err != nil {
		l.store.InsertCandidate(c)
		slog.Error("failed to save candidates", "error", err, "candidate_id", id)
		return persistErr("save candidates", err)
	}

	slog.Info("candidate removed", "candidate_id", id, "votes", c.Votes)
	return nil
}

func (l *Ledger) Candidate(id int) (models.Candidate, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.FindCandidate(id)
}

// Candidates returns every candidate, most recently added first
func (l *Ledger) Candidates() []models.Candidate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.AllCandidates()
}

// Voting

// CastVote records one vote. The vote log append is the commit point: if it
// fails, memory is rolled back; if a later flush fails the vote stands and
// the error wraps ErrPartialFlush.
func (l *Ledger) CastVote(voterID string, candidateID int) (models.VoteRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != models.StatusOpen {
		return models.VoteRecord{}, ErrElectionClosed
	}
	v, ok := l.store.FindVoter(voterID)
	if !ok {
		return models.VoteRecord{}, ErrUnknownVoter
	}
	if v.HasVoted {
		return models.VoteRecord{}, ErrAlreadyVoted
	}
	c, ok := l.store.FindCandidate(candidateID)
	if !ok {
		return models.VoteRecord{}, ErrUnknownCandidate
	}

	prevVoter, prevCandidate := v, c

	c.Votes++
	v.HasVoted = true
	rec := models.VoteRecord{
		VoterID:     voterID,
		CandidateID: candidateID,
		CastAt:      l.now().Truncate(time.Second),
	}
	l.store.UpdateCandidate(c)
	l.store.UpdateVoter(v)
	l.store.InsertVoteRecord(rec)

	if err := l.gw.AppendVoteRecord(rec); err != nil {
		l.store.DropLastVoteRecord()
		l.store.UpdateVoter(prevVoter)
		l.store.UpdateCandidate(prevCandidate)
		slog.Error("failed to append vote", "error", err, "voter_id", voterID)
		return models.VoteRecord{}, persistErr("append vote", err)
	}

	if err := l.gw.SaveCandidates(l.store.CandidatesByID()); err != nil {
		slog.Error("vote logged but candidates not saved", "error", err, "voter_id", voterID)
		return rec, fmt.Errorf("%w: %w: save candidates: %w", ErrPersistence, ErrPartialFlush, err)
	}
	if err := l.gw.SaveVoters(l.store.AllVoters()); err != nil {
		slog.Error("vote logged but voters not saved", "error", err, "voter_id", voterID)
		return rec, fmt.Errorf("%w: %w: save voters: %w", ErrPersistence, ErrPartialFlush, err)
	}

	slog.Info("vote cast", "voter_id", voterID, "candidate_id", candidateID)
	return rec, nil
}

func (l *Ledger) VoteRecords() []models.VoteRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.VoteRecords()
}

// Results

// Tally returns the stored vote count of every candidate
func (l *Ledger) Tally() map[int]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	tally := make(map[int]int, l.store.CandidateCount())
	for _, c := range l.store.AllCandidates() {
		tally[c.ID] = c.Votes
	}
	return tally
}

// TotalVotes sums the stored candidate counts
func (l *Ledger) TotalVotes() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, c := range l.store.AllCandidates() {
		total += c.Votes
	}
	return total
}

// Standings ranks candidates by votes. Equal counts share a rank and are
// listed most recently added first.
func (l *Ledger) Standings() []models.TallyEntry {
	l.mu.Lock()
	candidates := l.store.AllCandidates()
	l.mu.Unlock()

	slices.SortStableFunc(candidates, func(a, b models.Candidate) int {
		return cmp.Compare(b.Votes, a.Votes)
	})

	entries := make([]models.TallyEntry, 0, len(candidates))
	for i, c := range candidates {
		rank := i + 1
		if i > 0 && c.Votes == candidates[i-1].Votes {
			rank = entries[i-1].Rank
		}
		entries = append(entries, models.TallyEntry{
			Rank:        rank,
			CandidateID: c.ID,
			Name:        c.Name,
			Department:  c.Department,
			Votes:       c.Votes,
		})
	}
	return entries
}

// DeclareWinner returns the candidate with the most votes. Ties go to the
// most recently added candidate, which is the one with the highest id.
func (l *Ledger) DeclareWinner() (models.Candidate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	candidates := l.store.AllCandidates()
	if len(candidates) == 0 {
		return models.Candidate{}, ErrNoCandidates
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Votes > best.Votes {
			best = c
		}
	}
	return best, nil
}

// Verify recounts every candidate from the vote log and returns the ones
// whose stored count differs, by ascending id. Records for removed
// candidates are ignored.
func (l *Ledger) Verify() []models.Discrepancy {
	l.mu.Lock()
	defer l.mu.Unlock()

	counted := make(map[int]int)
	for _, rec := range l.store.VoteRecords() {
		counted[rec.CandidateID]++
	}

	var out []models.Discrepancy
	for _, c := range l.store.CandidatesByID() {
		if c.Votes != counted[c.ID] {
			out = append(out, models.Discrepancy{CandidateID: c.ID, Stored: c.Votes, Counted: counted[c.ID]})
		}
	}
	return out
}

// Summary returns counts for the status command
func (l *Ledger) Summary() models.StatusResponse {
	l.mu.Lock()
	defer l.mu.Unlock()
	return models.StatusResponse{
		Status:     l.state,
		Voters:     l.store.VoterCount(),
		Candidates: l.store.CandidateCount(),
		VotesCast:  l.store.VoteCount(),
	}
}
