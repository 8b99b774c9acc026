// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package persist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
)

// File names inside the data directory
const (
	VotersFile     = "students.txt"
	CandidatesFile = "candidates.txt"
	VotesFile      = "votes.txt"
	StatusFile     = "election.txt"
)

// Delimiter separates fields on every line. Fields must not contain it.
const Delimiter = ","

// FileGateway stores each collection in its own line-oriented text file.
// Files are opened and closed per call.
type FileGateway struct {
	dir  string
	sync bool
}

type Option func(*FileGateway)

// WithSync makes every write fsync before returning
func WithSync(enabled bool) Option {
	return func(g *FileGateway) { g.sync = enabled }
}

// NewFileGateway creates the data directory if needed
func NewFileGateway(dir string, opts ...Option) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", ErrIO, err)
	}
	g := &FileGateway{dir: dir}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *FileGateway) Dir() string { return g.dir }

func (g *FileGateway) path(name string) string {
	return filepath.Join(g.dir, name)
}

// Voters: voterId,name,credentialDigest,hasVoted(0|1)

func (g *FileGateway) LoadVoters() ([]models.Voter, error) {
	voters := []models.Voter{}
	err := g.readLines(VotersFile, 4, func(fields []string) bool {
		hasVoted, err := strconv.Atoi(fields[3])
		if err != nil {
			return false
		}
		voters = append(voters, models.Voter{
			ID:               fields[0],
			Name:             fields[1],
			CredentialDigest: fields[2],
			HasVoted:         hasVoted != 0,
		})
		return true
	})
	return voters, err
}

func (g *FileGateway) SaveVoters(voters []models.Voter) error {
	return g.rewrite(VotersFile, func(w *bufio.Writer) error {
		for _, v := range voters {
			if _, err := fmt.Fprintf(w, "%s,%s,%s,%d\n", v.ID, v.Name, v.CredentialDigest, boolToInt(v.HasVoted)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Candidates: candidateId,name,department,voteCount

func (g *FileGateway) LoadCandidates() ([]models.Candidate, error) {
	candidates := []models.Candidate{}
	err := g.readLines(CandidatesFile, 4, func(fields []string) bool {
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return false
		}
		votes, err := strconv.Atoi(fields[3])
		if err != nil {
			return false
		}
		candidates = append(candidates, models.Candidate{
			ID:         id,
			Name:       fields[1],
			Department: fields[2],
			Votes:      votes,
		})
		return true
	})
	return candidates, err
}

func (g *FileGateway) SaveCandidates(candidates []models.Candidate) error {
	return g.rewrite(CandidatesFile, func(w *bufio.Writer) error {
		for _, c := range candidates {
			if _, err := fmt.Fprintf(w, "%d,%s,%s,%d\n", c.ID, c.Name, c.Department, c.Votes); err != nil {
				return err
			}
		}
		return nil
	})
}

// Vote log: voterId,candidateId,YYYY-MM-DD HH:MM:SS

func (g *FileGateway) LoadVoteRecords() ([]models.VoteRecord, error) {
	records := []models.VoteRecord{}
	err := g.readLines(VotesFile, 3, func(fields []string) bool {
		candidateID, err := strconv.Atoi(fields[1])
		if err != nil {
			return false
		}
		castAt, err := time.ParseInLocation(models.TimestampLayout, fields[2], time.Local)
		if err != nil {
			return false
		}
		records = append(records, models.VoteRecord{
			VoterID:     fields[0],
			CandidateID: candidateID,
			CastAt:      castAt,
		})
		return true
	})
	return records, err
}

func (g *FileGateway) SaveVoteRecords(records []models.VoteRecord) error {
	return g.rewrite(VotesFile, func(w *bufio.Writer) error {
		for _, r := range records {
			if _, err := w.WriteString(formatVoteRecord(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendVoteRecord adds one line to the vote log without rewriting it
func (g *FileGateway) AppendVoteRecord(r models.VoteRecord) error {
	f, err := os.OpenFile(g.path(VotesFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: append %s: %w", ErrIO, VotesFile, err)
	}
	if _, err := f.WriteString(formatVoteRecord(r)); err != nil {
		f.Close()
		return fmt.Errorf("%w: append %s: %w", ErrIO, VotesFile, err)
	}
	if g.sync {
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("%w: sync %s: %w", ErrIO, VotesFile, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, VotesFile, err)
	}
	return nil
}

// Election status: a single line, "open" or "closed"

func (g *FileGateway) LoadStatus() (models.ElectionStatus, bool, error) {
	b, err := os.ReadFile(g.path(StatusFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %w", ErrIO, StatusFile, err)
	}

	switch status := models.ElectionStatus(strings.TrimSpace(string(b))); status {
	case models.StatusOpen, models.StatusClosed:
		return status, true, nil
	default:
		slog.Warn("ignoring unknown election status", "file", StatusFile, "value", status)
		return "", false, nil
	}
}

func (g *FileGateway) SaveStatus(status models.ElectionStatus) error {
	return g.rewrite(StatusFile, func(w *bufio.Writer) error {
		_, err := w.WriteString(string(status) + "\n")
		return err
	})
}

func formatVoteRecord(r models.VoteRecord) string {
	return fmt.Sprintf("%s,%d,%s\n", r.VoterID, r.CandidateID, r.CastAt.Format(models.TimestampLayout))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// readLines calls parse for every non-empty line with at least minFields
// fields. A missing file is an empty collection. Lines that are short or
// that parse rejects are skipped.
func (g *FileGateway) readLines(name string, minFields int, parse func(fields []string) bool) error {
	f, err := os.Open(g.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, name, err)
	}
	defer f.Close()

	rd := bufio.NewReader(f)
	lineNo := 0
	for {
		line, err := rd.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("%w: read %s: %w", ErrIO, name, err)
		}
		if line != "" {
			lineNo++
			line = strings.TrimRight(line, "\r\n")
			if line != "" {
				fields := strings.Split(line, Delimiter)
				if len(fields) < minFields || !parse(fields[:minFields]) {
					slog.Warn("skipping malformed line", "file", name, "line", lineNo)
				}
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

// rewrite replaces name with whatever write produces. The new content goes
// to a temp file first and is renamed over the old one.
func (g *FileGateway) rewrite(name string, write func(w *bufio.Writer) error) error {
	tmp, err := os.CreateTemp(g.dir, name+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, name, err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: save %s: %w", ErrIO, name, err)
	}

	buf := bufio.NewWriter(tmp)
	if err := write(buf); err != nil {
		return fail(err)
	}
	if err := buf.Flush(); err != nil {
		return fail(err)
	}
	if g.sync {
		if err := tmp.Sync(); err != nil {
			return fail(err)
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: save %s: %w", ErrIO, name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: save %s: %w", ErrIO, name, err)
	}
	if err := os.Rename(tmpPath, g.path(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: save %s: %w", ErrIO, name, err)
	}
	return nil
}
