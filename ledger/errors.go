// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateVoter   = errors.New("voter already registered")
	ErrEmptyVoterID     = errors.New("voter id cannot be empty")
	ErrInvalidField     = errors.New("field contains a delimiter or line break")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyVoted     = errors.New("voter has already voted")
	ErrElectionClosed   = errors.New("election is closed")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrUnknownVoter     = errors.New("unknown voter")
	ErrBadCredential    = errors.New("wrong credential")
	ErrNoCandidates     = errors.New("no candidates")
	ErrPersistence      = errors.New("persistence failure")

	// ErrPartialFlush accompanies ErrPersistence when a vote reached the vote
	// log but the candidate or voter files could not be rewritten. The vote
	// stands; the files are repaired from the log on the next Open.
	ErrPartialFlush = errors.New("vote recorded, derived files not flushed")
)

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
