// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package persist defines the persistence gateway and the text-file
// implementation.
package persist

import (
	"errors"

	"github.com/danielhkuo/quickly-vote/models"
)

// ErrIO marks a failed read or write of durable state
var ErrIO = errors.New("persistence i/o error")

// Gateway moves the ledger collections to and from durable storage.
// It holds no ledger state of its own.
type Gateway interface {
	LoadVoters() ([]models.Voter, error)
	SaveVoters(voters []models.Voter) error

	LoadCandidates() ([]models.Candidate, error)
	SaveCandidates(candidates []models.Candidate) error

	LoadVoteRecords() ([]models.VoteRecord, error)
	SaveVoteRecords(records []models.VoteRecord) error
	AppendVoteRecord(r models.VoteRecord) error
}

// StatusStore is implemented by gateways that can persist the election status.
// found is false when nothing has been saved yet.
type StatusStore interface {
	LoadStatus() (status models.ElectionStatus, found bool, err error)
	SaveStatus(status models.ElectionStatus) error
}
