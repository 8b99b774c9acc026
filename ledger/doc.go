// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger applies the election rules: voter registration, candidate
management, the open/closed state, vote casting and results.

# Lifecycle

	l, err := ledger.Open(gw, ledger.WithHasher(h))
	defer l.Close()

Open loads voters, candidates and the vote log, then recounts every
candidate and voted flag from the log. The log wins; if the stored values
disagree, the candidate and voter files are rewritten and the repair is
available from Reconciliation.

# Casting a Vote

CastVote checks, in order: election open, voter registered, voter has not
voted, candidate exists. It then appends to the vote log, rewrites the
candidate file and rewrites the voter file.

If the append fails nothing changes. If a later rewrite fails the vote
stands and the error wraps both ErrPersistence and ErrPartialFlush.

# Errors

All failures are sentinels checked with errors.Is. Persistence failures
wrap ErrPersistence and the gateway error.
*/
package ledger
