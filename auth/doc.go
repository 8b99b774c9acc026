// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential digests and the admin login gate.

# Credential Digests

Voter secrets are never stored; the ledger keeps a digest produced by a
Hasher:

	h, err := auth.NewHasher(cfg.HashScheme, cfg.HashSalt)
	digest := h.Digest(secret)
	ok := auth.Verify(h, digest, secret)

Two schemes are available:

  - djb2 (default): the legacy 64-bit djb2 checksum as upper-case hex,
    compatible with existing students.txt files. Not cryptographic.
  - hmac: HMAC-SHA256 keyed with HASH_SALT, hex encoded.

Switching schemes invalidates existing digests; voters registered under the
old scheme can no longer log in.

# Admin Gate

	err := auth.ValidateAdmin(user, pass, cfg.AdminUser, cfg.AdminPass)

Returns ErrInvalidAdmin unless both values match the configured pair.
*/
package auth
