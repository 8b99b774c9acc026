// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrInvalidAdmin  = errors.New("invalid admin credentials")
	ErrUnknownScheme = errors.New("unknown hash scheme")
	ErrMissingSalt   = errors.New("hash salt required")
)

// Hash schemes accepted by NewHasher
const (
	SchemeDJB2 = "djb2"
	SchemeHMAC = "hmac"
)

// Hasher turns a secret into a deterministic credential digest
type Hasher interface {
	Digest(secret string) string
}

// NewHasher returns the hasher for the named scheme
func NewHasher(scheme, salt string) (Hasher, error) {
	switch scheme {
	case SchemeDJB2, "":
		return DJB2Hasher{}, nil
	case SchemeHMAC:
		if salt == "" {
			return nil, ErrMissingSalt
		}
		return HMACHasher{Salt: salt}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// DJB2Hasher is the legacy non-cryptographic digest: djb2 over the secret,
// rendered as upper-case hex padded to at least 8 digits.
type DJB2Hasher struct{}

func (DJB2Hasher) Digest(secret string) string {
	var h uint64 = 5381
	for i := 0; i < len(secret); i++ {
		// Bytes are sign-extended so digests match existing students.txt files
		h = (h << 5) + h + uint64(int64(int8(secret[i])))
	}
	return fmt.Sprintf("%08X", h)
}

// HMACHasher keys SHA-256 with a deployment salt
type HMACHasher struct {
	Salt string
}

func (h HMACHasher) Digest(secret string) string {
	mac := hmac.New(sha256.New, []byte(h.Salt))
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest of secret and compares it to the stored one.
// The comparison is exact: no prefix or case folding.
func Verify(h Hasher, digest, secret string) bool {
	return hmac.Equal([]byte(h.Digest(secret)), []byte(digest))
}

// ValidateAdmin checks the shell's admin login against the configured pair
func ValidateAdmin(user, pass, wantUser, wantPass string) error {
	userOK := hmac.Equal([]byte(user), []byte(wantUser))
	passOK := hmac.Equal([]byte(pass), []byte(wantPass))
	if !userOK || !passOK || wantUser == "" {
		return ErrInvalidAdmin
	}
	return nil
}
