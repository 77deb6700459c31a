// Package auth is the optional bearer/API-key guard in front of /api/*
// (§6). The engine has one auth concern — a single shared secret an
// operator may configure — so this is deliberately a fraction of the
// teacher's SMART-on-FHIR/OIDC/ABAC auth stack: there is no patient
// record, consent scope, or break-glass context for any of that
// machinery to act on here.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashKey returns the SHA-256 hex digest of a raw API key, the form
// compared against (never the raw key itself, mirroring the teacher's
// apikey.go storage pattern).
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// staticChecker compares a presented key's hash against one configured
// hash in constant time.
type staticChecker struct {
	hash string
}

// NewStaticChecker builds a checker for a single configured API key.
func NewStaticChecker(rawKey string) *staticChecker {
	return &staticChecker{hash: HashKey(rawKey)}
}

// Check reports whether raw matches the configured key.
func (c *staticChecker) Check(raw string) bool {
	if c.hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashKey(raw)), []byte(c.hash)) == 1
}
