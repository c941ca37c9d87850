// Package session tracks the server-side record that pairs each issued
// bearer token with a revocable row. The single-active-session rule is
// enforced here: logging in revokes every live row for the subject before
// inserting the new one.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup or update targets a session row
// that does not exist.
var ErrNotFound = errors.New("session: not found")

// Session is one issued-token record. Tokens are never stored raw; only
// the digest in TokenFingerprint is persisted.
type Session struct {
	ID               string
	UserID           string
	TokenFingerprint string
	ExpiresAt        time.Time
	Revoked          bool
	CreatedAt        time.Time
}

// Active reports whether the session is usable at the given instant.
// A session whose expiry equals now is already expired.
func (s *Session) Active(now time.Time) bool {
	return !s.Revoked && s.ExpiresAt.After(now)
}

// Fingerprint derives the stored digest for a raw bearer token. The raw
// token cannot be recovered from it, so a leaked sessions table does not
// leak usable credentials.
func Fingerprint(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
