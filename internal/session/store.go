package session

import (
	"context"
	"time"
)

// Store persists session records. Implementations must treat "no active
// row" as a (nil, nil) result from FindActiveByFingerprint, reserving
// errors for storage failures.
type Store interface {
	// Insert persists a new session row.
	Insert(ctx context.Context, s *Session) error

	// RevokeAllActive marks every live session for the user as revoked and
	// returns how many rows changed. Zero is not an error.
	RevokeAllActive(ctx context.Context, userID string, now time.Time) (int64, error)

	// RevokeByFingerprint revokes the session with the given fingerprint,
	// reporting whether a row was actually updated.
	RevokeByFingerprint(ctx context.Context, fingerprint string, now time.Time) (bool, error)

	// FindActiveByFingerprint returns the live session matching the
	// fingerprint, or (nil, nil) when no such row exists.
	FindActiveByFingerprint(ctx context.Context, fingerprint string, now time.Time) (*Session, error)

	// UpdateFingerprintAndExpiry repoints the live session matching
	// oldFingerprint at a new fingerprint and expiry during token refresh.
	// Returns ErrNotFound when no live row matches, including rows that
	// were revoked or expired in the meantime.
	UpdateFingerprintAndExpiry(ctx context.Context, oldFingerprint, newFingerprint string, expiresAt, now time.Time) error
}
