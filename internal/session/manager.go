package session

import (
	"context"
	"fmt"
	"time"

	"edubook.org/internal/ids"
	"edubook.org/internal/obs"
)

// Manager applies session policy on top of a Store: one active session per
// user, revocation before issuance, and digest-only persistence.
type Manager struct {
	store Store
	now   func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerClock overrides the time source (useful for tests).
func WithManagerClock(fn func() time.Time) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager wires a Manager over the given store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create revokes every live session for the user, then records a new one
// for the given raw token. A revocation failure is logged and tolerated:
// refusing logins because old rows could not be flipped would lock users
// out, and the worst case is a stale-but-expiring extra row. An insert
// failure is fatal, since an unrecorded token could never be revoked.
func (m *Manager) Create(ctx context.Context, userID, rawToken string, expiresAt time.Time) (*Session, error) {
	now := m.now().UTC()

	revoked, err := m.store.RevokeAllActive(ctx, userID, now)
	if err != nil {
		obs.Logger().Warn().Err(err).Str("user_id", userID).
			Msg("could not revoke prior sessions; proceeding with login")
	} else if revoked > 0 {
		obs.SessionsRevoked("superseded", revoked)
	}

	s := &Session{
		ID:               ids.New(),
		UserID:           userID,
		TokenFingerprint: Fingerprint(rawToken),
		ExpiresAt:        expiresAt,
		Revoked:          false,
		CreatedAt:        now,
	}
	if err := m.store.Insert(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	obs.SessionCreated()
	return s, nil
}

// Validate looks up the live session for a raw token. It returns
// (nil, nil) when no active row exists, leaving the caller to decide how
// to phrase the rejection.
func (m *Manager) Validate(ctx context.Context, rawToken string) (*Session, error) {
	return m.store.FindActiveByFingerprint(ctx, Fingerprint(rawToken), m.now().UTC())
}

// Revoke marks the session for a raw token as revoked. It reports whether
// a live row was found; storage errors propagate so the caller can choose
// its failure mode.
func (m *Manager) Revoke(ctx context.Context, rawToken string) (bool, error) {
	ok, err := m.store.RevokeByFingerprint(ctx, Fingerprint(rawToken), m.now().UTC())
	if err != nil {
		return false, err
	}
	if ok {
		obs.SessionsRevoked("logout", 1)
	}
	return ok, nil
}

// Rotate repoints the live session backing oldRawToken at a newly issued
// token, keeping the session ID stable across refresh. A session that was
// revoked or expired since the caller last saw it comes back as
// ErrNotFound rather than being resurrected.
func (m *Manager) Rotate(ctx context.Context, oldRawToken, newRawToken string, expiresAt time.Time) error {
	return m.store.UpdateFingerprintAndExpiry(ctx,
		Fingerprint(oldRawToken), Fingerprint(newRawToken), expiresAt, m.now().UTC())
}
