package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session // keyed by session ID
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Insert(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) RevokeAllActive(_ context.Context, userID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.UserID == userID && s.Active(now) {
			s.Revoked = true
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) RevokeByFingerprint(_ context.Context, fingerprint string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TokenFingerprint == fingerprint && s.Active(now) {
			s.Revoked = true
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) FindActiveByFingerprint(_ context.Context, fingerprint string, now time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TokenFingerprint == fingerprint && s.Active(now) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateFingerprintAndExpiry(_ context.Context, oldFingerprint, newFingerprint string, expiresAt, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TokenFingerprint == oldFingerprint && s.Active(now) {
			s.TokenFingerprint = newFingerprint
			s.ExpiresAt = expiresAt
			return nil
		}
	}
	return ErrNotFound
}

// ActiveCount reports how many sessions for the user are live at the given
// instant. Test helper.
func (m *MemoryStore) ActiveCount(userID string, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID && s.Active(now) {
			n++
		}
	}
	return n
}
