package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGStore is the Postgres-backed Store used in production.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

var _ Store = (*PGStore)(nil)

func (p *PGStore) Insert(ctx context.Context, s *Session) error {
	const q = `
		INSERT INTO user_sessions (id, user_id, token_fingerprint, expires_at, is_revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := p.db.ExecContext(ctx, q, s.ID, s.UserID, s.TokenFingerprint, s.ExpiresAt, s.Revoked, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (p *PGStore) RevokeAllActive(ctx context.Context, userID string, now time.Time) (int64, error) {
	const q = `
		UPDATE user_sessions
		SET is_revoked = TRUE
		WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > $2`
	res, err := p.db.ExecContext(ctx, q, userID, now)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}
	return n, nil
}

func (p *PGStore) RevokeByFingerprint(ctx context.Context, fingerprint string, now time.Time) (bool, error) {
	const q = `
		UPDATE user_sessions
		SET is_revoked = TRUE
		WHERE token_fingerprint = $1 AND is_revoked = FALSE AND expires_at > $2`
	res, err := p.db.ExecContext(ctx, q, fingerprint, now)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	return n > 0, nil
}

func (p *PGStore) FindActiveByFingerprint(ctx context.Context, fingerprint string, now time.Time) (*Session, error) {
	const q = `
		SELECT id, user_id, token_fingerprint, expires_at, is_revoked, created_at
		FROM user_sessions
		WHERE token_fingerprint = $1 AND is_revoked = FALSE AND expires_at > $2`
	var s Session
	err := p.db.QueryRowContext(ctx, q, fingerprint, now).Scan(
		&s.ID, &s.UserID, &s.TokenFingerprint, &s.ExpiresAt, &s.Revoked, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

func (p *PGStore) UpdateFingerprintAndExpiry(ctx context.Context, oldFingerprint, newFingerprint string, expiresAt, now time.Time) error {
	const q = `
		UPDATE user_sessions
		SET token_fingerprint = $2, expires_at = $3
		WHERE token_fingerprint = $1 AND is_revoked = FALSE AND expires_at > $4`
	res, err := p.db.ExecContext(ctx, q, oldFingerprint, newFingerprint, expiresAt, now)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
