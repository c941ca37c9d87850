package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGStore is the Postgres-backed account store.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

var _ Store = (*PGStore)(nil)

const userColumns = `id, name, email, password_hash, role, college_id, academic_year, is_active, last_login, created_at, updated_at`

func (p *PGStore) Insert(ctx context.Context, u *User) error {
	const q = `
		INSERT INTO users (id, name, email, password_hash, role, college_id, academic_year, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := p.db.ExecContext(ctx, q,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
		nullIfEmpty(u.CollegeID), nullIfZero(u.AcademicYear), u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return p.scanOne(p.db.QueryRowContext(ctx, q, email))
}

func (p *PGStore) FindByID(ctx context.Context, id string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return p.scanOne(p.db.QueryRowContext(ctx, q, id))
}

func (p *PGStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := p.db.ExecContext(ctx, q, id, at); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (p *PGStore) SetActive(ctx context.Context, id string, active bool) error {
	const q = `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`
	res, err := p.db.ExecContext(ctx, q, id, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PGStore) scanOne(row *sql.Row) (*User, error) {
	var (
		u         User
		role      string
		college   sql.NullString
		year      sql.NullInt64
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &college, &year,
		&u.Active, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.Role = Role(role)
	u.CollegeID = college.String
	u.AcademicYear = int(year.Int64)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
