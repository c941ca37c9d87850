package college

import (
	"context"
	"database/sql"
	"fmt"
)

// PGStore is the Postgres-backed college store.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

var _ Store = (*PGStore)(nil)

func (p *PGStore) Insert(ctx context.Context, c *College) error {
	const q = `INSERT INTO colleges (id, name, city, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := p.db.ExecContext(ctx, q, c.ID, c.Name, c.City, c.CreatedAt); err != nil {
		return fmt.Errorf("insert college: %w", err)
	}
	return nil
}

func (p *PGStore) FindByID(ctx context.Context, id string) (*College, error) {
	const q = `SELECT id, name, city, created_at FROM colleges WHERE id = $1`
	var c College
	err := p.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.City, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find college: %w", err)
	}
	return &c, nil
}

func (p *PGStore) List(ctx context.Context) ([]*College, error) {
	const q = `SELECT id, name, city, created_at FROM colleges ORDER BY created_at`
	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	defer rows.Close()

	var out []*College
	for rows.Next() {
		var c College
		if err := rows.Scan(&c.ID, &c.Name, &c.City, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list colleges: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return out, nil
}
