// Package college holds the institution records that scope college-bound
// accounts.
package college

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when a lookup targets a non-existent college.
var ErrNotFound = errors.New("college: not found")

// College is a registered institution.
type College struct {
	ID        string
	Name      string
	City      string
	CreatedAt time.Time
}

// Validate checks the minimum fields for creation.
func (c *College) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("college: name is required")
	}
	return nil
}

// Store persists colleges.
type Store interface {
	Insert(ctx context.Context, c *College) error
	FindByID(ctx context.Context, id string) (*College, error)
	List(ctx context.Context) ([]*College, error)
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	colleges map[string]*College
	order    []string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{colleges: make(map[string]*College)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Insert(_ context.Context, c *College) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.colleges[c.ID] = &cp
	m.order = append(m.order, c.ID)
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*College, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.colleges[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*College, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*College, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.colleges[id]
		out = append(out, &cp)
	}
	return out, nil
}
