// Package memory provides a map-backed store.Reader for tests and for
// embedding the linker in programs that already hold their data in memory.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/table"
)

// Store is a concurrent safe in-memory table store.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
	reads  map[string]int
}

// Option configures a Store.
type Option func(*Store)

// WithTables initializes the store with existing tables.
func WithTables(tables map[string]*table.Table) Option {
	return func(s *Store) {
		for name, t := range tables {
			s.tables[name] = t.Copy()
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table.Table),
		reads:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores a copy of t under name, replacing any previous table.
func (s *Store) Set(name string, t *table.Table) error {
	if t == nil {
		return errors.NewValidationError("table", name, "cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = t.Copy()
	return nil
}

// ReadTable implements store.Reader. Rows whose archived_date is set are
// skipped, matching the SQL store.
func (s *Store) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapStore("read", name, err)
	}

	s.mu.Lock()
	s.reads[name]++
	t, ok := s.tables[name]
	s.mu.Unlock()

	if !ok {
		return nil, errors.WrapStore("read", name, errors.NewNotFoundError("table", name))
	}
	if !t.HasColumn(constants.ArchivedColumn) {
		return t.Copy(), nil
	}

	out := table.New(t.Columns()...)
	for _, r := range t.Rows() {
		if table.IsMissing(r.Get(constants.ArchivedColumn)) {
			out.Append(r)
		}
	}
	return out, nil
}

// Reads returns how many times each table has been read.
func (s *Store) Reads() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.reads)
}

// Tables returns the names of the stored tables.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names
}
