package memory

import (
	"context"
	"sync"

	"certgate/internal/audit"
)

// Store keeps records in process memory. Used by tests and ephemeral runs.
type Store struct {
	mu      sync.RWMutex
	records []audit.Record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec.Clone())
	return nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		return []audit.Record{}, nil
	}
	start := len(s.records) - limit
	if start < 0 {
		start = 0
	}
	return cloneAll(s.records[start:]), nil
}

// All returns every record in append order.
func (s *Store) All() []audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Clear drops all records.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

func cloneAll(records []audit.Record) []audit.Record {
	out := make([]audit.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
