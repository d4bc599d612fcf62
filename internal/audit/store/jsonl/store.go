// Package jsonl stores the audit log as JSON Lines. Appends are single
// O_APPEND writes; existing lines are never rewritten.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"certgate/internal/audit"
)

// Store is the append-only JSON Lines audit log.
type Store struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// New opens (or creates) the log at path for appending.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("audit file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Store{path: path, f: f}, nil
}

func (s *Store) Append(_ context.Context, rec audit.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New("audit log is closed")
	}
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}
	return nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		return []audit.Record{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	// Keep only the last limit lines in a ring. Lines have no length cap.
	ring := make([][]byte, 0, limit)
	next := 0
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read audit log: %w", err)
		}
		if trimmed := bytes.TrimRight(line, "\r\n"); len(trimmed) > 0 {
			if len(ring) < limit {
				ring = append(ring, trimmed)
			} else {
				ring[next] = trimmed
				next = (next + 1) % limit
			}
		}
		if err != nil {
			break
		}
	}

	out := make([]audit.Record, 0, len(ring))
	for i := range ring {
		line := ring[(next+i)%len(ring)]
		var rec audit.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode audit line: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close releases the append handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
