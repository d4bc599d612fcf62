// Package file stores the audit log as a single JSON array document. Every
// append rewrites the whole file through a temp file and rename, so readers
// always see a complete array.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"certgate/internal/audit"
)

// Store is the JSON-array audit log.
type Store struct {
	mu   sync.Mutex
	path string
}

// New opens the log at path, creating it as "[]" on first use.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("audit file path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeAtomic(path, []byte("[]\n")); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat audit file: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the log location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Append(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	entries = append(entries, raw)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}
	return writeAtomic(s.path, append(data, '\n'))
}

func (s *Store) Recent(_ context.Context, limit int) ([]audit.Record, error) {
	s.mu.Lock()
	entries, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []audit.Record{}, nil
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]audit.Record, 0, len(entries))
	for i, raw := range entries {
		var rec audit.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode audit record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// load keeps entries as raw JSON so existing records are rewritten verbatim.
func (s *Store) load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read audit file: %w", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("audit file %s is not a JSON array: %w", s.path, err)
	}
	return entries, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".audit-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp audit file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp audit file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp audit file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp audit file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp audit file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace audit file: %w", err)
	}
	return nil
}
