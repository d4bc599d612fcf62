package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/internal/audit"
	"certgate/internal/audit/storetest"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "audit_log.json"))
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) audit.Store { return newStore(t) })
}

func TestNew_CreatesEmptyArray(t *testing.T) {
	s := newStore(t)
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Empty(t, entries)
}

func TestAppend_FileIsValidJSONArray(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, storetest.Record(i, time.Now())))
	}

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	for _, key := range []string{"timestamp", "operation", "request", "policy_check", "result", "request_id", "actor", "steps"} {
		assert.Contains(t, entries[0], key)
	}
	result := entries[2]["result"].(map[string]any)
	assert.Equal(t, "SUCCESS", result["status"])
}

func TestAppend_PreservesForeignEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit_log.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"timestamp":"2025-01-01T00:00:00Z","operation":"certificate_generation","legacy":true}]`), 0o644))

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, storetest.Record(1, time.Now())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, true, entries[0]["legacy"])
}

func TestAppend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit_log.json")
	require.NoError(t, os.WriteFile(path, []byte("{not an array"), 0o644))

	s, err := New(path)
	require.NoError(t, err)
	assert.Error(t, s.Append(context.Background(), storetest.Record(1, time.Now())))

	_, err = s.Recent(context.Background(), 1)
	assert.Error(t, err)
}
