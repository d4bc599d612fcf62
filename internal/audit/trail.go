// Package audit is the append-only log of issuance requests. The Trail
// serializes appends and owns timestamps; Store backends only persist.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"certgate/internal/audit/metrics"
)

// Store persists records in append order.
type Store interface {
	// Append persists rec after every previously appended record.
	Append(ctx context.Context, rec Record) error

	// Recent returns the last limit records, oldest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// Trail stamps and appends records to a Store.
type Trail struct {
	mu       sync.Mutex
	store    Store
	last     time.Time
	lastSeen bool

	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Trail.
type Option func(*Trail)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) {
		t.logger = logger
	}
}

// WithMetrics enables audit metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Trail) {
		t.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Trail) {
		t.now = now
	}
}

// NewTrail creates a Trail over store.
func NewTrail(store Store, opts ...Option) *Trail {
	t := &Trail{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append stamps rec with a UTC timestamp and persists it. Timestamps never go
// backwards: a clock that moved back is clamped to the previous record's
// timestamp. Storage failures are returned as *StorageError.
func (t *Trail) Append(ctx context.Context, rec Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	defer func() { t.metrics.ObserveAppendLatency(time.Since(start)) }()

	if !t.lastSeen {
		if err := t.loadLast(ctx); err != nil {
			t.metrics.IncrementAppendFailures()
			return &StorageError{Op: "append", Err: err}
		}
	}

	// Postgres keeps microseconds; truncating keeps read-back records equal.
	ts := t.now().UTC().Truncate(time.Microsecond)
	if ts.Before(t.last) {
		t.logger.WarnContext(ctx, "audit clock moved backwards, clamping timestamp",
			"clock", ts, "previous", t.last)
		ts = t.last
	}
	rec.Timestamp = ts
	if rec.Steps == nil {
		rec.Steps = []StepSummary{}
	}

	if err := t.store.Append(ctx, rec); err != nil {
		t.metrics.IncrementAppendFailures()
		return &StorageError{Op: "append", Err: err}
	}
	t.last = ts
	t.metrics.IncrementAppended()
	return nil
}

// loadLast seeds the monotonic clock from the newest persisted record so
// ordering holds across restarts.
func (t *Trail) loadLast(ctx context.Context) error {
	recent, err := t.store.Recent(ctx, 1)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		t.last = recent[len(recent)-1].Timestamp.UTC()
	}
	t.lastSeen = true
	return nil
}

// Recent returns the last limit records, newest last. A non-positive limit
// returns an empty slice.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	recs, err := t.store.Recent(ctx, limit)
	if err != nil {
		return nil, &StorageError{Op: "recent", Err: err}
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// IsStorageError reports whether err came from the storage layer.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
