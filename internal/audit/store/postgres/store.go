// Package postgres stores audit records in an append-only table ordered by a
// BIGSERIAL key.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"certgate/internal/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id          BIGSERIAL PRIMARY KEY,
	request_id  TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	operation   TEXT NOT NULL,
	actor       TEXT NOT NULL,
	status      TEXT NOT NULL,
	record      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_records_request_id_idx ON audit_records (request_id);
`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a store over an open database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	return &Store{db: db}, nil
}

// Migrate creates the audit table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, rec audit.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	query := `
		INSERT INTO audit_records (request_id, recorded_at, operation, actor, status, record)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.RequestID,
		rec.Timestamp,
		rec.Operation,
		rec.Actor,
		string(rec.Result.Status),
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		return []audit.Record{}, nil
	}
	query := `
		SELECT record FROM (
			SELECT id, record FROM audit_records ORDER BY id DESC LIMIT $1
		) recent
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	out := make([]audit.Record, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		var rec audit.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode audit record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return out, nil
}
