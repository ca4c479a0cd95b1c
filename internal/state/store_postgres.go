package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresKV stores current-state records in an upsert table and log entries
// in an append-only table. Uses database/sql with the pq driver.
type PostgresKV struct {
	db *sql.DB
}

func NewPostgresKV(db *sql.DB) *PostgresKV {
	return &PostgresKV{db: db}
}

// EnsureSchema creates the backing tables when they do not exist yet.
func (s *PostgresKV) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS kv_records (
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (namespace, key)
);
CREATE TABLE IF NOT EXISTS kv_log (
    id         BIGSERIAL PRIMARY KEY,
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    entry      JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS kv_log_lookup ON kv_log (namespace, key, id);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure kv schema: %w", err)
	}
	return nil
}

func (s *PostgresKV) Put(ctx context.Context, namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv_records (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		namespace, key, raw)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *PostgresKV) Append(ctx context.Context, namespace, key string, entry any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv_log (namespace, key, entry) VALUES ($1, $2, $3)`,
		namespace, key, raw)
	if err != nil {
		return fmt.Errorf("append %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *PostgresKV) Get(ctx context.Context, namespace, key string, out any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_records WHERE namespace = $1 AND key = $2`,
		namespace, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select %s/%s: %w", namespace, key, err)
	}
	return json.Unmarshal(raw, out)
}

func (s *PostgresKV) GetLog(ctx context.Context, namespace, key string, out any) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry FROM kv_log WHERE namespace = $1 AND key = $2 ORDER BY id`,
		namespace, key)
	if err != nil {
		return fmt.Errorf("select log %s/%s: %w", namespace, key, err)
	}
	defer rows.Close()

	var entries []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan log %s/%s: %w", namespace, key, err)
		}
		entries = append(entries, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate log %s/%s: %w", namespace, key, err)
	}
	if len(entries) == 0 {
		return ErrNotFound
	}
	combined, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return json.Unmarshal(combined, out)
}
