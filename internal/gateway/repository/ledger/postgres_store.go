package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresWithDB(db), nil
}

func NewPostgresWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS gateway_calls (
  id TEXT PRIMARY KEY,
  call TEXT NOT NULL,
  crate TEXT NOT NULL DEFAULT '',
  success BOOLEAN NOT NULL DEFAULT FALSE,
  panicked BOOLEAN NOT NULL DEFAULT FALSE,
  error TEXT NOT NULL DEFAULT '',
  duration_ms BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_gateway_calls_created_at ON gateway_calls (created_at DESC);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) (Entry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Entry{}, err
	}
	e = normalize(e)
	if e.Call == "" {
		return Entry{}, fmt.Errorf("call is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO gateway_calls (id, call, crate, success, panicked, error, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Call, e.Crate, e.Success, e.Panicked, e.Error, e.Duration.Milliseconds(), e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Entry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Entry{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, fmt.Errorf("id is required")
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, call, crate, success, panicked, error, duration_ms, created_at
FROM gateway_calls WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, call, crate, success, panicked, error, duration_ms, created_at
FROM gateway_calls ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Entry, 0, 32)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e  Entry
		ms int64
	)
	if err := row.Scan(&e.ID, &e.Call, &e.Crate, &e.Success, &e.Panicked, &e.Error, &ms, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.Duration = time.Duration(ms) * time.Millisecond
	return e, nil
}
