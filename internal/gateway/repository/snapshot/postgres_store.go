package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"linecount/internal/linecount"
)

type PostgresStore struct {
	db     *sql.DB
	schema lazyInit
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects through the pgx stdlib driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	return s.schema.Do(func() error {
		_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS line_count_snapshots (
    key TEXT PRIMARY KEY,
    report JSONB NOT NULL,
    total BIGINT NOT NULL,
    captured_at TIMESTAMP WITH TIME ZONE NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
		return err
	})
}

func (s *PostgresStore) Put(ctx context.Context, snap Snapshot) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := validate(snap); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(snap.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO line_count_snapshots (key, report, total, captured_at, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (key)
DO UPDATE SET report=EXCLUDED.report, total=EXCLUDED.total, captured_at=EXCLUDED.captured_at, updated_at=NOW()
`, strings.TrimSpace(snap.Key), raw, snap.Report.Total, snap.CapturedAt)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Snapshot{}, fmt.Errorf("key is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Snapshot{}, err
	}
	out := Snapshot{Key: key}
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT report, captured_at FROM line_count_snapshots WHERE key=$1`, key,
	).Scan(&raw, &out.CapturedAt)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	out.Report = &linecount.Report{}
	if err := json.Unmarshal(raw, out.Report); err != nil {
		return Snapshot{}, fmt.Errorf("decode report: %w", err)
	}
	return out, nil
}
