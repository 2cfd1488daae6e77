// Package storage persists the full project map as one JSON snapshot in a
// local SQLite file. There is no per-record granularity: every save rewrites
// the single blob under a fixed key.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"kopdes/internal/core"

	_ "modernc.org/sqlite"
)

// SnapshotKey is the fixed row key. It carries the original data version
// suffix so old exports remain recognizable.
const SnapshotKey = "kopdes_data_v2"

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load reads the stored snapshot. The second return value reports whether a
// snapshot existed; a cold start returns (nil, false, nil).
func (r *SnapshotRepository) Load(ctx context.Context) (map[int]core.ProjectRecord, bool, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE key = ?`, SnapshotKey,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snapshot map[int]core.ProjectRecord
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot loaded", "key", SnapshotKey, "locations", len(snapshot), "bytes", len(body))
	return snapshot, true, nil
}

// Save upserts the full snapshot atomically.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot map[int]core.ProjectRecord) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`,
		SnapshotKey, body,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
