package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SnapshotCache stores the raw dataset payload in a local sqlite file so a
// restart within the TTL does not hit the remote API again. One row per
// dataset ID; a re-fetch overwrites the previous snapshot.
type SnapshotCache struct {
	db *sql.DB
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	dataset_id TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	payload    BLOB NOT NULL
)`

func OpenSnapshotCache(path string) (*SnapshotCache, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}

	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot schema: %w", err)
	}

	return &SnapshotCache{db: db}, nil
}

// Fresh returns the cached payload for datasetID if it was fetched within
// ttl. The second return reports whether a usable snapshot was found.
func (sc *SnapshotCache) Fresh(ctx context.Context, datasetID string, ttl time.Duration) ([]byte, bool, error) {
	var fetchedAt int64
	var payload []byte

	row := sc.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM snapshots WHERE dataset_id = ?`, datasetID)
	if err := row.Scan(&fetchedAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read snapshot: %w", err)
	}

	if time.Since(time.Unix(fetchedAt, 0)) > ttl {
		return nil, false, nil
	}
	return payload, true, nil
}

func (sc *SnapshotCache) Store(ctx context.Context, datasetID string, payload []byte) error {
	_, err := sc.db.ExecContext(ctx,
		`INSERT INTO snapshots (dataset_id, fetched_at, payload) VALUES (?, ?, ?)
		 ON CONFLICT(dataset_id) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload`,
		datasetID, time.Now().Unix(), payload)
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot for datasetID so the next load re-fetches.
func (sc *SnapshotCache) Invalidate(ctx context.Context, datasetID string) error {
	_, err := sc.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}

func (sc *SnapshotCache) Close() error {
	return sc.db.Close()
}
