package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"aviation_intel/pkg/core/report"
)

// RunRepo handles storage of brief run history.
type RunRepo struct{}

func NewRunRepo() *RunRepo {
	return &RunRepo{}
}

// Save persists one run's session metadata keyed by run id.
//
// Schema assumption:
// CREATE TABLE IF NOT EXISTS brief_runs (
//   run_id TEXT PRIMARY KEY,
//   generated_at TIMESTAMPTZ,
//   metadata_json JSONB
// );
func (r *RunRepo) Save(ctx context.Context, meta report.Metadata) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}

	query := `
		INSERT INTO brief_runs (run_id, generated_at, metadata_json)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id)
		DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			metadata_json = EXCLUDED.metadata_json;
	`

	if _, err := pool.Exec(ctx, query, meta.RunID, meta.GeneratedAt, jsonData); err != nil {
		return fmt.Errorf("failed to save run metadata: %w", err)
	}
	return nil
}

// Load retrieves one run's metadata by run id.
func (r *RunRepo) Load(ctx context.Context, runID string) (*report.Metadata, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	err := pool.QueryRow(ctx, `SELECT metadata_json FROM brief_runs WHERE run_id = $1`, runID).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no run found for id %s", runID)
		}
		return nil, fmt.Errorf("failed to load run metadata: %w", err)
	}

	var meta report.Metadata
	if err := json.Unmarshal(jsonData, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run metadata: %w", err)
	}
	return &meta, nil
}

// ListRecent returns the run ids and timestamps of the most recent runs.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) (map[string]time.Time, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx,
		`SELECT run_id, generated_at FROM brief_runs ORDER BY generated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		out[id] = at
	}
	return out, rows.Err()
}
