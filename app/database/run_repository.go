package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRepository records completed pipeline runs
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) RecordRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, generated_at, total, processed, discovered, errors, shard_index, shard_of, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.GeneratedAt.UTC(), run.Total, run.Processed, run.Discovered, run.Errors, run.ShardIndex, run.ShardOf, run.Duration.Milliseconds())

	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// GetLatestRun returns nil when no run has been recorded yet.
func (r *RunRepository) GetLatestRun(ctx context.Context) (*Run, error) {
	var run Run
	var durationMs int64

	err := r.db.QueryRowContext(ctx, `
		SELECT id, generated_at, total, processed, discovered, errors, shard_index, shard_of, duration_ms
		FROM runs
		ORDER BY generated_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.GeneratedAt, &run.Total, &run.Processed, &run.Discovered, &run.Errors, &run.ShardIndex, &run.ShardOf, &durationMs)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

func (r *RunRepository) GetRunCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}
