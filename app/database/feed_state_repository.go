package database

import (
	"context"
	"fmt"

	"github.com/lysyi3m/rss-harvest/app/state"
)

// FeedStateRepository persists fetch state in the feed_states table.
type FeedStateRepository struct {
	db *DB
}

func NewFeedStateRepository(db *DB) *FeedStateRepository {
	return &FeedStateRepository{db: db}
}

func (r *FeedStateRepository) Load(ctx context.Context) (map[string]state.FetchState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT feed_url, etag, last_modified, last_run FROM feed_states`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]state.FetchState)
	for rows.Next() {
		var feedURL string
		var fs state.FetchState
		if err := rows.Scan(&feedURL, &fs.ETag, &fs.LastModified, &fs.LastRun); err != nil {
			return nil, fmt.Errorf("failed to scan feed state: %w", err)
		}
		states[feedURL] = fs
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed states: %w", err)
	}

	return states, nil
}

// Save upserts every entry in one transaction. Rows missing from states are
// left in place.
func (r *FeedStateRepository) Save(ctx context.Context, states map[string]state.FetchState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feed_states (feed_url, etag, last_modified, last_run, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (feed_url) DO UPDATE SET
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			last_run = excluded.last_run,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for feedURL, fs := range states {
		if _, err := stmt.ExecContext(ctx, feedURL, fs.ETag, fs.LastModified, fs.LastRun); err != nil {
			return fmt.Errorf("failed to upsert feed state %s: %w", feedURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feed states: %w", err)
	}

	return nil
}

// Close is a no-op; the connection is owned by the caller.
func (r *FeedStateRepository) Close() error {
	return nil
}
