package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var _ Store = (*BoltStore)(nil)

var feedStateBucket = []byte("feed_state")

// BoltStore keeps one JSON-encoded FetchState per feed URL key.
type BoltStore struct {
	db *bolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (bs *BoltStore) Load(ctx context.Context) (map[string]FetchState, error) {
	states := make(map[string]FetchState)

	err := bs.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(feedStateBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var fs FetchState
			if err := json.Unmarshal(v, &fs); err != nil {
				return fmt.Errorf("failed to unmarshal state for %s: %w", k, err)
			}
			states[string(k)] = fs
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	return states, nil
}

func (bs *BoltStore) Save(ctx context.Context, states map[string]FetchState) error {
	err := bs.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(feedStateBucket)
		if err != nil {
			return err
		}

		for key, fs := range states {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := json.Marshal(fs)
			if err != nil {
				return fmt.Errorf("failed to marshal state for %s: %w", key, err)
			}
			if err := bucket.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

func (bs *BoltStore) Close() error {
	return bs.db.Close()
}
