package state

import (
	"context"
	"maps"
)

// FetchState holds the cached validators of one feed, keyed by feed URL.
type FetchState struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	LastRun      int64  `json:"ts"` // unix milliseconds
}

// Store persists the full fetch-state map. Save writes every entry it is
// given and never removes keys that are absent from the map.
type Store interface {
	Load(ctx context.Context) (map[string]FetchState, error)
	Save(ctx context.Context, states map[string]FetchState) error
	Close() error
}

// Merge returns prior overlaid with updates. Keys only present in prior are kept.
func Merge(prior, updates map[string]FetchState) map[string]FetchState {
	merged := make(map[string]FetchState, len(prior)+len(updates))
	maps.Copy(merged, prior)
	maps.Copy(merged, updates)
	return merged
}
