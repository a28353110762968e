package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lysyi3m/rss-harvest/app/state"
)

var ErrNotFound = errors.New("snapshot resource not found")

// Store is a key-value namespace of JSON documents. Keys look like
// "latest" or "categories/sports".
type Store interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
}

var _ Store = (*FileStore)(nil)

// FileStore maps key to <root>/<key>.json. Each write replaces the file
// atomically.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (fs *FileStore) Root() string {
	return fs.root
}

func (fs *FileStore) Put(key string, data []byte) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := state.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (fs *FileStore) Get(key string) ([]byte, error) {
	path, err := fs.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (fs *FileStore) path(key string) (string, error) {
	parts := strings.Split(key, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid snapshot key: %q", key)
		}
	}
	return filepath.Join(append([]string{fs.root}, parts...)...) + ".json", nil
}

// SanitizeKey makes a partition value safe to use as a single key segment.
func SanitizeKey(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r == '/' || r == '\\' || r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	key := b.String()
	if key == "" || key == "." || key == ".." {
		return "unknown"
	}
	return key
}

// Write emits latest, every partition, the day snapshot and finally the
// index, so the index never points at a resource that was not written.
func Write(store Store, snap *Snapshot, prefix string) error {
	if err := put(store, KeyLatest, Latest{Meta: snap.Meta, Items: nonNil(snap.Items)}); err != nil {
		return err
	}

	partitions := []struct {
		kind string
		p    *Partition
	}{
		{KindCategories, snap.Categories},
		{KindLang, snap.Lang},
		{KindRegions, snap.Regions},
	}

	for _, part := range partitions {
		for _, key := range part.p.Keys() {
			if err := put(store, part.kind+"/"+SanitizeKey(key), part.p.Get(key)); err != nil {
				return err
			}
		}
	}

	if err := put(store, KindDays+"/"+SanitizeKey(snap.DayKey), nonNil(snap.Items)); err != nil {
		return err
	}

	if err := put(store, KeyIndex, snap.BuildIndex(prefix)); err != nil {
		return err
	}

	slog.Info("Snapshot written",
		"items", len(snap.Items),
		"categories", len(snap.Categories.Keys()),
		"languages", len(snap.Lang.Keys()),
		"regions", len(snap.Regions.Keys()),
		"day", snap.DayKey)

	return nil
}

func put(store Store, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return store.Put(key, data)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
