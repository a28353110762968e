package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/tasks"
)

// recordingStore keeps writes in memory and remembers their order.
type recordingStore struct {
	order []string
	data  map[string][]byte
	fail  string
}

func (s *recordingStore) Put(key string, data []byte) error {
	if key == s.fail {
		return errors.New("disk full")
	}
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.order = append(s.order, key)
	s.data[key] = data
	return nil
}

func (s *recordingStore) Get(key string) ([]byte, error) {
	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func TestWriteOrderAndContent(t *testing.T) {
	env := testEnv(t)
	snap := Assemble(env, &tasks.Report{Shards: 5}, []feed.Article{
		article("1", at(1), "sports", "ar", "mena"),
		article("2", at(0), "markets", "en", "global"),
	})

	store := &recordingStore{}
	if err := Write(store, snap, "/api"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{
		"latest",
		"categories/sports", "categories/markets",
		"lang/ar", "lang/en",
		"regions/mena", "regions/global",
		"days/2024-03-09",
		"index",
	}
	if len(store.order) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, store.order)
	}
	for i, key := range expected {
		if store.order[i] != key {
			t.Errorf("Expected %s at %d, got %s", key, i, store.order[i])
		}
	}

	var latest Latest
	if err := json.Unmarshal(store.data["latest"], &latest); err != nil {
		t.Fatalf("Failed to decode latest: %v", err)
	}
	if latest.Meta.Total != 2 || len(latest.Items) != 2 || latest.Items[0].ID != "1" {
		t.Errorf("Unexpected latest document: %+v", latest)
	}

	var day []feed.Article
	if err := json.Unmarshal(store.data["days/2024-03-09"], &day); err != nil {
		t.Fatalf("Failed to decode day snapshot: %v", err)
	}
	if len(day) != 2 {
		t.Errorf("Expected 2 articles in the day snapshot, got %d", len(day))
	}
}

func TestWriteStopsBeforeIndexOnFailure(t *testing.T) {
	env := testEnv(t)
	snap := Assemble(env, &tasks.Report{}, []feed.Article{article("1", at(1), "sports", "ar", "mena")})

	store := &recordingStore{fail: "regions/mena"}
	if err := Write(store, snap, "/api"); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if _, err := store.Get(KeyIndex); !errors.Is(err, ErrNotFound) {
		t.Error("Expected index not to be written after a failed partition write")
	}
}

func TestWriteCollidingPartitionKeys(t *testing.T) {
	env := testEnv(t)
	snap := Assemble(env, &tasks.Report{}, []feed.Article{
		article("1", at(2), "a/b", "", "global"),
		article("2", at(1), "a_b", "unknown", "global"),
	})

	store := &recordingStore{}
	if err := Write(store, snap, "/api"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var grouped []feed.Article
	if err := json.Unmarshal(store.data["categories/a_b"], &grouped); err != nil {
		t.Fatalf("Failed to decode partition: %v", err)
	}
	if len(grouped) != 2 || grouped[0].ID != "1" || grouped[1].ID != "2" {
		t.Errorf("Expected both articles in categories/a_b, got %+v", grouped)
	}

	var langs []feed.Article
	if err := json.Unmarshal(store.data["lang/unknown"], &langs); err != nil {
		t.Fatalf("Failed to decode partition: %v", err)
	}
	if len(langs) != 2 {
		t.Errorf("Expected 2 articles in lang/unknown, got %d", len(langs))
	}

	index := snap.BuildIndex("/api")
	if len(index.Categories) != 1 || index.Categories[0] != "/api/categories/a_b.json" {
		t.Errorf("Expected a single category path, got %v", index.Categories)
	}
	if len(index.Lang) != 1 {
		t.Errorf("Expected a single language path, got %v", index.Lang)
	}
}

func TestWriteEmptySnapshot(t *testing.T) {
	env := testEnv(t)
	snap := Assemble(env, &tasks.Report{}, nil)

	store := &recordingStore{}
	if err := Write(store, snap, "/api"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if string(store.data["days/2024-03-09"]) != "[]" {
		t.Errorf("Expected empty array, got %s", store.data["days/2024-03-09"])
	}

	var latest map[string]json.RawMessage
	if err := json.Unmarshal(store.data["latest"], &latest); err != nil {
		t.Fatalf("Failed to decode latest: %v", err)
	}
	if string(latest["items"]) != "[]" {
		t.Errorf("Expected items to be an empty array, got %s", latest["items"])
	}
}

func TestFileStore(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)

	if err := store.Put("categories/sports", []byte(`[]`)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "categories", "sports.json")); err != nil {
		t.Errorf("Expected file on disk, got: %v", err)
	}

	data, err := store.Get("categories/sports")
	if err != nil || string(data) != "[]" {
		t.Errorf("Expected '[]', got %q (%v)", data, err)
	}

	if _, err := store.Get("categories/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	for _, key := range []string{"../escape", "categories/..", "", "a//b"} {
		if err := store.Put(key, []byte("x")); err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"sports", "sports"},
		{"a/b", "a_b"},
		{" ", "unknown"},
		{"..", "unknown"},
		{"رياضة", "رياضة"},
		{`x\y`, "x_y"},
	}

	for _, tc := range cases {
		if got := SanitizeKey(tc.input); got != tc.expected {
			t.Errorf("Expected SanitizeKey(%q) = %q, got %q", tc.input, tc.expected, got)
		}
	}
}
