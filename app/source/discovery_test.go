package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/runenv"
)

type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func (m *mockFetcher) Get(ctx context.Context, url string, opts fetcher.Options) (*fetcher.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[url]++

	body, ok := m.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &fetcher.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func newTestEnv(t *testing.T, client fetcher.ClientInterface, settings *feed.Settings) *runenv.Env {
	t.Helper()
	if settings == nil {
		settings = &feed.Settings{}
	}
	env, err := runenv.New(settings, client, nil, runenv.Options{Workers: 4})
	if err != nil {
		t.Fatalf("Failed to build env: %v", err)
	}
	return env
}

func TestFeedCandidates(t *testing.T) {
	html := `<html><head>
	<link rel="stylesheet" href="/style.css">
	<link rel="alternate" type="application/atom+xml" href="/atom">
	<link rel="alternate" type="application/rss+xml" href="https://cdn.example.com/rss.xml">
</head><body>
	<a href="/about">About</a>
	<a href="/feeds/sports">Sports feed</a>
	<a href="sitemap.xml">Sitemap</a>
	<a href="/atom">Duplicate</a>
</body></html>`

	candidates, err := FeedCandidates([]byte(html), "https://example.com/news/")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// /atom lacks an xml/rss/feed signature once resolved
	expected := []string{
		"https://cdn.example.com/rss.xml",
		"https://example.com/feeds/sports",
		"https://example.com/news/sitemap.xml",
	}
	if len(candidates) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, candidates)
	}
	for i := range expected {
		if candidates[i] != expected[i] {
			t.Errorf("Expected candidate %d '%s', got '%s'", i, expected[i], candidates[i])
		}
	}
}

func TestDiscoverFeedEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := fetcher.NewClient(fetcher.Config{UserAgent: "Test Agent", Backoff: time.Millisecond})
	feedURL, err := DiscoverFeed(context.Background(), client, server.URL, time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feedURL != server.URL+"/feed.xml" {
		t.Errorf("Expected '%s/feed.xml', got '%s'", server.URL, feedURL)
	}
}

func TestDiscoverFeedNoMatch(t *testing.T) {
	client := &mockFetcher{pages: map[string]string{
		"https://plain.example.com": `<html><body><a href="/about">About</a></body></html>`,
	}}

	if _, err := DiscoverFeed(context.Background(), client, "https://plain.example.com", time.Second); err == nil {
		t.Error("Expected error when no feed link is present")
	}
}

func TestDiscover(t *testing.T) {
	client := &mockFetcher{pages: map[string]string{
		"https://example.com":      `<link rel="alternate" type="application/rss+xml" href="/feed.xml">`,
		"https://blocked.example":  `<a href="/video/feed.xml">Video</a>`,
		"https://twin.example.com": `<a href="https://example.com/feed.xml#dup">Twin</a>`,
	}}
	settings := &feed.Settings{ExcludedPaths: []string{"/video/"}}
	env := newTestEnv(t, client, settings)

	in := Inputs{
		Seeds: []Source{
			{Name: "Example", Homepage: "https://example.com", Categories: []string{"sports"}},
			{Name: "Down", Homepage: "https://down.example.com"},
			{Name: "Blocked", Homepage: "https://blocked.example"},
			{Name: "Twin", Homepage: "https://twin.example.com"},
			{Name: "Direct", FeedURL: "https://direct.example.com/rss"},
			{Name: "Nothing"},
		},
		OPML: []Source{
			{Name: "From OPML", FeedURL: "https://opml.example.com/rss"},
			{Name: "OPML dup", FeedURL: "https://direct.example.com/rss"},
		},
		Explicit: []Source{
			{Name: "Override", FeedURL: "https://example.com/feed.xml"},
			{Name: "Extra", FeedURL: "https://extra.example.com/rss"},
		},
	}

	sources := Discover(context.Background(), env, in)

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	expected := []string{"Example", "Direct", "From OPML", "Extra"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected '%s' at %d, got '%s'", expected[i], i, names[i])
		}
	}

	if sources[0].FeedURL != "https://example.com/feed.xml" {
		t.Errorf("Expected discovered feed URL, got '%s'", sources[0].FeedURL)
	}
	if client.calls["https://down.example.com"] != 1 {
		t.Errorf("Expected unreachable homepage to be tried, got %d calls", client.calls["https://down.example.com"])
	}
}
