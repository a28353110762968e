package tasks

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/runenv"
	"github.com/lysyi3m/rss-harvest/app/state"
)

type mockResponse struct {
	status int
	body   string
	header http.Header
	err    error
}

// mockFetcher serves canned responses by URL and records request headers.
type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]mockResponse
	requests  map[string][]map[string]string
}

func newMockFetcher(responses map[string]mockResponse) *mockFetcher {
	return &mockFetcher{responses: responses, requests: make(map[string][]map[string]string)}
}

func (m *mockFetcher) Get(ctx context.Context, url string, opts fetcher.Options) (*fetcher.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[url] = append(m.requests[url], opts.Headers)

	resp, ok := m.responses[url]
	if !ok {
		return nil, errors.New("no such host")
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &fetcher.Response{StatusCode: resp.status, Body: []byte(resp.body), Header: resp.header}, nil
}

func (m *mockFetcher) requestCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests[url])
}

func newTestEnv(t *testing.T, client fetcher.ClientInterface, settings *feed.Settings, prior map[string]state.FetchState) *runenv.Env {
	t.Helper()
	if settings == nil {
		settings = &feed.Settings{}
	}
	env, err := runenv.New(settings, client, prior, runenv.Options{
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Failed to build env: %v", err)
	}
	return env
}

func rssFeed(items string) string {
	return `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Example Feed</title>
    <link>https://example.com</link>
    ` + items + `
  </channel>
</rss>`
}
