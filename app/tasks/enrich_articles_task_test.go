package tasks

import (
	"context"
	"net/http"
	"testing"

	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/runenv"
)

func TestEnrichArticles(t *testing.T) {
	page := `<html><head>
<meta property="og:image" content="/img/cover.jpg">
<meta property="og:description" content="Page   description">
</head><body></body></html>`

	existing := "https://cdn.example.com/keep.jpg"
	articles := []feed.Article{
		{Link: "https://example.com/a"},
		{Link: "https://example.com/b", Image: &existing},
		{Link: "https://example.com/c", Summary: "already set"},
		{Link: "https://example.com/d"},
	}

	htmlHeader := http.Header{"Content-Type": {"text/html; charset=utf-8"}}
	client := newMockFetcher(map[string]mockResponse{
		"https://example.com/a": {status: 200, body: page, header: htmlHeader},
		"https://example.com/c": {status: 200, body: page, header: http.Header{"Content-Type": {"application/pdf"}}},
		"https://example.com/d": {status: 200, body: page, header: htmlHeader},
	})

	env, err := runenv.New(&feed.Settings{}, client, nil, runenv.Options{EnrichLimit: 2})
	if err != nil {
		t.Fatalf("Failed to build env: %v", err)
	}

	task := NewEnrichArticlesTask(articles, env)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if articles[0].Image == nil || *articles[0].Image != "https://example.com/img/cover.jpg" {
		t.Errorf("Expected resolved og:image, got %v", articles[0].Image)
	}
	if articles[0].Summary != "Page description" {
		t.Errorf("Expected summary from og:description, got '%s'", articles[0].Summary)
	}
	if *articles[1].Image != existing || client.requestCount("https://example.com/b") != 0 {
		t.Error("Expected article with an image to be left alone")
	}
	if articles[2].Image != nil || articles[2].Summary != "already set" {
		t.Errorf("Expected non-HTML page to be ignored, got %+v", articles[2])
	}
	if client.requestCount("https://example.com/d") != 0 {
		t.Error("Expected enrichment limit to stop before the fourth article")
	}
	if task.Enriched() != 1 {
		t.Errorf("Expected 1 enriched article, got %d", task.Enriched())
	}
}

func TestEnrichArticlesDisabled(t *testing.T) {
	client := newMockFetcher(nil)
	env := newTestEnv(t, client, nil, nil)
	articles := []feed.Article{{Link: "https://example.com/a"}}

	if err := NewEnrichArticlesTask(articles, env).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.requestCount("https://example.com/a") != 0 {
		t.Error("Expected no requests when enrichment is disabled")
	}
}
