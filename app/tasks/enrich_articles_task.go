package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lysyi3m/rss-harvest/app/content"
	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/runenv"
)

const maxEnrichWorkers = 5

// EnrichArticlesTask fills missing images, and empty summaries, of up to
// env.EnrichLimit articles from the Open Graph tags of their pages. Articles
// are updated in place.
type EnrichArticlesTask struct {
	Task
	Articles []feed.Article
	env      *runenv.Env
	enriched int
}

func NewEnrichArticlesTask(articles []feed.Article, env *runenv.Env) *EnrichArticlesTask {
	return &EnrichArticlesTask{
		Task:     NewTask(TaskTypeEnrichArticles, ""),
		Articles: articles,
		env:      env,
	}
}

func (t *EnrichArticlesTask) Execute(ctx context.Context) error {
	if t.env.EnrichLimit == 0 {
		return nil
	}

	var candidates []int
	for idx, article := range t.Articles {
		if len(candidates) == t.env.EnrichLimit {
			break
		}
		if article.Image == nil {
			candidates = append(candidates, idx)
		}
	}

	if len(candidates) == 0 {
		slog.Debug("No articles need enrichment")
		return nil
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	errorCount := 0

	for range min(len(candidates), maxEnrichWorkers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				if err := t.enrichArticle(ctx, &t.Articles[idx]); err != nil {
					slog.Debug("Failed to enrich article", "url", t.Articles[idx].Link, "error", err)
					mu.Lock()
					errorCount++
					mu.Unlock()
				}
			}
		}()
	}

	for _, idx := range candidates {
		jobCh <- idx
	}
	close(jobCh)
	wg.Wait()

	t.enriched = len(candidates) - errorCount

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", t.enriched,
		"errors", errorCount)

	return nil
}

func (t *EnrichArticlesTask) Enriched() int {
	return t.enriched
}

func (t *EnrichArticlesTask) enrichArticle(ctx context.Context, article *feed.Article) error {
	resp, err := t.env.Fetcher.Get(ctx, article.Link, fetcher.Options{
		Headers: map[string]string{"Accept": "text/html,application/xhtml+xml"},
		Timeout: t.env.FetchTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch article page: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return fmt.Errorf("content type is not HTML: %s", contentType)
	}

	meta, err := t.env.Extractor.Run(resp.Body, article.Link)
	if err != nil {
		return fmt.Errorf("failed to extract preview: %w", err)
	}

	if meta.Image != "" {
		article.Image = &meta.Image
	}
	if article.Summary == "" && meta.Description != "" {
		article.Summary = content.NormalizeText(meta.Description, maxSummaryLen)
	}

	return nil
}
