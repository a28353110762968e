package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/rss-harvest/app/content"
	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/runenv"
	"github.com/lysyi3m/rss-harvest/app/source"
	"github.com/lysyi3m/rss-harvest/app/state"
)

const (
	maxTitleLen   = 300
	maxSummaryLen = 220
	maxBodyLen    = 1200
	fetchRetries  = 1
)

type IngestSourceTask struct {
	Task
	Source source.Source
	env    *runenv.Env
	result RunResult
}

func NewIngestSourceTask(src source.Source, env *runenv.Env) *IngestSourceTask {
	return &IngestSourceTask{
		Task:   NewTask(TaskTypeIngestSource, src.DisplayName()),
		Source: src,
		env:    env,
		result: RunResult{Source: src},
	}
}

func (t *IngestSourceTask) Result() RunResult {
	return t.result
}

// Execute never fails the cycle: every outcome, including fetch and parse
// errors, is recorded on the task's RunResult.
func (t *IngestSourceTask) Execute(ctx context.Context) error {
	feedURL := t.Source.Key()
	if feedURL == "" {
		t.result.Outcome = OutcomeSkippedNoURL
		t.result.Error = ErrNoFeedURL
		slog.Debug("Source has no feed URL, skipping", "source", t.SourceName)
		return nil
	}

	articles, fetched, err := t.ingest(ctx, feedURL)
	if err != nil {
		t.result.Outcome = OutcomeError
		t.result.Error = err.Error()
		slog.Warn("Source ingestion failed", "source", t.SourceName, "url", feedURL, "duration", t.GetDuration(), "error", err)
		return nil
	}

	if fetched == nil {
		t.result.Outcome = OutcomeNotModified
		t.result.NotModified = true
		slog.Debug("Feed not modified", "source", t.SourceName, "url", feedURL)
		return nil
	}

	t.result.Outcome = OutcomeFetched
	t.result.Items = articles
	t.result.Taken = len(articles)
	t.result.State = fetched

	slog.Debug("Task completed",
		"type", t.GetType(),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"taken", len(articles))

	return nil
}

// ingest returns a nil state when the server answered 304.
func (t *IngestSourceTask) ingest(ctx context.Context, feedURL string) ([]feed.Article, *state.FetchState, error) {
	resp, err := t.env.Fetcher.Get(ctx, feedURL, fetcher.Options{
		Headers: ConditionalHeaders(t.env.PriorState[feedURL]),
		Retries: fetchRetries,
		Timeout: t.env.FetchTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	if resp.NotModified() {
		return nil, nil, nil
	}

	metadata, items, err := t.env.Parser.Run(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	fetched := &state.FetchState{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		LastRun:      time.Now().UnixMilli(),
	}

	articles := make([]feed.Article, 0, len(items))
	for _, item := range items {
		if article, ok := t.buildArticle(metadata, item); ok {
			articles = append(articles, article)
		}
	}

	return articles, fetched, nil
}

// ConditionalHeaders turns cached validators into request headers.
func ConditionalHeaders(prior state.FetchState) map[string]string {
	headers := make(map[string]string, 2)
	if prior.ETag != "" {
		headers["If-None-Match"] = prior.ETag
	}
	if prior.LastModified != "" {
		headers["If-Modified-Since"] = prior.LastModified
	}
	return headers
}

func (t *IngestSourceTask) buildArticle(metadata *feed.Metadata, item feed.Item) (feed.Article, bool) {
	src := t.Source

	title := content.NormalizeText(item.Title, maxTitleLen)
	link := content.NormalizeURL(strings.TrimSpace(item.Link))
	if title == "" || link == "" {
		return feed.Article{}, false
	}

	if t.env.IsExcluded(link) {
		return feed.Article{}, false
	}

	summary := content.NormalizeText(content.StripHTML(cmp.Or(item.Description, item.Content)), maxSummaryLen)

	if t.env.Blacklist.IsBlocked(src.Name + " " + title + " " + summary) {
		return feed.Article{}, false
	}

	lang := src.Lang
	if lang == "" {
		lang = content.DetectLang(title + " " + summary)
	}

	classifyText := strings.Join([]string{title, summary, metadata.Title, strings.Join(item.Categories, " ")}, " ")
	category := t.env.Classifier.Classify(classifyText, src.Categories)
	if !t.env.IsAllowed(category) {
		return feed.Article{}, false
	}

	article := feed.Article{
		ID:      feed.ArticleID(link, title),
		Title:   title,
		Link:    link,
		Summary: summary,
		PubDate: item.PublishedAt,
		Source: feed.ArticleSource{
			Name:     src.DisplayName(),
			Homepage: src.Homepage,
		},
		Lang:     lang,
		Category: category,
		Region:   cmp.Or(src.Region, source.DefaultRegion),
	}

	if image := item.Image(); image != "" {
		article.Image = &image
	}

	if body := content.NormalizeText(content.StripHTML(item.Content), maxBodyLen); body != "" {
		article.Body = &body
	}

	return article, true
}
