package source

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-harvest/app/fetcher"
)

type VerifyStatus string

const (
	VerifyOK     VerifyStatus = "ok"
	VerifyNoFeed VerifyStatus = "no_feed"
	VerifyError  VerifyStatus = "error"
)

type VerifyResult struct {
	Source  Source
	Status  VerifyStatus
	FeedURL string
	Error   string
}

// Verify checks that every seed homepage is reachable and advertises a feed.
// Results keep seed order.
func Verify(ctx context.Context, client fetcher.ClientInterface, seeds []Source, timeout time.Duration, workers int) []VerifyResult {
	results := make([]VerifyResult, len(seeds))

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for range min(len(seeds), max(workers, 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				results[idx] = verifySeed(ctx, client, seeds[idx], timeout)
			}
		}()
	}

	for idx := range seeds {
		jobCh <- idx
	}
	close(jobCh)
	wg.Wait()

	counts := make(map[VerifyStatus]int, 3)
	for _, result := range results {
		counts[result.Status]++
		logVerifyResult(result)
	}

	slog.Info("Seed verification completed",
		"seeds", len(seeds),
		"ok", counts[VerifyOK],
		"no_feed", counts[VerifyNoFeed],
		"errors", counts[VerifyError])

	return results
}

func verifySeed(ctx context.Context, client fetcher.ClientInterface, seed Source, timeout time.Duration) VerifyResult {
	result := VerifyResult{Source: seed}

	if seed.Homepage == "" {
		result.Status = VerifyError
		result.Error = "no homepage"
		return result
	}

	feedURL, err := DiscoverFeed(ctx, client, seed.Homepage, timeout)
	switch {
	case errors.Is(err, ErrNoFeedLink):
		result.Status = VerifyNoFeed
	case err != nil:
		result.Status = VerifyError
		result.Error = err.Error()
	default:
		result.Status = VerifyOK
		result.FeedURL = feedURL
	}

	return result
}

func logVerifyResult(result VerifyResult) {
	name := result.Source.DisplayName()

	switch result.Status {
	case VerifyOK:
		slog.Info("Feed discovered", "source", name, "homepage", result.Source.Homepage, "feed", result.FeedURL)
	case VerifyNoFeed:
		slog.Warn("No feed link found", "source", name, "homepage", result.Source.Homepage)
	default:
		slog.Warn("Seed check failed", "source", name, "homepage", result.Source.Homepage, "error", result.Error)
	}
}
