package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/runenv"
)

const feedCandidateSelector = `link[rel="alternate"][type*="rss"], link[rel="alternate"][type*="atom"], a[href*="rss"], a[href*="feed"], a[href$=".xml"]`

const homepageAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

var feedSignature = regexp.MustCompile(`(?i)xml|rss|feed`)

// ErrNoFeedLink is returned by DiscoverFeed when the homepage was fetched but
// carries no feed-like link.
var ErrNoFeedLink = errors.New("no feed link found")

// Inputs are the raw source lists a run starts from.
type Inputs struct {
	Seeds    []Source
	OPML     []Source
	Explicit []Source
}

// Discover builds the run's source list: seeds resolved through homepage
// autodiscovery, then OPML entries, deduplicated by feed URL, with explicit
// sources appended last.
func Discover(ctx context.Context, env *runenv.Env, in Inputs) []Source {
	registry := NewRegistry()

	resolved := resolveSeeds(ctx, env, in.Seeds)
	for _, src := range resolved {
		admit(env, registry, src)
	}

	for _, src := range in.OPML {
		admit(env, registry, src)
	}

	slog.Info("Sources discovered",
		"seeds", len(in.Seeds),
		"resolved", len(resolved),
		"opml", len(in.OPML),
		"registered", registry.Len())

	return Merge(registry.Sources(), in.Explicit)
}

func admit(env *runenv.Env, registry *Registry, src Source) {
	if env.IsExcluded(src.FeedURL) {
		slog.Debug("Feed URL excluded by path filter", "source", src.DisplayName(), "url", src.FeedURL)
		return
	}
	registry.Add(src)
}

// resolveSeeds runs homepage discovery through a bounded worker pool. Results
// keep seed order; seeds whose discovery fails are dropped.
func resolveSeeds(ctx context.Context, env *runenv.Env, seeds []Source) []Source {
	if len(seeds) == 0 {
		return nil
	}

	out := make([]Source, len(seeds))
	found := make([]bool, len(seeds))

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for range min(len(seeds), env.Workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				out[idx], found[idx] = resolveSeed(ctx, env, seeds[idx])
			}
		}()
	}

	for idx := range seeds {
		jobCh <- idx
	}
	close(jobCh)
	wg.Wait()

	resolved := make([]Source, 0, len(seeds))
	for idx, ok := range found {
		if ok {
			resolved = append(resolved, out[idx])
		}
	}
	return resolved
}

func resolveSeed(ctx context.Context, env *runenv.Env, seed Source) (Source, bool) {
	if seed.FeedURL != "" {
		return seed, true
	}
	if seed.Homepage == "" {
		return Source{}, false
	}

	feedURL, err := DiscoverFeed(ctx, env.Fetcher, seed.Homepage, env.DiscoveryTimeout)
	if err != nil {
		slog.Debug("Feed discovery failed", "source", seed.DisplayName(), "homepage", seed.Homepage, "error", err)
		return Source{}, false
	}

	seed.FeedURL = feedURL
	return seed, true
}

// DiscoverFeed fetches homepage and returns the first feed-like link found.
func DiscoverFeed(ctx context.Context, client fetcher.ClientInterface, homepage string, timeout time.Duration) (string, error) {
	resp, err := client.Get(ctx, homepage, fetcher.Options{
		Headers: map[string]string{"Accept": homepageAccept},
		Retries: 1,
		Timeout: timeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch homepage: %w", err)
	}
	if resp.NotModified() {
		return "", fmt.Errorf("homepage returned no content")
	}

	candidates, err := FeedCandidates(resp.Body, homepage)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", ErrNoFeedLink
	}

	return candidates[0], nil
}

// FeedCandidates lists feed-like links in document order, resolved against
// base and deduplicated.
func FeedCandidates(html []byte, base string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var candidates []string

	doc.Find(feedCandidateSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		resolved := baseURL.ResolveReference(ref).String()
		if !feedSignature.MatchString(resolved) || seen[resolved] {
			return
		}

		seen[resolved] = true
		candidates = append(candidates, resolved)
	})

	return candidates, nil
}
