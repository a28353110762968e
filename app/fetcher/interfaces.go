package fetcher

import "context"

// ClientInterface is the fetch capability used by discovery, ingestion and
// enrichment. Tests substitute their own implementation.
type ClientInterface interface {
	Get(ctx context.Context, url string, opts Options) (*Response, error)
}

var _ ClientInterface = (*Client)(nil)
