package fetcher

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/lysyi3m/rss-harvest/app/retry"
)

const (
	DefaultBackoff = 400 * time.Millisecond
	DefaultAccept  = "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.7"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type Options struct {
	Headers map[string]string
	Retries int
	Timeout time.Duration
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) NotModified() bool {
	return r.StatusCode == http.StatusNotModified
}

type Config struct {
	UserAgent string
	MaxRPS    float64       // 0 disables rate limiting
	Backoff   time.Duration // base retry delay, DefaultBackoff when zero
}

// Client issues GET requests with a per-attempt timeout and linear retry.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	userAgent string
	backoff   time.Duration
}

func NewClient(config Config) *Client {
	c := &Client{
		http:      resty.New(),
		userAgent: cmp.Or(config.UserAgent, DefaultUserAgent),
		backoff:   config.Backoff,
	}
	if c.backoff <= 0 {
		c.backoff = DefaultBackoff
	}
	if config.MaxRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.MaxRPS), max(1, int(config.MaxRPS)))
	}
	return c
}

// Get fetches url. A 304 response is returned as-is without error so callers
// can inspect it; any other non-2xx status or transport failure is retried
// opts.Retries more times before the last error is returned.
func (c *Client) Get(ctx context.Context, url string, opts Options) (*Response, error) {
	var result *Response

	err := retry.Do(ctx, retry.Config{Retries: opts.Retries, Delay: c.backoff}, func(attempt int) error {
		resp, err := c.attempt(ctx, url, opts)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) attempt(ctx context.Context, url string, opts Options) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to wait for rate limiter: %w", err))
		}
	}

	attemptCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req := c.http.R().
		SetContext(attemptCtx).
		SetHeader("User-Agent", c.userAgent).
		SetHeader("Accept", DefaultAccept).
		SetHeaders(opts.Headers)

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	status := resp.StatusCode()
	if status == http.StatusNotModified || (status >= 200 && status < 300) {
		return &Response{
			StatusCode: status,
			Header:     resp.Header(),
			Body:       resp.Body(),
		}, nil
	}

	return nil, fmt.Errorf("HTTP error: %d %s", status, http.StatusText(status))
}
