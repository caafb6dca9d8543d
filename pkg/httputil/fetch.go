package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/observability"
)

const (
	// DefaultTTL is how long a downloaded file is reused.
	DefaultTTL = 24 * time.Hour

	// MaxBodySize bounds a downloaded file.
	MaxBodySize = 256 << 20

	userAgent = "choropleth"
)

// DefaultBackoff retries a download 3 times, starting at 1 second.
var DefaultBackoff = cache.Backoff{Attempts: 3, Delay: time.Second}

// IsURL reports whether s is an http or https URL rather than a file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetcher downloads files over HTTP through a cache.
type Fetcher struct {
	Client  *http.Client
	Cache   cache.Cache
	TTL     time.Duration
	Backoff cache.Backoff
	Logger  *log.Logger
}

// NewFetcher creates a fetcher with default client, TTL and backoff.
// A nil cache disables caching.
func NewFetcher(c cache.Cache, logger *log.Logger) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{
		Client:  &http.Client{Timeout: time.Minute},
		Cache:   c,
		TTL:     DefaultTTL,
		Backoff: DefaultBackoff,
		Logger:  logger,
	}
}

// Fetch returns the body of url, from the cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := "fetch:" + cache.Hash([]byte(url))

	data, hit, err := f.Cache.Get(ctx, key)
	switch {
	case err != nil:
		f.Logger.Warn("fetch cache read failed", "error", err)
	case hit:
		observability.Cache().OnCacheHit(ctx, "fetch")
		f.Logger.Debug("using cached download", "url", url)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "fetch")

	err = cache.RetryWithBackoff(ctx, f.Backoff, func() error {
		var getErr error
		data, getErr = f.get(ctx, url)
		return getErr
	})
	if err != nil {
		return nil, err
	}

	if err := f.Cache.Set(ctx, key, data, f.TTL); err != nil {
		f.Logger.Warn("fetch cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "fetch", len(data))
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid url %q", url)
	}
	req.Header.Set("User-Agent", userAgent)

	f.Logger.Debug("downloading", "url", url)
	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("get %s: %w", url, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("get %s: %s", url, resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "get %s: %s", url, resp.Status)
	case resp.StatusCode >= 400:
		return nil, errors.New(errors.ErrCodeInvalidInput, "get %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("read %s: %w", url, err))
	}
	if len(body) > MaxBodySize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "get %s: body exceeds %d bytes", url, MaxBodySize)
	}
	return body, nil
}
