// Package fetch retrieves remote content: rule lists, page HTML and
// Markdown, and JSON tables.
//
// Every request is a single attempt; retry and backoff are left to
// callers. GetConditional keeps the last body per URL and revalidates it
// with If-None-Match.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Sentinel errors for fetch operations.
var (
	ErrEmptyURL     = errors.New("URL cannot be empty")
	ErrStatus       = errors.New("unexpected HTTP status")
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

// Defaults applied by New.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 10 << 20
	DefaultUserAgent = "go-locprep"
)

// StatusError reports a non-success response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", ErrStatus, e.URL, e.StatusCode)
}

// Unwrap lets errors.Is match ErrStatus.
func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Config configures a Fetcher. Zero values take the defaults.
type Config struct {
	Timeout   time.Duration
	MaxBytes  int64 // larger bodies fail with ErrBodyTooLarge
	UserAgent string
	Client    *http.Client // overrides Timeout when set
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: c.Timeout}
	}
}

// Result is a fetched body with its validators.
type Result struct {
	Body       []byte
	StatusCode int
	ETag       string
	Cached     bool // served from the conditional cache after a 304
}

type cacheEntry struct {
	etag string
	body []byte
}

// Fetcher performs GET requests. It is safe for concurrent use.
type Fetcher struct {
	config Config

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{config: cfg, cache: make(map[string]cacheEntry)}
}

// Get fetches url and returns its body. Non-2xx responses fail with a
// *StatusError.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	res, err := f.do(ctx, url, "")
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// GetConditional fetches url, sending the ETag of the last successful
// response. A 304 answer returns the cached body.
func (f *Fetcher) GetConditional(ctx context.Context, url string) (*Result, error) {
	f.mu.Lock()
	entry, ok := f.cache[url]
	f.mu.Unlock()

	res, err := f.do(ctx, url, entry.etag)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusNotModified && ok {
		return &Result{Body: entry.body, StatusCode: res.StatusCode, ETag: entry.etag, Cached: true}, nil
	}
	if res.ETag != "" {
		f.mu.Lock()
		f.cache[url] = cacheEntry{etag: res.ETag, body: res.Body}
		f.mu.Unlock()
	}
	return res, nil
}

func (f *Fetcher) do(ctx context.Context, url, etag string) (*Result, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.config.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && etag != "" {
		return &Result{StatusCode: resp.StatusCode, ETag: resp.Header.Get("ETag")}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("%w: %s (max %d bytes)", ErrBodyTooLarge, url, f.config.MaxBytes)
	}
	return &Result{Body: body, StatusCode: resp.StatusCode, ETag: resp.Header.Get("ETag")}, nil
}
