package pipeline

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/provenalabs/mimesis/internal/cache"
	"github.com/provenalabs/mimesis/internal/model"
	"github.com/provenalabs/mimesis/internal/util"
)

const fetchMaxRetries = 3

// fetchSleepFunc is replaceable in tests to avoid real backoff delays
var fetchSleepFunc = time.Sleep

// Fetcher reads analysis sources: local files directly, remote documents
// over HTTP with caching and retry
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	store      cache.Cache
	cacheTTL   time.Duration
}

// NewFetcher creates a Fetcher from the HTTP and cache sections of the
// configuration. A nil store disables fetch caching.
func NewFetcher(cfg model.Config, store cache.Cache) *Fetcher {
	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 4_000_000
	}
	if store == nil {
		store = cache.Noop{}
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  maxBytes,
		store:     store,
		cacheTTL:  cfg.Cache.DiskTTL,
	}
}

// FetchResult contains the document body and retrieval metadata
type FetchResult struct {
	Content  string          `json:"content"`
	Meta     model.FetchMeta `json:"meta"`      // Zero for local files except ContentType
	FinalURL string          `json:"final_url"` // Where redirects landed; the path itself for local files
	Cached   bool            `json:"-"`         // Served from the fetch cache
}

// ReadLocal reads a document from the local filesystem. The body cap
// applies the same way it does for remote fetches.
func (f *Fetcher) ReadLocal(path string) (*FetchResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return &FetchResult{
		Content:  string(body),
		Meta:     model.FetchMeta{ContentType: mime.TypeByExtension(filepath.Ext(path))},
		FinalURL: path,
	}, nil
}

// Fetch retrieves a document from the given URL in a single attempt
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/markdown;q=0.9,text/plain;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Content:  string(body),
		Meta:     meta,
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retrieves a document with caching and up to three
// attempts for transient failures
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.FetchKey(rawURL)
	if data, found := f.store.Get(key); found {
		var cached FetchResult
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		}
		// Corrupt entries fall through to a fresh fetch
	}

	var result *FetchResult
	var err error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * time.Second
			fetchSleepFunc(backoff)
		}

		result, err = f.Fetch(ctx, rawURL)
		if err == nil {
			break
		}
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	if data, mErr := json.Marshal(result); mErr == nil {
		_ = f.store.Set(key, data, f.cacheTTL)
	}
	return result, nil
}

// isRetryableFetchError checks for transient failures worth another attempt
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "unexpected status:") {
		return strings.Contains(msg, "status: 5") || strings.Contains(msg, "status: 429")
	}
	if !strings.HasPrefix(msg, "fetch:") {
		return false
	}
	s := strings.ToLower(msg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
