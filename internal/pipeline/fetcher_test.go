package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/provenalabs/mimesis/internal/cache"
	"github.com/provenalabs/mimesis/internal/model"
)

func fetcherConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.UserAgent = "test-agent"
	cfg.HTTP.MaxBodyBytes = 1 << 20
	return cfg
}

func TestFetcher_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Header().Set("ETag", `"abc123"`)
		_, _ = fmt.Fprint(w, "# Essay\n\nBody text.")
	}))
	defer server.Close()

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	result, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Content != "# Essay\n\nBody text." {
		t.Errorf("Unexpected content: %s", result.Content)
	}
	if result.Meta.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", result.Meta.StatusCode)
	}
	if result.Meta.ContentType != "text/markdown" {
		t.Errorf("Unexpected content type: %s", result.Meta.ContentType)
	}
	if result.Meta.ETag != `"abc123"` {
		t.Errorf("Unexpected ETag: %s", result.Meta.ETag)
	}
	if result.FinalURL != server.URL {
		t.Errorf("Expected final URL %s, got %s", server.URL, result.FinalURL)
	}
}

func TestFetcher_Fetch_SetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	if _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if gotUA != "test-agent" {
		t.Errorf("Expected User-Agent test-agent, got %s", gotUA)
	}
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Content != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected content: %s", result.Content)
	}
	if result.Cached {
		t.Error("First fetch should not be marked cached")
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "document body")
	}))
	defer server.Close()

	// Override sleep for fast tests
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if result.Content != "document body" {
		t.Errorf("Unexpected content: %s", result.Content)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	// 404 is not retryable, so should fail immediately
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_429Retried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if result.Content != "recovered" {
		t.Errorf("Unexpected content: %s", result.Content)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ServesCachedResult(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "cache me")
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, 0)
	fetcher := NewFetcher(fetcherConfig(), store)

	first, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	if first.Cached {
		t.Error("First fetch should not be cached")
	}

	second, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if !second.Cached {
		t.Error("Second fetch should be served from cache")
	}
	if second.Content != "cache me" {
		t.Errorf("Unexpected cached content: %s", second.Content)
	}
	if requests.Load() != 1 {
		t.Errorf("Expected 1 network request, got %d", requests.Load())
	}
}

func TestFetchWithRetry_CorruptCacheEntryRefetches(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = fmt.Fprint(w, "fresh")
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, 0)
	_ = store.Set(cache.FetchKey(server.URL), []byte("{not json"), time.Minute)

	fetcher := NewFetcher(fetcherConfig(), store)
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected fresh fetch, got %v", err)
	}
	if result.Content != "fresh" {
		t.Errorf("Unexpected content: %s", result.Content)
	}
	if requests.Load() != 1 {
		t.Errorf("Expected 1 network request, got %d", requests.Load())
	}
}

func TestFetcher_ReadLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.md")
	if err := os.WriteFile(path, []byte("# Title\n\nParagraph."), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	result, err := fetcher.ReadLocal(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Content != "# Title\n\nParagraph." {
		t.Errorf("Unexpected content: %s", result.Content)
	}
	if result.FinalURL != path {
		t.Errorf("Expected final URL %s, got %s", path, result.FinalURL)
	}
	if result.Meta.StatusCode != 0 {
		t.Errorf("Local reads should carry no status code, got %d", result.Meta.StatusCode)
	}
}

func TestFetcher_ReadLocal_NonExistent(t *testing.T) {
	fetcher := NewFetcher(fetcherConfig(), cache.Noop{})
	_, err := fetcher.ReadLocal(filepath.Join(t.TempDir(), "missing.md"))
	if err == nil {
		t.Fatal("Expected error for missing file, got nil")
	}
}

func TestFetcher_ReadLocal_TruncatesAtBodyCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	cfg := fetcherConfig()
	cfg.HTTP.MaxBodyBytes = 10
	fetcher := NewFetcher(cfg, cache.Noop{})

	result, err := fetcher.ReadLocal(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Content) != 10 {
		t.Errorf("Expected content truncated to 10 bytes, got %d", len(result.Content))
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		err       string
		retryable bool
	}{
		{"unexpected status: 503 Service Unavailable", true},
		{"unexpected status: 500 Internal Server Error", true},
		{"unexpected status: 502 Bad Gateway", true},
		{"unexpected status: 429 Too Many Requests", true},
		{"unexpected status: 404 Not Found", false},
		{"unexpected status: 403 Forbidden", false},
		{"unexpected status: 401 Unauthorized", false},
		{"fetch: connection refused", true},
		{"fetch: connection reset by peer", true},
		{"create request: invalid URL", false},
		{"read body: unexpected EOF", false},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			err := fmt.Errorf("%s", tt.err)
			got := isRetryableFetchError(err)
			if got != tt.retryable {
				t.Errorf("isRetryableFetchError(%q) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestIsRetryableFetchError_Nil(t *testing.T) {
	if isRetryableFetchError(nil) {
		t.Error("Expected nil error to not be retryable")
	}
}
