package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/provenalabs/mimesis/internal/cache"
	"github.com/provenalabs/mimesis/internal/model"
	"github.com/provenalabs/mimesis/internal/util"
	"github.com/provenalabs/mimesis/internal/worker"
)

const auditMaxRetries = 3

// auditSleepFunc is the sleep function used between retries (injectable for tests)
var auditSleepFunc = time.Sleep

// Auditor resolves citation candidates over HTTP and records which of
// them still answer. Outcomes feed the per-segment reference validity
// rate, so the auditor is careful about what counts: a host that
// refuses us via robots.txt produces a skipped check, not a broken
// citation.
type Auditor struct {
	httpClient    *http.Client
	maxWorkers    int
	userAgent     string
	limiter       *worker.Limiter
	robots        *util.RobotsChecker
	store         cache.Cache
	cacheTTL      time.Duration
	respectRobots bool
}

// NewAuditor creates an auditor from the runtime configuration. Pass
// cache.Noop{} as store to audit without caching.
func NewAuditor(cfg model.Config, store cache.Cache) *Auditor {
	maxWorkers := cfg.Concurrency.Audits
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	timeout := cfg.Citations.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if store == nil {
		store = cache.Noop{}
	}

	proxyFunc := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	return &Auditor{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		maxWorkers:    maxWorkers,
		userAgent:     cfg.HTTP.UserAgent,
		limiter:       worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		robots:        util.NewRobotsChecker(cfg.HTTP.UserAgent, timeout),
		store:         store,
		cacheTTL:      cfg.Cache.DiskTTL,
		respectRobots: cfg.Citations.RespectRobots,
	}
}

// Audit resolves all references concurrently, returning checks in the
// same order as the input
func (a *Auditor) Audit(ctx context.Context, refs []model.Reference) []model.RefCheck {
	if len(refs) == 0 {
		return []model.RefCheck{}
	}

	results := make([]model.RefCheck, len(refs))
	var wg sync.WaitGroup

	// Semaphore limits concurrent requests
	semaphore := make(chan struct{}, a.maxWorkers)

	for i, ref := range refs {
		wg.Add(1)
		go func(idx int, r model.Reference) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.RefCheck{
					URL:     r.URL,
					Kind:    r.Kind,
					Skipped: true,
					Error:   "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}

			defer func() { <-semaphore }()

			results[idx] = a.auditOne(ctx, r)
		}(i, ref)
	}

	wg.Wait()

	return results
}

// auditOne resolves a single reference, consulting the cache and the
// host's robots.txt first
func (a *Auditor) auditOne(ctx context.Context, ref model.Reference) model.RefCheck {
	key := cache.AuditKey(ref.URL)
	if data, ok := a.store.Get(key); ok {
		var check model.RefCheck
		if err := json.Unmarshal(data, &check); err == nil {
			check.Cached = true
			return check
		}
	}

	if a.respectRobots {
		allowed, delay := a.robots.Check(ctx, ref.URL)
		if !allowed {
			return model.RefCheck{
				URL:     ref.URL,
				Kind:    ref.Kind,
				Skipped: true,
				Error:   "robots.txt disallows",
			}
		}
		if err := a.limiter.WaitWithDelay(ctx, ref.URL, delay); err != nil {
			return model.RefCheck{URL: ref.URL, Kind: ref.Kind, Skipped: true, Error: "context cancelled"}
		}
	} else {
		if err := a.limiter.Wait(ctx, ref.URL); err != nil {
			return model.RefCheck{URL: ref.URL, Kind: ref.Kind, Skipped: true, Error: "context cancelled"}
		}
	}

	check := a.resolveWithRetry(ctx, ref)

	// Skipped checks never enter the cache: a later run should re-ask
	if !check.Skipped {
		if data, err := json.Marshal(check); err == nil {
			_ = a.store.Set(key, data, a.cacheTTL)
		}
	}

	return check
}

// resolve issues a single HEAD request for the reference, falling back
// to GET for hosts that reject HEAD outright
func (a *Auditor) resolve(ctx context.Context, ref model.Reference) model.RefCheck {
	check := model.RefCheck{
		URL:  ref.URL,
		Kind: ref.Kind,
	}

	resp, err := a.request(ctx, http.MethodHead, ref.URL)
	if err != nil {
		check.Error = fmt.Sprintf("request failed: %v", err)
		return check
	}

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		if getResp, getErr := a.request(ctx, http.MethodGet, ref.URL); getErr == nil {
			resp = getResp
		}
	}

	check.StatusCode = resp.StatusCode
	check.Resolved = acceptableStatus(ref.Kind, resp.StatusCode)

	if final := resp.Request.URL.String(); final != ref.URL {
		check.FinalURL = final
	}

	return check
}

// request executes one request and discards the body
func (a *Auditor) request(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()
	return resp, nil
}

// resolveWithRetry retries transient failures with exponential backoff
func (a *Auditor) resolveWithRetry(ctx context.Context, ref model.Reference) model.RefCheck {
	var check model.RefCheck
	for attempt := 0; attempt < auditMaxRetries; attempt++ {
		check = a.resolve(ctx, ref)
		if !isRetryableCheck(check) {
			return check
		}
		if attempt < auditMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			auditSleepFunc(backoff)
		}
	}
	return check
}

// acceptableStatus reports whether a status code proves the reference
// resolves. DOI links redirect to publisher pages that often answer
// HEAD with 403 or 405 even though the DOI itself resolved, so those
// count for DOI references.
func acceptableStatus(kind model.RefKind, status int) bool {
	if status >= 200 && status < 400 {
		return true
	}
	if kind == model.RefKindDOI {
		return status == http.StatusForbidden || status == http.StatusMethodNotAllowed
	}
	return false
}

// isRetryableCheck returns true for checks that indicate transient failures
func isRetryableCheck(check model.RefCheck) bool {
	// Retry on 5xx server errors
	if check.StatusCode >= 500 && check.StatusCode < 600 {
		return true
	}
	// Retry on 429 rate limit
	if check.StatusCode == 429 {
		return true
	}
	// Retry on network errors (timeout, connection refused)
	if check.Error != "" {
		if isRetryableNetworkError(check.Error) {
			return true
		}
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
