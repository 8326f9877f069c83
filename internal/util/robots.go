package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a URL may be fetched under the host's
// robots.txt. Parsed policies are cached per host, including an
// allow-everything policy for hosts whose robots.txt cannot be
// fetched, so a flaky host is not re-asked on every reference.
type RobotsChecker struct {
	policies   map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker identifying itself as userAgent
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		policies:   make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Allowed reports whether rawURL may be fetched. Unparseable URLs are
// not allowed; missing or unreachable robots.txt allows everything.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	allowed, _ := r.Check(ctx, rawURL)
	return allowed
}

// Check returns the fetch permission and any crawl delay the host
// requests for our agent
func (r *RobotsChecker) Check(ctx context.Context, rawURL string) (bool, time.Duration) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false, 0
	}

	data := r.policyFor(ctx, parsed)
	if data == nil {
		return true, 0
	}

	allowed := data.TestAgent(parsed.Path, r.agentToken())

	var delay time.Duration
	if group := data.FindGroup(r.agentToken()); group != nil {
		delay = group.CrawlDelay
	}
	return allowed, delay
}

// policyFor returns the cached policy for the URL's host, fetching
// robots.txt on first sight
func (r *RobotsChecker) policyFor(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(parsed.Host)

	r.mu.RLock()
	data, ok := r.policies[host]
	r.mu.RUnlock()
	if ok {
		return data
	}

	data = r.fetchPolicy(ctx, fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host))

	r.mu.Lock()
	r.policies[host] = data
	r.mu.Unlock()
	return data
}

// fetchPolicy fetches and parses robots.txt. Any failure yields an
// allow-everything policy: absence of robots.txt is not a prohibition.
func (r *RobotsChecker) fetchPolicy(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	allowAll, _ := robotstxt.FromStatusAndBytes(404, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return allowAll
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return allowAll
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return allowAll
	}
	return data
}

// agentToken returns the product token robots.txt groups match on
func (r *RobotsChecker) agentToken() string {
	parts := strings.Fields(r.userAgent)
	if len(parts) == 0 {
		return r.userAgent
	}
	return strings.Split(parts[0], "/")[0]
}

// Clear drops all cached policies
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = make(map[string]*robotstxt.RobotsData)
}
