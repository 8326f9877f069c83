package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 4 {
		t.Errorf("expected default burst 4 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A different host draws from its own bucket
	if err := limiter.Wait(ctx, "http://google.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if time.Since(start) < 50*time.Millisecond {
		t.Errorf("expected crawl delay to be honored")
	}
}

func TestLimiter_PerHostBuckets(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst of 1 is spent for that host
	if limiter.Allow("http://example.com") {
		t.Errorf("expected exhausted tokens for example.com")
	}

	// Another host is unaffected
	if !limiter.Allow("http://other.com") {
		t.Errorf("expected fresh bucket for other.com")
	}
}

func TestLimiter_HostKeyNormalization(t *testing.T) {
	limiter := NewLimiter(1, 1)

	// Port and case differences map to the same bucket
	if !limiter.Allow("http://Example.COM:8080/a") {
		t.Fatalf("first request should pass")
	}
	if limiter.Allow("http://example.com/b") {
		t.Errorf("expected same bucket despite port and case differences")
	}
}

func TestHostKey(t *testing.T) {
	host, err := hostKey("http://Example.com:8443/foo")
	if err != nil {
		t.Fatalf("hostKey failed: %v", err)
	}
	if host != "example.com" {
		t.Errorf("expected example.com, got %s", host)
	}

	if _, err := hostKey("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
