package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// FetchKey generates the cache key for a fetched document body
func FetchKey(url string) string {
	return "mimesis:v1:fetch:" + digest(url)
}

// AuditKey generates the cache key for a reference audit result
func AuditKey(url string) string {
	return "mimesis:v1:audit:" + digest(url)
}

func digest(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

// Noop satisfies Cache while storing nothing, for runs with caching
// disabled
type Noop struct{}

func (Noop) Get(key string) ([]byte, bool)                         { return nil, false }
func (Noop) Set(key string, value []byte, ttl time.Duration) error { return nil }
func (Noop) Delete(key string) error                               { return nil }
func (Noop) Clear() error                                          { return nil }
