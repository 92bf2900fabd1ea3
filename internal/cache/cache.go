// Package cache provides byte caches for upstream responses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a stable key from its parts
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "candidstance:v1:" + hex.EncodeToString(hash[:])
}

// New returns a memory cache, layered over a disk cache when dir is set
func New(ttl time.Duration, dir string) Cache {
	memory := NewMemoryCache(ttl, 10*time.Minute)
	if dir == "" {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(dir, ttl))
}
