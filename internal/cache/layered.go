package cache

import (
	"time"

	"github.com/hashicorp/go-multierror"
)

// LayeredCache serves from a fast layer backed by a persistent one
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memory, disk Cache) *LayeredCache {
	return &LayeredCache{
		memory: memory,
		disk:   disk,
	}
}

// Get checks memory first, then disk, promoting disk hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	var result error
	if err := c.memory.Delete(key); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.disk.Delete(key); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	var result error
	if err := c.memory.Clear(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.disk.Clear(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
