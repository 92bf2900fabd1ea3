package search

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/candidstance/internal/cache"
	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/model"
)

// CachingClient memoizes successful search responses
type CachingClient struct {
	inner  Client
	cache  cache.Cache
	ttl    time.Duration
	logger *logrus.Entry
}

// NewCachingClient wraps inner with a response cache. Failures are never cached.
func NewCachingClient(inner Client, c cache.Cache, ttl time.Duration, logger *logrus.Entry) *CachingClient {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CachingClient{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// Search returns a cached response when present, otherwise queries inner
func (c *CachingClient) Search(ctx context.Context, query string, numResults int) ([]model.SearchHit, error) {
	key := cache.CacheKey("search", query, strconv.Itoa(numResults))

	if data, ok := c.cache.Get(key); ok {
		var hits []model.SearchHit
		if err := json.Unmarshal(data, &hits); err == nil {
			c.logger.WithField("query", query).Debug("search cache hit")
			return hits, nil
		}
		_ = c.cache.Delete(key)
	}

	hits, err := c.inner.Search(ctx, query, numResults)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(hits); err == nil {
		if err := c.cache.Set(key, data, c.ttl); err != nil {
			c.logger.WithError(err).Warn("store search response in cache")
		}
	}

	return hits, nil
}
