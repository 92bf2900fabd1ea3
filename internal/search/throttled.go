package search

import (
	"context"
	"fmt"

	"github.com/ppiankov/candidstance/internal/model"
)

// Waiter blocks until a call keyed by key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// ThrottledClient spaces upstream calls through a shared limiter
type ThrottledClient struct {
	inner   Client
	limiter Waiter
	key     string
}

// NewThrottledClient waits on limiter under key before every call to inner
func NewThrottledClient(inner Client, limiter Waiter, key string) *ThrottledClient {
	return &ThrottledClient{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// Search waits for clearance then delegates
func (c *ThrottledClient) Search(ctx context.Context, query string, numResults int) ([]model.SearchHit, error) {
	if err := c.limiter.Wait(ctx, c.key); err != nil {
		return nil, fmt.Errorf("wait for search slot: %w", err)
	}
	return c.inner.Search(ctx, query, numResults)
}
