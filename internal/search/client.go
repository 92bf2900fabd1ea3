// Package search queries the web search collaborator for candidate sources.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/candidstance/internal/model"
)

// ErrRateLimited is returned when the search provider answers HTTP 429
var ErrRateLimited = errors.New("search provider rate limited")

// Client runs a web search and returns raw hits
type Client interface {
	Search(ctx context.Context, query string, numResults int) ([]model.SearchHit, error)
}

// StatusError is returned for non-2xx responses other than 429
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("search provider returned status %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err signals provider rate limiting
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
