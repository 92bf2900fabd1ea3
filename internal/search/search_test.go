package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/candidstance/internal/cache"
	"github.com/ppiankov/candidstance/internal/model"
)

func newTestClient(url string) *RapidAPIClient {
	cfg := model.DefaultConfig()
	cfg.Search.BaseURL = url
	cfg.Search.APIKey = "test-key"
	cfg.Search.Timeout = 5 * time.Second
	return NewRapidAPIClient(cfg.Search, cfg.HTTP)
}

func TestRapidAPIClient_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Errorf("Expected API key header, got %q", r.Header.Get("X-RapidAPI-Key"))
		}
		if r.Header.Get("X-RapidAPI-Host") != "google-api31.p.rapidapi.com" {
			t.Errorf("Expected host header, got %q", r.Header.Get("X-RapidAPI-Host"))
		}
		if got := r.URL.Query().Get("q"); got != "harris economy" {
			t.Errorf("Expected query 'harris economy', got %q", got)
		}
		if got := r.URL.Query().Get("num"); got != "5" {
			t.Errorf("Expected num=5, got %q", got)
		}
		if got := r.URL.Query().Get("region"); got != "us" {
			t.Errorf("Expected region=us, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"results": [
			{"title": "<b>Harris</b> economy plan", "link": "https://www.reuters.com/a", "snippet": "Plan &amp; details 2026"},
			{"title": "Alt spelling", "href": "https://apnews.com/b", "body": "Body text"},
			{"title": "No link"},
			{"link": "https://npr.org/no-title"},
			{"title": "Placeholder", "link": "https://example.com/x"}
		]}`)
	}))
	defer server.Close()

	hits, err := newTestClient(server.URL).Search(context.Background(), "harris economy", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("Expected 2 usable hits, got %d: %+v", len(hits), hits)
	}

	first := hits[0]
	if first.Title != "Harris economy plan" || first.Snippet != "Plan & details 2026" {
		t.Errorf("Expected tags stripped, got %+v", first)
	}
	if first.Domain != "reuters.com" || first.Origin != "reuters.com" {
		t.Errorf("Expected domain reuters.com, got %+v", first)
	}

	if hits[1].Link != "https://apnews.com/b" || hits[1].Snippet != "Body text" {
		t.Errorf("Expected alternate field spellings accepted, got %+v", hits[1])
	}
}

func TestRapidAPIClient_Search_Errors(t *testing.T) {
	tests := []struct {
		desc   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			desc:   "Rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrRateLimited) {
					t.Errorf("Expected ErrRateLimited, got %v", err)
				}
			},
		},
		{
			desc:   "Server error",
			status: http.StatusBadGateway,
			body:   "upstream down",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
					t.Errorf("Expected StatusError 502, got %v", err)
				}
				if IsRateLimited(err) {
					t.Error("Expected 502 not to count as rate limiting")
				}
			},
		},
		{
			desc:   "Malformed body",
			status: http.StatusOK,
			body:   "{not json",
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("Expected decode error, got nil")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Search(context.Background(), "q", 5)
			tt.check(t, err)
		})
	}
}

func TestRapidAPIClient_Search_EmptyQuery(t *testing.T) {
	if _, err := newTestClient("http://unused").Search(context.Background(), "  ", 5); err == nil {
		t.Error("Expected error for empty query")
	}
}

type countingClient struct {
	calls atomic.Int32
	hits  []model.SearchHit
	err   error
}

func (c *countingClient) Search(ctx context.Context, query string, numResults int) ([]model.SearchHit, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.hits, nil
}

func TestCachingClient(t *testing.T) {
	inner := &countingClient{hits: []model.SearchHit{{Title: "A", Link: "https://npr.org/a", Domain: "npr.org"}}}
	client := NewCachingClient(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute, nil)

	for i := 0; i < 3; i++ {
		hits, err := client.Search(context.Background(), "same query", 5)
		if err != nil || len(hits) != 1 || hits[0].Title != "A" {
			t.Fatalf("Expected cached hit, got %+v, %v", hits, err)
		}
	}

	if inner.calls.Load() != 1 {
		t.Errorf("Expected 1 upstream call, got %d", inner.calls.Load())
	}

	if _, err := client.Search(context.Background(), "same query", 3); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("Expected different result count to miss cache, got %d calls", inner.calls.Load())
	}
}

func TestCachingClient_FailuresNotCached(t *testing.T) {
	inner := &countingClient{err: ErrRateLimited}
	client := NewCachingClient(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := client.Search(context.Background(), "q", 5); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("Expected ErrRateLimited, got %v", err)
		}
	}

	if inner.calls.Load() != 2 {
		t.Errorf("Expected every failing call to reach upstream, got %d", inner.calls.Load())
	}
}

type recordingWaiter struct {
	keys []string
	err  error
}

func (w *recordingWaiter) Wait(ctx context.Context, key string) error {
	w.keys = append(w.keys, key)
	return w.err
}

func TestThrottledClient(t *testing.T) {
	inner := &countingClient{}
	waiter := &recordingWaiter{}
	client := NewThrottledClient(inner, waiter, "https://google-api31.p.rapidapi.com/websearch")

	_, _ = client.Search(context.Background(), "a", 5)
	_, _ = client.Search(context.Background(), "b", 5)

	if len(waiter.keys) != 2 || inner.calls.Load() != 2 {
		t.Errorf("Expected a wait before each of 2 calls, got %d waits and %d calls", len(waiter.keys), inner.calls.Load())
	}

	waiter.err = context.Canceled
	if _, err := client.Search(context.Background(), "c", 5); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected limiter error to surface, got %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Error("Expected no upstream call when the limiter refuses")
	}
}
