// Package validate probes candidate source links before they are cited.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/metrics"
	"github.com/ppiankov/candidstance/internal/model"
	"github.com/ppiankov/candidstance/internal/util"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LinkStatus is the outcome of probing one URL
type LinkStatus struct {
	URL         string
	StatusCode  int
	Alive       bool
	Dead        bool // 404, 410 or unreachable
	Disallowed  bool // robots.txt forbids probing; treated as alive
	RedirectURL string
	Error       string
}

// LinkChecker HEAD-checks source links concurrently
type LinkChecker struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	maxWorkers int
	userAgent  string
	log        *logrus.Entry
}

// NewLinkChecker creates a new link checker
func NewLinkChecker(cfg model.VerifyConfig, httpCfg model.HTTPConfig, log *logrus.Entry) *LinkChecker {
	maxWorkers := cfg.LinkWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	timeout := cfg.LinkTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logging.Discard()
	}

	client := util.NewHTTPClient(timeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)

	return &LinkChecker{
		httpClient: client,
		robots:     util.NewRobotsChecker(httpCfg.UserAgent, client),
		maxWorkers: maxWorkers,
		userAgent:  httpCfg.UserAgent,
		log:        log,
	}
}

// Filter drops dead links among the sources the selector would admit.
// Low-tier sources are passed through unprobed; order is preserved.
func (c *LinkChecker) Filter(ctx context.Context, scored []model.ScoredSource) []model.ScoredSource {
	var urls []string
	for _, s := range scored {
		if s.Tier != model.TierLow {
			urls = append(urls, s.Link)
		}
	}
	if len(urls) == 0 {
		return scored
	}

	statuses := c.CheckAll(ctx, urls)
	dead := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		if st.Dead {
			dead[st.URL] = true
		}
	}

	kept := make([]model.ScoredSource, 0, len(scored))
	for _, s := range scored {
		if s.Tier != model.TierLow && dead[s.Link] {
			c.log.WithField("url", s.Link).Debug("dropping dead source link")
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// CheckAll probes all URLs concurrently, bounded by the worker count
func (c *LinkChecker) CheckAll(ctx context.Context, urls []string) []LinkStatus {
	results := make([]LinkStatus, len(urls))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, c.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				// Cancellation says nothing about the link
				results[idx] = LinkStatus{URL: rawURL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()

	for _, st := range results {
		metrics.LinkChecks.WithLabelValues(st.label()).Inc()
	}

	return results
}

// Check probes a single URL, honoring robots.txt
func (c *LinkChecker) Check(ctx context.Context, rawURL string) LinkStatus {
	return c.checkWithRetry(ctx, rawURL)
}

func (c *LinkChecker) checkWithRetry(ctx context.Context, rawURL string) LinkStatus {
	if !c.robots.IsAllowed(ctx, rawURL) {
		return LinkStatus{URL: rawURL, Alive: true, Disallowed: true}
	}

	var status LinkStatus
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		status = c.checkOnce(ctx, rawURL)
		if !status.retryable() {
			break
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if err := validateSleepFunc(ctx, backoff); err != nil {
				return LinkStatus{URL: rawURL, Error: err.Error()}
			}
		}
	}

	// Unreachable, unless our own context gave up first
	if status.StatusCode == 0 && status.Error != "" && ctx.Err() == nil {
		status.Dead = true
	}
	return status
}

func (c *LinkChecker) checkOnce(ctx context.Context, rawURL string) LinkStatus {
	status := LinkStatus{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		status.Error = fmt.Sprintf("create request: %v", err)
		status.Dead = true
		return status
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("request failed: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		status.Alive = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		status.Dead = true
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusForbidden:
		// Many publishers reject HEAD or bots; the page itself may be fine
		status.Alive = true
	}

	if resp.Request != nil && resp.Request.URL.String() != rawURL {
		status.RedirectURL = resp.Request.URL.String()
	}

	return status
}

// retryable reports transient failures: 5xx, 429 and network errors
func (s LinkStatus) retryable() bool {
	if s.StatusCode >= 500 && s.StatusCode < 600 {
		return true
	}
	if s.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if s.StatusCode == 0 && s.Error != "" {
		return isRetryableNetworkError(s.Error)
	}
	return false
}

func (s LinkStatus) label() string {
	switch {
	case s.Disallowed:
		return "disallowed"
	case s.Dead:
		return "dead"
	case s.Alive:
		return "alive"
	default:
		return "unknown"
	}
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
