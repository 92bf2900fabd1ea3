package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/candidstance/internal/model"
	"github.com/ppiankov/candidstance/internal/util"
)

const maxResponseBytes = 2 << 20

// RapidAPIClient queries the Google web search API hosted on RapidAPI
type RapidAPIClient struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
	region     string
	userAgent  string
}

// NewRapidAPIClient creates a search client from configuration
func NewRapidAPIClient(cfg model.SearchConfig, httpCfg model.HTTPConfig) *RapidAPIClient {
	return &RapidAPIClient{
		httpClient: util.NewHTTPClient(cfg.Timeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		baseURL:    cfg.BaseURL,
		host:       cfg.Host,
		apiKey:     cfg.APIKey,
		region:     cfg.Region,
		userAgent:  httpCfg.UserAgent,
	}
}

// BaseURL returns the endpoint the client queries
func (c *RapidAPIClient) BaseURL() string {
	return c.baseURL
}

// rapidAPIResponse accepts the field spellings seen across provider versions
type rapidAPIResponse struct {
	Results []rapidAPIResult `json:"results"`
}

type rapidAPIResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Href        string `json:"href"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Body        string `json:"body"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Search runs a web search and returns the usable hits
func (c *RapidAPIClient) Search(ctx context.Context, query string, numResults int) ([]model.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if numResults <= 0 {
		numResults = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(numResults))
	if c.region != "" {
		params.Set("region", c.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var parsed rapidAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]model.SearchHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hit, ok := r.toHit()
		if !ok {
			continue
		}
		hits = append(hits, hit)
		if len(hits) == numResults {
			break
		}
	}

	return hits, nil
}

// toHit normalizes a raw result, rejecting ones without a title or usable link
func (r rapidAPIResult) toHit() (model.SearchHit, bool) {
	link := firstNonEmpty(r.Link, r.Href, r.URL)
	title := util.StripTags(r.Title)
	if link == "" || title == "" {
		return model.SearchHit{}, false
	}

	domain := model.DomainOf(link)
	if domain == "" || domain == "example.com" || strings.HasSuffix(domain, ".example.com") {
		return model.SearchHit{}, false
	}

	origin := strings.TrimSpace(r.Source)
	if origin == "" {
		origin = domain
	}

	return model.SearchHit{
		Title:   title,
		Link:    link,
		Snippet: util.StripTags(firstNonEmpty(r.Snippet, r.Body, r.Description)),
		Origin:  origin,
		Domain:  domain,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
