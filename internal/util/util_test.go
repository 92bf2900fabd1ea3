package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain text", "plain text"},
		{"<b>Harris</b> on the economy", "Harris on the economy"},
		{"Tax &amp; spending   plan", "Tax & spending plan"},
		{"line<br/>break", "line break"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := StripTags(tt.input); got != tt.expected {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "internal.example, .corp")

	tests := []struct {
		target   string
		expected string
	}{
		{"http://news.example.com/a", "http://proxy.local:3128"},
		{"https://news.example.com/a", "http://secure.local:3128"},
		{"https://api.internal.example/a", ""},
		{"http://svc.corp/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			u, _ := url.Parse(tt.target)
			got, err := proxy(&http.Request{URL: u})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			gotStr := ""
			if got != nil {
				gotStr = got.String()
			}
			if gotStr != tt.expected {
				t.Errorf("Expected proxy %q, got %q", tt.expected, gotStr)
			}
		})
	}
}

func TestRobotsChecker(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches.Add(1)
			_, _ = w.Write([]byte("User-agent: CandidStance\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("CandidStance/0.1 (+https://example.org)", nil)
	ctx := context.Background()

	if !checker.IsAllowed(ctx, server.URL+"/news/story") {
		t.Error("Expected /news/story to be allowed for our agent")
	}
	if checker.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("Expected /private/page to be disallowed")
	}

	_, delay, err := checker.CanFetch(ctx, server.URL+"/news/story")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", delay)
	}

	if n := fetches.Load(); n != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", n)
	}

	checker.Clear()
	checker.IsAllowed(ctx, server.URL+"/news/story")
	if n := fetches.Load(); n != 2 {
		t.Errorf("Expected refetch after Clear, got %d fetches", n)
	}
}

func TestRobotsChecker_MissingFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("CandidStance/0.1", nil)
	if !checker.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("Expected everything to be allowed without robots.txt")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"CandidStance/0.1 (+https://example.org)": "CandidStance",
		"curl/8.0":                                 "curl",
		"":                                         "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}
