package model

import (
	"net/url"
	"strings"
)

// UnverifiableTitle is the title of the sentinel source attached when a search
// ran but nothing credible enough survived selection.
const UnverifiableTitle = "We are unable to verify this information"

// Source is a citation attached to a stance
type Source struct {
	URL    string `json:"url" bson:"url"`       // Absolute URL, empty only for the unverifiable sentinel
	Title  string `json:"title" bson:"title"`   // Headline as reported by the search engine
	Origin string `json:"origin" bson:"origin"` // Publisher label (usually the domain)
}

// UnverifiableSource returns the sentinel source
func UnverifiableSource() Source {
	return Source{Title: UnverifiableTitle}
}

// IsUnverifiable reports whether sources is exactly the unverifiable sentinel.
// An empty list means no search was attempted and is not the same thing.
func IsUnverifiable(sources []Source) bool {
	return len(sources) == 1 && sources[0].URL == "" && sources[0].Title == UnverifiableTitle
}

// SearchHit is a single raw result returned by the web search collaborator
type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Origin  string `json:"origin,omitempty"`
	Domain  string `json:"domain"` // Lowercase host without leading "www."
}

// CredibilityTier buckets a relevance score
type CredibilityTier string

const (
	TierHigh   CredibilityTier = "high"   // score >= 80
	TierMedium CredibilityTier = "medium" // score >= 60
	TierLow    CredibilityTier = "low"    // everything else
)

// ScoringFactor is one weighted term of a relevance score
type ScoringFactor struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`  // 0-100
	Weight      float64 `json:"weight"` // 0-1
	Description string  `json:"description"`
}

// ScoredSource is a search hit annotated with its relevance score.
// It is never persisted.
type ScoredSource struct {
	SearchHit
	Score   float64         `json:"score"`
	Tier    CredibilityTier `json:"credibilityTier"`
	Factors []ScoringFactor `json:"factors"`
}

// Source converts the scored hit into a citation
func (s ScoredSource) Source() Source {
	origin := s.Origin
	if origin == "" {
		origin = s.Domain
	}
	return Source{
		URL:    s.Link,
		Title:  s.Title,
		Origin: origin,
	}
}

// DomainOf extracts the lowercase host of rawURL without port or leading "www.".
// Returns "" when rawURL cannot be parsed or has no host.
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
