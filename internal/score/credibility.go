package score

import (
	"strings"

	"github.com/ppiankov/candidstance/internal/model"
)

// UnknownDomainScore is the credibility of a domain absent from the table
const UnknownDomainScore = 30

// DefaultCredibility is the built-in outlet credibility table (0-100)
var DefaultCredibility = map[string]float64{
	"reuters.com":           95,
	"ap.org":                95,
	"apnews.com":            95,
	"bbc.com":               90,
	"bbc.co.uk":             90,
	"npr.org":               90,
	"factcheck.org":         90,
	"snopes.com":            90,
	"nytimes.com":           88,
	"washingtonpost.com":    88,
	"wsj.com":               88,
	"politico.com":          85,
	"fivethirtyeight.com":   85,
	"abcnews.go.com":        80,
	"cbsnews.com":           80,
	"nbcnews.com":           80,
	"rollcall.com":          80,
	"cnn.com":               75,
	"thehill.com":           75,
	"foxnews.com":           70,
	"msnbc.com":             70,
	"realclearpolitics.com": 70,
}

// CredibilityTable scores publishers by domain
type CredibilityTable struct {
	domains map[string]float64
	unknown float64
}

// NewCredibilityTable builds a table from the defaults plus config overrides
func NewCredibilityTable(cfg *model.CredibilityConfig) *CredibilityTable {
	table := &CredibilityTable{
		domains: make(map[string]float64, len(DefaultCredibility)),
		unknown: UnknownDomainScore,
	}

	for domain, score := range DefaultCredibility {
		table.domains[domain] = score
	}

	if cfg != nil {
		for domain, score := range cfg.Domains {
			table.domains[strings.ToLower(strings.TrimSpace(domain))] = clamp(score)
		}
		if cfg.UnknownScore > 0 {
			table.unknown = clamp(cfg.UnknownScore)
		}
	}

	return table
}

// Lookup returns the credibility of domain and whether it was recognized
func (c *CredibilityTable) Lookup(domain string) (float64, bool) {
	host := strings.TrimPrefix(strings.ToLower(domain), "www.")
	if host == "" {
		return c.unknown, false
	}

	// Exact match
	if score, ok := c.domains[host]; ok {
		return score, true
	}

	// Parent domain match (politics.reuters.com -> reuters.com)
	for parent := parentDomain(host); parent != ""; parent = parentDomain(parent) {
		if score, ok := c.domains[parent]; ok {
			return score, true
		}
	}

	// Government and academic publishers
	if strings.HasSuffix(host, ".gov") {
		return 90, true
	}
	if strings.HasSuffix(host, ".edu") {
		return 80, true
	}

	return c.unknown, false
}

// parentDomain strips the leftmost label, returning "" once only a TLD remains
func parentDomain(host string) string {
	idx := strings.Index(host, ".")
	if idx < 0 {
		return ""
	}
	parent := host[idx+1:]
	if !strings.Contains(parent, ".") {
		return ""
	}
	return parent
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
