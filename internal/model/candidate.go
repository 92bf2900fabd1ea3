package model

import (
	"strings"
	"time"
)

// CandidateRecord is the cached analysis for one candidate
type CandidateRecord struct {
	Name           string            `json:"name" bson:"name"`                     // Canonical display name
	NormalizedName string            `json:"normalizedName" bson:"normalizedName"` // Lookup key, see NormalizeName
	LastUpdated    time.Time         `json:"lastUpdated" bson:"lastUpdated"`
	SearchCount    int64             `json:"searchCount" bson:"searchCount"`
	LastSearched   time.Time         `json:"lastSearched" bson:"lastSearched"`
	Stances        []PoliticalStance `json:"stances" bson:"stances"`
}

// NormalizeName lowercases name and drops every character outside a-z.
// "Kamala Harris", "kamala-harris" and "KAMALA  HARRIS" all map to "kamalaharris".
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Analysis is the result of analyzing one candidate
type Analysis struct {
	InputName     string            `json:"inputName"`
	CandidateName string            `json:"candidateName"`
	Stances       []PoliticalStance `json:"stances"`
	Cached        bool              `json:"cached,omitempty"`
	LastUpdated   *time.Time        `json:"lastUpdated,omitempty"`
}
