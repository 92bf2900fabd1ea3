// Package verify attaches credible, ranked sources to generated stances.
package verify

import (
	"sort"

	"github.com/ppiankov/candidstance/internal/model"
)

// DefaultMaxSources is the citation cap when none is configured
const DefaultMaxSources = 3

// Selector admits, ranks and caps scored sources.
// A source is admitted when its tier is medium or high (score >= 60).
type Selector struct {
	maxResults int
}

// NewSelector creates a selector; maxResults <= 0 uses DefaultMaxSources
func NewSelector(maxResults int) *Selector {
	if maxResults <= 0 {
		maxResults = DefaultMaxSources
	}
	return &Selector{maxResults: maxResults}
}

// Admitted reports whether a scored source clears the admission threshold
func Admitted(s model.ScoredSource) bool {
	return s.Tier != model.TierLow
}

// Select returns at most maxResults admitted sources, best first, or the
// single unverifiable sentinel when nothing is admitted.
func (s *Selector) Select(scored []model.ScoredSource) []model.Source {
	return Select(scored, s.maxResults)
}

// Rank returns at most maxResults admitted sources, best first. The result
// is empty when nothing is admitted.
func (s *Selector) Rank(scored []model.ScoredSource) []model.ScoredSource {
	return Rank(scored, s.maxResults)
}

// Rank applies admission, ranking and the cap to scored, keeping scores and
// factors. maxResults <= 0 uses DefaultMaxSources.
func Rank(scored []model.ScoredSource, maxResults int) []model.ScoredSource {
	if maxResults <= 0 {
		maxResults = DefaultMaxSources
	}

	admitted := make([]model.ScoredSource, 0, len(scored))
	for _, src := range scored {
		if Admitted(src) {
			admitted = append(admitted, src)
		}
	}

	// Ties keep search engine order
	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].Score > admitted[j].Score
	})

	if len(admitted) > maxResults {
		admitted = admitted[:maxResults]
	}
	return admitted
}

// Select applies admission, ranking and the cap to scored.
// maxResults <= 0 uses DefaultMaxSources.
func Select(scored []model.ScoredSource, maxResults int) []model.Source {
	return Citations(Rank(scored, maxResults))
}

// Citations converts ranked sources to citations, or the single unverifiable
// sentinel when there are none.
func Citations(ranked []model.ScoredSource) []model.Source {
	if len(ranked) == 0 {
		return []model.Source{model.UnverifiableSource()}
	}

	sources := make([]model.Source, len(ranked))
	for i, src := range ranked {
		sources[i] = src.Source()
	}
	return sources
}

// Confidence is the score of the best ranked source, 0 when there is none
func Confidence(ranked []model.ScoredSource) float64 {
	if len(ranked) == 0 {
		return 0
	}
	return ranked[0].Score
}
