package score

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/juju/clock"

	"github.com/ppiankov/candidstance/internal/model"
)

// Factor weights (sum to 1.0)
const (
	WeightCredibility = 0.40
	WeightRelevance   = 0.25
	WeightFreshness   = 0.20
	WeightDiversity   = 0.15
)

// Tier thresholds
const (
	HighThreshold   = 80.0
	MediumThreshold = 60.0
)

// IsolatedDiversityScore is the diversity score of a hit scored outside any batch
const IsolatedDiversityScore = 80.0

// PoliticalKeywords is the fixed title vocabulary shared by every issue
var PoliticalKeywords = []string{
	"political",
	"stance",
	"position",
	"policy",
	"election",
	"campaign",
	"candidate",
	"republican",
	"democrat",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// keywordPatterns match whole words, allowing a plural "s" or "es"
var keywordPatterns = buildKeywordPatterns()

func buildKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	add := func(keyword string) {
		if _, ok := patterns[keyword]; !ok {
			patterns[keyword] = keywordPattern(keyword)
		}
	}
	for _, keyword := range PoliticalKeywords {
		add(keyword)
	}
	for _, issue := range model.Issues {
		for _, keyword := range issue.Keywords {
			add(keyword)
		}
	}
	return patterns
}

func keywordPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(keyword)) + `(?:e?s)?\b`)
}

// containsKeyword reports whether the lowercase title mentions keyword as a word
func containsKeyword(title, keyword string) bool {
	pattern, ok := keywordPatterns[keyword]
	if !ok {
		pattern = keywordPattern(keyword)
	}
	return pattern.MatchString(title)
}

// Claim is the stance a set of hits is being scored against
type Claim struct {
	Candidate string
	Issue     string // Issue name or id
	Stance    string
}

// Scorer computes weighted relevance scores for search hits
type Scorer struct {
	credibility *CredibilityTable
	clock       clock.Clock
}

// NewScorer creates a new scorer. A nil table uses the defaults and a nil
// clock uses the wall clock.
func NewScorer(credibility *CredibilityTable, clk clock.Clock) *Scorer {
	if credibility == nil {
		credibility = NewCredibilityTable(nil)
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Scorer{
		credibility: credibility,
		clock:       clk,
	}
}

// Score scores a single hit. batch may be nil for an isolated call.
func (s *Scorer) Score(hit model.SearchHit, claim Claim, batch *Batch) model.ScoredSource {
	if hit.Domain == "" {
		hit.Domain = model.DomainOf(hit.Link)
	}

	factors := []model.ScoringFactor{
		s.credibilityFactor(hit.Domain),
		s.relevanceFactor(hit.Title, claim),
		s.freshnessFactor(hit.Snippet),
		s.diversityFactor(hit.Domain, batch),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Score * f.Weight
	}
	total = math.Round(total*100) / 100

	return model.ScoredSource{
		SearchHit: hit,
		Score:     total,
		Tier:      TierFor(total),
		Factors:   factors,
	}
}

// ScoreAll scores hits in input order against the same batch state
func (s *Scorer) ScoreAll(hits []model.SearchHit, claim Claim, batch *Batch) []model.ScoredSource {
	scored := make([]model.ScoredSource, 0, len(hits))
	for _, hit := range hits {
		scored = append(scored, s.Score(hit, claim, batch))
	}
	return scored
}

// TierFor maps a total score to its credibility tier
func TierFor(score float64) model.CredibilityTier {
	switch {
	case score >= HighThreshold:
		return model.TierHigh
	case score >= MediumThreshold:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// credibilityFactor scores the publisher
func (s *Scorer) credibilityFactor(domain string) model.ScoringFactor {
	score, known := s.credibility.Lookup(domain)

	desc := fmt.Sprintf("%s is a recognized publisher", domain)
	if !known {
		desc = fmt.Sprintf("%s is not in the credibility table", domain)
	}

	return model.ScoringFactor{
		Name:        "Domain Credibility",
		Score:       score,
		Weight:      WeightCredibility,
		Description: desc,
	}
}

// relevanceFactor scores the title: base 50, +10 per vocabulary hit, capped at 100
func (s *Scorer) relevanceFactor(title string, claim Claim) model.ScoringFactor {
	lower := strings.ToLower(title)

	matched := 0
	for _, keyword := range vocabulary(claim) {
		if containsKeyword(lower, keyword) {
			matched++
		}
	}

	score := math.Min(50+float64(matched)*10, 100)

	return model.ScoringFactor{
		Name:        "Title Relevance",
		Score:       score,
		Weight:      WeightRelevance,
		Description: fmt.Sprintf("%d relevant keywords in title", matched),
	}
}

// vocabulary returns the political keywords plus the claim issue's keywords
func vocabulary(claim Claim) []string {
	words := append([]string(nil), PoliticalKeywords...)
	if issue, ok := model.LookupIssue(claim.Issue); ok {
		words = append(words, issue.Keywords...)
	}
	return words
}

// freshnessFactor scores the most recent non-future year mentioned in the snippet
func (s *Scorer) freshnessFactor(snippet string) model.ScoringFactor {
	current := s.clock.Now().Year()

	latest := 0
	for _, match := range yearPattern.FindAllString(snippet, -1) {
		year, err := strconv.Atoi(match)
		if err != nil || year > current {
			continue
		}
		if year > latest {
			latest = year
		}
	}

	factor := model.ScoringFactor{
		Name:   "Content Freshness",
		Weight: WeightFreshness,
	}

	if latest == 0 {
		factor.Score = 60
		factor.Description = "No date information found"
		return factor
	}

	age := current - latest
	switch {
	case age == 0:
		factor.Score = 100
	case age == 1:
		factor.Score = 90
	case age == 2:
		factor.Score = 80
	case age <= 5:
		factor.Score = 70
	default:
		factor.Score = 50
	}
	factor.Description = fmt.Sprintf("Content from %d", latest)

	return factor
}

// diversityFactor penalizes domains already cited earlier in the batch
func (s *Scorer) diversityFactor(domain string, batch *Batch) model.ScoringFactor {
	factor := model.ScoringFactor{
		Name:   "Source Diversity",
		Weight: WeightDiversity,
	}

	if batch == nil {
		factor.Score = IsolatedDiversityScore
		factor.Description = "Scored outside a verification run"
		return factor
	}

	seen := batch.Seen(domain)
	factor.Score = math.Max(100-30*float64(seen), 10)
	if seen == 0 {
		factor.Description = "Domain not yet cited in this run"
	} else {
		factor.Description = fmt.Sprintf("Domain already cited %d times in this run", seen)
	}

	return factor
}

// Batch tracks the domains cited during one verification run
type Batch struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{counts: make(map[string]int)}
}

// Accept records the domains of sources that were attached to a stance
func (b *Batch) Accept(sources []model.Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, src := range sources {
		if domain := model.DomainOf(src.URL); domain != "" {
			b.counts[domain]++
		}
	}
}

// Seen returns how many accepted sources came from domain
func (b *Batch) Seen(domain string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[strings.TrimPrefix(strings.ToLower(domain), "www.")]
}
