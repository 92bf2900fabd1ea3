package score

import (
	"reflect"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/ppiankov/candidstance/internal/model"
)

func newTestScorer() *Scorer {
	clk := testclock.NewClock(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	return NewScorer(nil, clk)
}

func TestScorer_Score_Totals(t *testing.T) {
	scorer := newTestScorer()
	claim := Claim{Candidate: "Kamala Harris", Issue: "Economy & Taxes"}

	tests := []struct {
		desc          string
		hit           model.SearchHit
		expectedScore float64
		expectedTier  model.CredibilityTier
	}{
		{
			desc: "Trusted outlet, relevant title, current year",
			hit: model.SearchHit{
				Title:   "Harris campaign policy on economy and tax",
				Link:    "https://www.reuters.com/world/us/harris-economy",
				Snippet: "Published March 2026 ...",
			},
			expectedScore: 92.5,
			expectedTier:  model.TierHigh,
		},
		{
			desc: "Mid outlet, two keywords, two years old",
			hit: model.SearchHit{
				Title:   "Candidate stance explained",
				Link:    "https://cnn.com/2024/harris",
				Snippet: "Back in 2024 she said ...",
			},
			expectedScore: 75.5,
			expectedTier:  model.TierMedium,
		},
		{
			desc: "Unknown domain, no keywords, no date",
			hit: model.SearchHit{
				Title:   "Random post",
				Link:    "https://blog.example.net/post",
				Snippet: "Nothing to see",
			},
			expectedScore: 48.5,
			expectedTier:  model.TierLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := scorer.Score(tt.hit, claim, nil)
			if result.Score != tt.expectedScore {
				t.Errorf("Expected score %.2f, got %.2f (factors: %+v)", tt.expectedScore, result.Score, result.Factors)
			}
			if result.Tier != tt.expectedTier {
				t.Errorf("Expected tier %s, got %s", tt.expectedTier, result.Tier)
			}
		})
	}
}

func TestScorer_Score_Deterministic(t *testing.T) {
	scorer := newTestScorer()
	claim := Claim{Candidate: "J.D. Vance", Issue: "immigration"}
	hit := model.SearchHit{
		Title:   "Vance immigration position at campaign stop",
		Link:    "https://politico.com/news/vance",
		Snippet: "In 2025 and again in 2026 ...",
	}

	first := scorer.Score(hit, claim, nil)
	for i := 0; i < 10; i++ {
		again := scorer.Score(hit, claim, nil)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Expected identical results, got %+v and %+v", first, again)
		}
	}
}

func TestScorer_Score_FactorsOrdered(t *testing.T) {
	scorer := newTestScorer()
	result := scorer.Score(model.SearchHit{Title: "x", Link: "https://npr.org/x"}, Claim{}, nil)

	expected := []string{"Domain Credibility", "Title Relevance", "Content Freshness", "Source Diversity"}
	if len(result.Factors) != len(expected) {
		t.Fatalf("Expected %d factors, got %d", len(expected), len(result.Factors))
	}

	weights := 0.0
	for i, f := range result.Factors {
		if f.Name != expected[i] {
			t.Errorf("Factor %d: expected %s, got %s", i, expected[i], f.Name)
		}
		weights += f.Weight
	}
	if weights < 0.999 || weights > 1.001 {
		t.Errorf("Expected weights to sum to 1.0, got %f", weights)
	}
}

func TestScorer_Relevance_Capped(t *testing.T) {
	scorer := newTestScorer()
	title := "Political stance position policy election campaign candidate republican democrat"
	f := scorer.relevanceFactor(title, Claim{})
	if f.Score != 100 {
		t.Errorf("Expected relevance capped at 100, got %.0f", f.Score)
	}
}

func TestScorer_Relevance_WholeWords(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		title    string
		issue    string
		expected float64
	}{
		{"New syntax highlighting released", "economy", 50},
		{"The season has begun", "gun-control", 50},
		{"Senate debates new taxes", "economy", 60},
		{"Tax plan unveiled", "economy", 60},
		{"Gun owners rally", "gun-control", 60},
		{"Second Amendment ruling", "gun-control", 60},
		{"Palestinian aid vote", "israel-palestine", 60},
		{"Policy, stance and position", "", 80},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			f := scorer.relevanceFactor(tt.title, Claim{Issue: tt.issue})
			if f.Score != tt.expected {
				t.Errorf("Expected relevance %.0f for %q, got %.0f (%s)", tt.expected, tt.title, f.Score, f.Description)
			}
		})
	}
}

func TestScorer_Freshness(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		snippet  string
		expected float64
	}{
		{"Reported in 2026", 100},
		{"Reported in 2025", 90},
		{"Reported in 2024", 80},
		{"Reported in 2021", 70},
		{"Reported in 2015", 50},
		{"From 2012 to 2025", 90},
		{"Projected for 2030", 60},
		{"No year at all", 60},
		{"Order number 120245", 60},
	}

	for _, tt := range tests {
		t.Run(tt.snippet, func(t *testing.T) {
			f := scorer.freshnessFactor(tt.snippet)
			if f.Score != tt.expected {
				t.Errorf("Expected freshness %.0f, got %.0f", tt.expected, f.Score)
			}
		})
	}
}

func TestScorer_Diversity(t *testing.T) {
	scorer := newTestScorer()
	batch := NewBatch()

	if f := scorer.diversityFactor("reuters.com", nil); f.Score != IsolatedDiversityScore {
		t.Errorf("Expected isolated diversity %.0f, got %.0f", IsolatedDiversityScore, f.Score)
	}

	if f := scorer.diversityFactor("reuters.com", batch); f.Score != 100 {
		t.Errorf("Expected unseen domain to score 100, got %.0f", f.Score)
	}

	batch.Accept([]model.Source{{URL: "https://www.reuters.com/a", Title: "A"}})
	if f := scorer.diversityFactor("reuters.com", batch); f.Score != 70 {
		t.Errorf("Expected once-cited domain to score 70, got %.0f", f.Score)
	}

	batch.Accept([]model.Source{
		{URL: "https://reuters.com/b", Title: "B"},
		{URL: "https://reuters.com/c", Title: "C"},
		{URL: "https://reuters.com/d", Title: "D"},
	})
	if f := scorer.diversityFactor("reuters.com", batch); f.Score != 10 {
		t.Errorf("Expected diversity floor of 10, got %.0f", f.Score)
	}

	batch.Accept([]model.Source{model.UnverifiableSource()})
	if seen := batch.Seen(""); seen != 0 {
		t.Errorf("Expected sentinel source to be ignored, got %d", seen)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score    float64
		expected model.CredibilityTier
	}{
		{100, model.TierHigh},
		{80, model.TierHigh},
		{79.99, model.TierMedium},
		{60, model.TierMedium},
		{59.99, model.TierLow},
		{0, model.TierLow},
	}

	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.expected {
			t.Errorf("TierFor(%.2f) = %s, want %s", tt.score, got, tt.expected)
		}
	}
}
