package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/metrics"
	"github.com/ppiankov/candidstance/internal/model"
	"github.com/ppiankov/candidstance/internal/score"
	"github.com/ppiankov/candidstance/internal/search"
)

const queryStanceWords = 12

// verifySleepFunc waits out the rate limit backoff (injectable for tests)
var verifySleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LinkFilter drops scored sources whose links are dead
type LinkFilter interface {
	Filter(ctx context.Context, scored []model.ScoredSource) []model.ScoredSource
}

// Options configures a Verifier
type Options struct {
	NumResults       int           // Hits requested per search
	MaxSources       int           // Citations kept per stance
	CallTimeout      time.Duration // Budget for one search call
	RateLimitBackoff time.Duration // Wait before the single retry after a 429
	Links            LinkFilter    // Optional
	Logger           *logrus.Entry
}

// Verifier runs one search-score-select cycle per stance
type Verifier struct {
	client      search.Client
	scorer      *score.Scorer
	selector    *Selector
	links       LinkFilter
	numResults  int
	callTimeout time.Duration
	backoff     time.Duration
	logger      *logrus.Entry
}

// NewVerifier creates a verifier
func NewVerifier(client search.Client, scorer *score.Scorer, opts Options) *Verifier {
	if opts.NumResults <= 0 {
		opts.NumResults = 5
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 20 * time.Second
	}
	if opts.RateLimitBackoff <= 0 {
		opts.RateLimitBackoff = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Verifier{
		client:      client,
		scorer:      scorer,
		selector:    NewSelector(opts.MaxSources),
		links:       opts.Links,
		numResults:  opts.NumResults,
		callTimeout: opts.CallTimeout,
		backoff:     opts.RateLimitBackoff,
		logger:      opts.Logger,
	}
}

// VerifyAll verifies stances one at a time, calling onDone after each.
// Stances share one diversity batch.
func (v *Verifier) VerifyAll(ctx context.Context, candidate string, stances []model.PoliticalStance, onDone func(index int, stance model.PoliticalStance)) []model.PoliticalStance {
	batch := score.NewBatch()
	verified := make([]model.PoliticalStance, len(stances))

	for i, stance := range stances {
		verified[i] = v.Verify(ctx, candidate, stance, batch)
		if onDone != nil {
			onDone(i, verified[i])
		}
	}

	return verified
}

// Verify attaches sources to a single stance. It never fails: search errors
// leave the stance with no sources and are logged.
func (v *Verifier) Verify(ctx context.Context, candidate string, stance model.PoliticalStance, batch *score.Batch) model.PoliticalStance {
	stance.Sources = []model.Source{}
	stance.Confidence = 0

	if stance.HasNoInformation() {
		return stance
	}

	query := BuildQuery(candidate, stance)
	log := v.logger.WithFields(logrus.Fields{
		"candidate": candidate,
		"issue":     stance.Issue,
	})

	hits, err := v.searchWithRetry(ctx, query, log)
	if err != nil {
		metrics.SearchCalls.WithLabelValues("error").Inc()
		log.WithError(err).Warn("stance search failed, leaving it unsourced")
		return stance
	}
	metrics.SearchCalls.WithLabelValues("ok").Inc()

	claim := score.Claim{
		Candidate: candidate,
		Issue:     stance.Issue,
		Stance:    stance.Stance,
	}
	scored := v.scorer.ScoreAll(hits, claim, batch)

	if v.links != nil {
		scored = v.links.Filter(ctx, scored)
	}

	ranked := v.selector.Rank(scored)
	stance.Sources = Citations(ranked)
	stance.Confidence = Confidence(ranked)
	if batch != nil {
		batch.Accept(stance.Sources)
	}

	if model.IsUnverifiable(stance.Sources) {
		metrics.SourcesSelected.Observe(0)
	} else {
		metrics.SourcesSelected.Observe(float64(len(stance.Sources)))
	}

	for _, src := range ranked {
		log.WithFields(logrus.Fields{
			"url":     src.Link,
			"score":   src.Score,
			"tier":    src.Tier,
			"factors": src.Factors,
		}).Debug("source cited")
	}

	log.WithFields(logrus.Fields{
		"hits":       len(hits),
		"sources":    len(stance.Sources),
		"confidence": stance.Confidence,
	}).Debug("stance verified")

	return stance
}

// searchWithRetry performs one search, retrying once after a backoff when rate limited
func (v *Verifier) searchWithRetry(ctx context.Context, query string, log *logrus.Entry) ([]model.SearchHit, error) {
	hits, err := v.search(ctx, query)
	if !search.IsRateLimited(err) {
		return hits, err
	}

	metrics.SearchCalls.WithLabelValues("rate_limited").Inc()
	log.WithField("backoff", v.backoff).Info("search rate limited, retrying once")

	if err := verifySleepFunc(ctx, v.backoff); err != nil {
		return nil, fmt.Errorf("wait for retry: %w", err)
	}

	return v.search(ctx, query)
}

func (v *Verifier) search(ctx context.Context, query string) ([]model.SearchHit, error) {
	ctx, cancel := context.WithTimeout(ctx, v.callTimeout)
	defer cancel()
	return v.client.Search(ctx, query, v.numResults)
}

// BuildQuery derives a search query from the stance text itself
func BuildQuery(candidate string, stance model.PoliticalStance) string {
	issue := stance.Issue
	if known, ok := model.LookupIssue(issue); ok {
		issue = known.Name
	}

	words := strings.FieldsFunc(stance.Stance, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '"'
	})
	if len(words) > queryStanceWords {
		words = words[:queryStanceWords]
	}

	parts := []string{strings.TrimSpace(candidate), strings.ReplaceAll(issue, "&", "and")}
	parts = append(parts, words...)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
