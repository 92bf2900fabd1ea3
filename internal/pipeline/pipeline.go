// Package pipeline orchestrates a candidate analysis: name correction, cache
// lookup, stance generation, source verification and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/metrics"
	"github.com/ppiankov/candidstance/internal/model"
	"github.com/ppiankov/candidstance/internal/store"
	"github.com/ppiankov/candidstance/internal/worker"
)

// ErrMissingName is returned for an empty candidate name
var ErrMissingName = errors.New("candidate name is required")

// Analyst corrects names and generates stances
type Analyst interface {
	CorrectName(ctx context.Context, input string) (string, error)
	GenerateStances(ctx context.Context, name string, issues []model.Issue) ([]model.PoliticalStance, []model.Issue, error)
	GenerateStance(ctx context.Context, name string, issue model.Issue) (model.PoliticalStance, error)
}

// Verifier attaches sources to stances, one stance at a time
type Verifier interface {
	VerifyAll(ctx context.Context, candidate string, stances []model.PoliticalStance, onDone func(index int, stance model.PoliticalStance)) []model.PoliticalStance
}

// Options configures a Pipeline
type Options struct {
	Issues          []model.Issue // Defaults to model.Issues
	GenerateWorkers int           // Concurrency of per-issue fill-in generation
	Clock           clock.Clock
	Logger          *logrus.Entry
}

// Pipeline orchestrates the complete analysis process
type Pipeline struct {
	analyst  Analyst
	verifier Verifier
	store    store.Store
	issues   []model.Issue
	workers  int
	clock    clock.Clock
	log      *logrus.Entry
}

// NewPipeline creates a new pipeline. st may be nil to disable caching.
func NewPipeline(analyst Analyst, verifier Verifier, st store.Store, opts Options) *Pipeline {
	if opts.Issues == nil {
		opts.Issues = model.Issues
	}
	if opts.GenerateWorkers <= 0 {
		opts.GenerateWorkers = 4
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Pipeline{
		analyst:  analyst,
		verifier: verifier,
		store:    st,
		issues:   opts.Issues,
		workers:  opts.GenerateWorkers,
		clock:    opts.Clock,
		log:      opts.Logger,
	}
}

// Analyze runs the pipeline and returns the finished analysis
func (p *Pipeline) Analyze(ctx context.Context, inputName string) (*model.Analysis, error) {
	return p.run(ctx, inputName, func(model.Event) {})
}

// AnalyzeStream runs the pipeline, reporting progress through emit. Exactly
// one terminal event (complete or error) is emitted.
func (p *Pipeline) AnalyzeStream(ctx context.Context, inputName string, emit func(model.Event)) {
	analysis, err := p.run(ctx, inputName, emit)
	if err != nil {
		emit(model.Event{Type: model.EventError, Error: err.Error()})
		return
	}
	emit(model.Event{Type: model.EventComplete, Data: analysis})
}

func (p *Pipeline) run(ctx context.Context, inputName string, emit func(model.Event)) (*model.Analysis, error) {
	analysis, err := p.analyze(ctx, inputName, emit)
	switch {
	case err == nil && analysis.Cached:
		metrics.Analyses.WithLabelValues("cached").Inc()
	case err == nil:
		metrics.Analyses.WithLabelValues("generated").Inc()
	case IsInputError(err):
		metrics.Analyses.WithLabelValues("rejected").Inc()
	default:
		metrics.Analyses.WithLabelValues("failed").Inc()
	}
	return analysis, err
}

func (p *Pipeline) analyze(ctx context.Context, inputName string, emit func(model.Event)) (*model.Analysis, error) {
	inputName = strings.TrimSpace(inputName)
	if inputName == "" {
		return nil, ErrMissingName
	}

	log := p.log.WithField("input", inputName)

	emit(status("Validating candidate name"))
	name, err := p.analyst.CorrectName(ctx, inputName)
	if err != nil {
		return nil, err
	}
	log = log.WithField("candidate", name)

	emit(status("Checking cache"))
	if cached := p.lookup(ctx, name, log); cached != nil {
		lastUpdated := cached.LastUpdated
		return &model.Analysis{
			InputName:     inputName,
			CandidateName: name,
			Stances:       cached.Stances,
			Cached:        true,
			LastUpdated:   &lastUpdated,
		}, nil
	}

	emit(status("Generating stances"))
	stances, err := p.generate(ctx, name)
	if err != nil {
		return nil, err
	}

	// Only generation may fail the request on a spent budget
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", name, err)
	}

	emit(status("Verifying sources"))
	total := len(stances)
	verified := p.verifier.VerifyAll(ctx, name, stances, func(i int, s model.PoliticalStance) {
		stance := s
		emit(model.Event{
			Type:   model.EventProgress,
			Issue:  s.Issue,
			Index:  i + 1,
			Total:  total,
			Stance: &stance,
		})
	})

	// Searches cut short by the deadline left their stances unsourced.
	// Return what was verified, but do not cache a degraded analysis.
	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("verification ran out of time, returning partial sources")
	} else {
		p.persist(ctx, name, verified, log)
	}

	return &model.Analysis{
		InputName:     inputName,
		CandidateName: name,
		Stances:       verified,
	}, nil
}

// lookup returns a fresh cached record, or nil on a miss, stale record or store error
func (p *Pipeline) lookup(ctx context.Context, name string, log *logrus.Entry) *model.CandidateRecord {
	if p.store == nil {
		return nil
	}

	record, err := p.store.Find(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.WithError(err).Warn("cache lookup failed, regenerating")
		return nil
	case store.IsStale(p.clock.Now(), record.LastUpdated):
		metrics.CacheLookups.WithLabelValues("stale").Inc()
		log.WithField("last_updated", record.LastUpdated).Info("cached analysis is stale")
		return nil
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return record
}

// generate asks for all issues at once, then fills any the answer skipped
// with per-issue calls on a bounded pool.
func (p *Pipeline) generate(ctx context.Context, name string) ([]model.PoliticalStance, error) {
	stances, missing, err := p.analyst.GenerateStances(ctx, name, p.issues)
	if err != nil {
		return nil, err
	}

	byIssue := make(map[string]model.PoliticalStance, len(p.issues))
	for _, s := range stances {
		byIssue[s.Issue] = s
	}

	if len(missing) > 0 {
		for _, s := range p.fill(ctx, name, missing) {
			byIssue[s.Issue] = s
		}
	}

	ordered := make([]model.PoliticalStance, 0, len(p.issues))
	for _, issue := range p.issues {
		s, ok := byIssue[issue.Name]
		if !ok {
			s = model.NoInformationStance(issue.Name)
		}
		ordered = append(ordered, s)
	}
	return ordered, nil
}

type stanceResult struct {
	issue  model.Issue
	stance model.PoliticalStance
	err    error
}

func (r *stanceResult) GetError() error {
	return r.err
}

func (p *Pipeline) fill(ctx context.Context, name string, missing []model.Issue) []model.PoliticalStance {
	pool := worker.NewPoolWithContext(ctx, p.workers)
	pool.Start()

	for _, issue := range missing {
		issue := issue
		pool.Submit(worker.JobFunc(func(ctx context.Context) worker.Result {
			stance, err := p.analyst.GenerateStance(ctx, name, issue)
			return &stanceResult{issue: issue, stance: stance, err: err}
		}))
	}

	var filled []model.PoliticalStance
	for _, r := range pool.Wait() {
		res := r.(*stanceResult)
		if res.err != nil {
			p.log.WithError(res.err).WithField("issue", res.issue.Name).Warn("per-issue generation failed")
			filled = append(filled, model.NoInformationStance(res.issue.Name))
			continue
		}
		filled = append(filled, res.stance)
	}
	return filled
}

func (p *Pipeline) persist(ctx context.Context, name string, stances []model.PoliticalStance, log *logrus.Entry) {
	if p.store == nil {
		return
	}
	if _, err := p.store.Upsert(ctx, name, stances); err != nil {
		log.WithError(err).Warn("failed to cache analysis")
	}
}

func status(msg string) model.Event {
	return model.Event{Type: model.EventStatus, Message: msg}
}
