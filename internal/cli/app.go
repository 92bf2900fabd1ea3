package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/candidstance/internal/cache"
	"github.com/ppiankov/candidstance/internal/llm"
	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/model"
	"github.com/ppiankov/candidstance/internal/pipeline"
	"github.com/ppiankov/candidstance/internal/score"
	"github.com/ppiankov/candidstance/internal/search"
	"github.com/ppiankov/candidstance/internal/store"
	"github.com/ppiankov/candidstance/internal/validate"
	"github.com/ppiankov/candidstance/internal/verify"
	"github.com/ppiankov/candidstance/internal/worker"
)

// app holds the collaborators shared by every command
type app struct {
	cfg      model.Config
	logger   *logrus.Logger
	store    store.Store
	provider llm.Provider
	pipeline *pipeline.Pipeline
}

// appOptions tweaks wiring per command
type appOptions struct {
	NoCache bool // Skip the candidate store entirely
}

// newApp wires the configured search, LLM and store collaborators into a pipeline
func newApp(ctx context.Context, cfg model.Config, opts appOptions) (*app, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	var st store.Store
	if !opts.NoCache {
		st, err = store.Open(ctx, cfg.Store, clock.WallClock)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
		}
		a.store = st
	}

	llmCfg := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
	llmCfg.Logger = logging.Component(logger, "llm")
	provider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	a.provider = provider

	analyst := llm.NewAnalyst(provider, logging.Component(logger, "analyst"))

	verifyOpts := verify.Options{
		NumResults:       cfg.Search.NumResults,
		MaxSources:       cfg.Verify.MaxSources,
		CallTimeout:      cfg.Search.Timeout,
		RateLimitBackoff: cfg.Search.RateLimitBackoff,
		Logger:           logging.Component(logger, "verify"),
	}
	if cfg.Verify.CheckLinks {
		verifyOpts.Links = validate.NewLinkChecker(cfg.Verify, cfg.HTTP, logging.Component(logger, "links"))
	}

	scorer := score.NewScorer(score.NewCredibilityTable(&cfg.Credibility), clock.WallClock)
	verifier := verify.NewVerifier(newSearchClient(cfg, logger), scorer, verifyOpts)

	a.pipeline = pipeline.NewPipeline(analyst, verifier, st, pipeline.Options{
		GenerateWorkers: cfg.LLM.Workers,
		Clock:           clock.WallClock,
		Logger:          logging.Component(logger, "pipeline"),
	})

	logger.WithFields(logrus.Fields{
		"llm":   provider.Name(),
		"store": storeName(cfg, opts),
	}).Debug("application wired")

	return a, nil
}

// newSearchClient layers throttling and response caching over the RapidAPI client
func newSearchClient(cfg model.Config, logger *logrus.Logger) search.Client {
	rapid := search.NewRapidAPIClient(cfg.Search, cfg.HTTP)

	var client search.Client = search.NewThrottledClient(rapid, worker.NewIntervalLimiter(cfg.Search.CallDelay), rapid.BaseURL())
	if cfg.Search.CacheTTL > 0 {
		client = search.NewCachingClient(client, cache.New(cfg.Search.CacheTTL, cfg.Search.CacheDir), cfg.Search.CacheTTL, logging.Component(logger, "search"))
	}
	return client
}

func storeName(cfg model.Config, opts appOptions) string {
	if opts.NoCache {
		return "disabled"
	}
	return cfg.Store.Driver
}

// Close releases the store and provider
func (a *app) Close() error {
	var result *multierror.Error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close store: %w", err))
		}
	}
	if closer, ok := a.provider.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close LLM provider: %w", err))
		}
	}
	return result.ErrorOrNil()
}
