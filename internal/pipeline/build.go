package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/zkloci/internal/analytics"
	"github.com/ppiankov/zkloci/internal/answer"
	"github.com/ppiankov/zkloci/internal/cache"
	"github.com/ppiankov/zkloci/internal/classify"
	"github.com/ppiankov/zkloci/internal/intent"
	"github.com/ppiankov/zkloci/internal/llm"
	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
	"github.com/ppiankov/zkloci/internal/store"
)

// Runtime is a configured orchestrator plus the resources it holds
type Runtime struct {
	*Orchestrator

	Reader store.Reader
	LLM    *llm.Client

	closers []func()
}

// Close releases store and cache connections
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// NewFromConfig wires every component from cfg. Optional pieces that fail
// to initialize (LLM provider, cache backend, database) degrade with a
// warning; only invalid configuration is an error.
func NewFromConfig(ctx context.Context, cfg *model.Config) (*Runtime, error) {
	rt := &Runtime{}

	reader, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, closeStore)
	rt.Reader = reader

	client, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		log.Warn(ctx, "failed to initialize LLM provider, continuing without it", zap.Error(err))
		client = llm.NewClientWithProvider(nil, llm.ConfigFromModel(cfg.LLM))
	}
	rt.LLM = client

	known := knownProviders(cfg.Analytics)

	classifier, err := classify.New(cfg.Classifier.Mode, client, known...)
	if errors.Is(err, llm.ErrNoProvider) {
		log.Warn(ctx, "LLM classifier requested without a provider, using rules")
		classifier, err = classify.NewRules(known...), nil
	}
	if err != nil {
		rt.Close()
		return nil, err
	}

	var extractor intent.Extractor
	var composer answer.Composer
	if client.IsEnabled() {
		extractor = intent.NewLLMExtractor(client)
		composer = answer.NewLLMComposer(client)
	} else {
		extractor = intent.NewKeywordExtractor(known, knownUseCases(cfg.Analytics))
		composer = answer.NewTemplateComposer()
	}

	c, closeCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		log.Warn(ctx, "intent cache unavailable, continuing without it",
			zap.String("backend", cfg.Cache.Backend), zap.Error(err))
		c = nil
	} else {
		rt.closers = append(rt.closers, closeCache)
	}
	extractor = intent.NewCachedExtractor(extractor, c, cfg.Cache.TTL)

	aggregator := analytics.NewAggregator(reader, cfg.Analytics.IntentDefaults(),
		analytics.WithQueryTimeout(cfg.Store.QueryTimeout),
		analytics.WithFallback(cfg.Analytics.Fallback),
	)

	rt.Orchestrator = New(classifier, extractor, aggregator, composer, cfg.Analytics.StepTimeout)

	log.Info(ctx, "pipeline ready",
		zap.String("store", reader.Status().String()),
		zap.String("llm", providerLabel(client)),
		zap.String("classifier", fmt.Sprintf("%T", classifier)),
		zap.Bool("intent_cache", c != nil),
	)

	return rt, nil
}

func knownProviders(cfg model.AnalyticsConfig) []string {
	if len(cfg.KnownProviders) > 0 {
		return cfg.KnownProviders
	}
	return store.DemoProviders()
}

func knownUseCases(cfg model.AnalyticsConfig) []string {
	if len(cfg.KnownUseCases) > 0 {
		return cfg.KnownUseCases
	}
	return store.DemoUseCases()
}

func providerLabel(c *llm.Client) string {
	if name := c.ProviderName(); name != "" {
		return name
	}
	return "disabled"
}
