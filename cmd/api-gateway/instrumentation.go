package main

import (
	"context"
	"time"

	"github.com/hackeval/hackeval-api/internal/repository"
	"github.com/hackeval/hackeval-api/internal/service"
	"github.com/hackeval/hackeval-api/pkg/llm"
)

// instrumentedGenerator wraps the provider router with generation metrics.
type instrumentedGenerator struct {
	inner   *llm.Router
	metrics *service.MetricsService
}

func newInstrumentedGenerator(inner *llm.Router, metrics *service.MetricsService) *instrumentedGenerator {
	return &instrumentedGenerator{inner: inner, metrics: metrics}
}

func (g *instrumentedGenerator) DefaultModel() string {
	return g.inner.DefaultModel()
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt, model string, history []llm.Turn) (*llm.Completion, error) {
	if model == "" {
		model = g.inner.DefaultModel()
	}

	start := time.Now()
	completion, err := g.inner.Generate(ctx, prompt, model, history)

	tokens := 0
	if completion != nil {
		tokens = completion.TokenCount
	}
	g.metrics.ObserveGeneration(model, time.Since(start), tokens, err)

	return completion, err
}

// instrumentedCache counts catalog cache hits and misses.
type instrumentedCache struct {
	inner   *repository.CacheRepository
	metrics *service.MetricsService
}

func newInstrumentedCache(inner *repository.CacheRepository, metrics *service.MetricsService) *instrumentedCache {
	return &instrumentedCache{inner: inner, metrics: metrics}
}

func (c *instrumentedCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.inner.Get(ctx, key, dest)
	c.metrics.RecordCacheOperation(err == nil)
	return err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}

func (c *instrumentedCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return c.inner.DeleteByPattern(ctx, pattern)
}
