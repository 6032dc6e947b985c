package trace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// Key derives the cache key for an algorithm run.
// encoding/json sorts map keys, which makes the hash independent of insertion order.
func Key(algorithm string, params domain.Params) (string, error) {
	canonical, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("canonicalize params: %w", err)
	}
	sum := sha256.Sum256(append([]byte(algorithm+"\x00"), canonical...))
	return algorithm + ":" + hex.EncodeToString(sum[:12]), nil
}

// CachedGenerator memoizes another generator's traces.
// Cache failures are logged and never fail generation.
type CachedGenerator struct {
	name   string
	next   ports.TraceGenerator
	cache  ports.TraceCache
	decode PayloadDecoder
	logger *slog.Logger
}

// CachedOption configures a CachedGenerator.
type CachedOption func(*CachedGenerator)

// WithCacheLogger sets the logger used for cache diagnostics.
func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(g *CachedGenerator) {
		g.logger = logger
	}
}

// WithPayloadDecoder restores typed payloads on cache hits, so a hit from a JSON
// backed cache looks the same as a fresh generation. A nil decoder is ignored.
func WithPayloadDecoder(decode PayloadDecoder) CachedOption {
	return func(g *CachedGenerator) {
		if decode != nil {
			g.decode = decode
		}
	}
}

// NewCachedGenerator wraps next so that its traces are stored in cache under the algorithm name.
func NewCachedGenerator(name string, next ports.TraceGenerator, cache ports.TraceCache, opts ...CachedOption) *CachedGenerator {
	g := &CachedGenerator{
		name:   name,
		next:   next,
		cache:  cache,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *CachedGenerator) Generate(ctx context.Context, params domain.Params) (domain.Trace, error) {
	key, err := Key(g.name, params)
	if err != nil {
		return domain.Trace{}, err
	}

	cached, err := g.cache.Get(ctx, key)
	if err == nil {
		cached, err = g.restore(cached)
	}
	switch {
	case err == nil:
		g.logger.Debug("trace cache hit", "algorithm", g.name, "key", key)
		return cached, nil
	case !errors.Is(err, domain.ErrCacheMiss):
		g.logger.Warn("trace cache read failed", "algorithm", g.name, "key", key, "err", err)
	}

	t, err := g.next.Generate(ctx, params)
	if err != nil {
		return domain.Trace{}, err
	}

	if err := g.cache.Put(ctx, key, t); err != nil {
		g.logger.Warn("trace cache write failed", "algorithm", g.name, "key", key, "err", err)
	}
	return t, nil
}

func (g *CachedGenerator) restore(t domain.Trace) (domain.Trace, error) {
	if g.decode == nil {
		return t, nil
	}
	steps := t.Steps()
	for i := range steps {
		payload, err := g.decode(steps[i].Payload)
		if err != nil {
			return domain.Trace{}, fmt.Errorf("step %d: %w", i, err)
		}
		steps[i].Payload = payload
	}
	return domain.NewTrace(steps)
}
