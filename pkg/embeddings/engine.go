package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// Engine is the hybrid embedding engine: a primary remote provider with a
// local fallback, fronted by a bounded cache and an optional L2 cache.
type Engine struct {
	primary  Provider
	fallback Provider
	cache    Cache
	l2       Cache
	logger   *slog.Logger
}

// EngineOption customizes Engine construction.
type EngineOption func(*Engine)

// WithFallback installs the local fallback provider.
func WithFallback(p Provider) EngineOption {
	return func(e *Engine) { e.fallback = p }
}

// WithCache installs the in-memory cache. Defaults to a no-op cache.
func WithCache(c Cache) EngineOption {
	return func(e *Engine) { e.cache = c }
}

// WithL2Cache installs an optional second-level cache.
func WithL2Cache(c Cache) EngineOption {
	return func(e *Engine) { e.l2 = c }
}

// NewEngine creates the embedding engine around the primary provider.
func NewEngine(primary Provider, opts ...EngineOption) *Engine {
	e := &Engine{
		primary: primary,
		cache:   noopCache{},
		logger:  slog.Default().With("component", "embedding-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode generates an embedding for a single text. Empty or
// whitespace-only text returns nil without any network call. A nil vector
// with a non-nil error means no embedding could be produced at all;
// callers route to keyword-only search in that case.
func (e *Engine) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	vectors, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

// EncodeBatch generates embeddings for texts, preserving input order.
// Cached entries are served without a network call; only the uncached
// subset goes to the provider. Blank texts yield nil vectors in place.
func (e *Engine) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	var uncachedTexts []string
	var uncachedIndices []int

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		key := e.cacheKey(text)
		if entry, ok := e.cache.Get(key); ok {
			results[i] = entry.Vector
			continue
		}
		if e.l2 != nil {
			if entry, ok := e.l2.Get(key); ok {
				e.cache.Set(key, entry)
				results[i] = entry.Vector
				continue
			}
		}
		uncachedTexts = append(uncachedTexts, text)
		uncachedIndices = append(uncachedIndices, i)
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	vectors, origin, err := e.embedWithFallback(ctx, uncachedTexts)
	if err != nil {
		return nil, err
	}

	for j, vec := range vectors {
		idx := uncachedIndices[j]
		results[idx] = vec
		entry := CachedEmbedding{Vector: vec, Origin: origin}
		key := e.cacheKey(uncachedTexts[j])
		e.cache.Set(key, entry)
		if e.l2 != nil {
			e.l2.Set(key, entry)
		}
	}
	return results, nil
}

// embedWithFallback tries the primary provider, then the local fallback.
func (e *Engine) embedWithFallback(ctx context.Context, texts []string) ([][]float32, string, error) {
	if e.primary != nil {
		vectors, err := e.primary.Embed(ctx, texts)
		if err == nil {
			return vectors, e.primary.Name(), nil
		}
		e.logger.Warn("primary embedding provider failed, engaging fallback",
			"provider", e.primary.Name(),
			"kind", types.KindOf(err),
			"error", err,
		)
	}

	if e.fallback != nil {
		vectors, err := e.fallback.Embed(ctx, texts)
		if err == nil {
			return vectors, e.fallback.Name(), nil
		}
		e.logger.Error("fallback embedding provider failed", "provider", e.fallback.Name(), "error", err)
	}

	return nil, "", types.NewPipelineError(types.ErrKindTransientConnection, "embeddings.EncodeBatch",
		fmt.Errorf("no embedding provider available"))
}

func (e *Engine) cacheKey(text string) string {
	model := ""
	dims := 0
	if e.primary != nil {
		model = e.primary.Name()
		dims = e.primary.Dimensions()
	}
	return CacheKey(text, model, dims)
}

// CacheStats exposes the in-memory cache statistics for diagnostics.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}
