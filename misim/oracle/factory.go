package oracle

import (
	"context"
	"fmt"
	"time"

	internal "github.com/ZanzyTHEbar/misim/misim"
	"github.com/ZanzyTHEbar/misim/misim/config"
	"github.com/ZanzyTHEbar/misim/misim/oracle/adapters"
	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
	"github.com/rs/zerolog"
)

// Factory creates and wires oracle components from configuration.
type Factory struct {
	cfg    *config.OracleConfig
	logger zerolog.Logger
}

// NewFactory creates a new oracle factory.
func NewFactory(cfg *config.OracleConfig, logger zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateOracle builds the provider named in config and wraps it with the
// configured limiter, tracer and backoff. The result is safe to share.
func (f *Factory) CreateOracle(ctx context.Context) (*Oracle, error) {
	provider, err := f.createProvider(ctx)
	if err != nil {
		return nil, err
	}

	base, ceiling := f.backoff()
	return New(provider,
		WithRateLimiter(f.createRateLimiter()),
		WithTracer(f.createTracer()),
		WithLogger(f.logger.With().Str("component", "oracle").Logger()),
		WithBackoff(base, ceiling),
		WithCallTimeout(f.cfg.Timeout),
	), nil
}

// CreateCache creates the memoization cache from config.
func (f *Factory) CreateCache() ports.Cache {
	if !f.cfg.CacheEnabled {
		return noOpCache{}
	}
	return adapters.NewLRUCache(f.cfg.CacheCapacity)
}

func (f *Factory) createProvider(ctx context.Context) (ports.Provider, error) {
	switch f.cfg.Provider {
	case "openai", "":
		return adapters.NewOpenAIProvider(adapters.OpenAIConfig{
			APIKey:  f.cfg.APIKey,
			BaseURL: f.cfg.BaseURL,
			Model:   f.cfg.Model,
			Timeout: f.cfg.Timeout,
		})
	case "gemini":
		model := f.cfg.Model
		if model == "" || model == internal.DefaultModel {
			model = internal.DefaultGeminiModel
		}
		return adapters.NewGeminiProvider(ctx, f.cfg.APIKey, model)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", f.cfg.Provider)
	}
}

func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.RateLimitEnabled {
		return noOpRateLimiter{}
	}
	return adapters.NewTokenBucket(f.cfg.RateLimitCapacity, f.cfg.RateLimitRefillRate)
}

func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.EnableTracing {
		return noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

// backoff returns validated and clamped retry delays.
func (f *Factory) backoff() (time.Duration, time.Duration) {
	base, ceiling := f.cfg.BackoffBase, f.cfg.BackoffCap
	if base < 10*time.Millisecond {
		base = 10 * time.Millisecond
		f.logger.Warn().Dur("backoff_base", f.cfg.BackoffBase).Msg("BackoffBase clamped to minimum of 10ms")
	}
	if ceiling < base {
		ceiling = base
		f.logger.Warn().Dur("backoff_cap", f.cfg.BackoffCap).Msg("BackoffCap clamped to BackoffBase")
	}
	return base, ceiling
}

// noOpCache implements Cache with no-op behavior for a disabled cache.
type noOpCache struct{}

func (noOpCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (noOpCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (noOpCache) Delete(ctx context.Context, key string) error { return nil }

var _ ports.Cache = noOpCache{}
