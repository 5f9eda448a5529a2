// Package oracle wraps a language model backend behind a blocking, retrying
// completion call shared by every agent in a conversation.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Completer is the capability every agent depends on.
type Completer interface {
	Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (string, error)
}

// Oracle retries transient provider failures with capped exponential backoff
// until the context is cancelled. Other failures are returned immediately.
type Oracle struct {
	provider    ports.Provider
	limiter     ports.RateLimiter
	tracer      ports.Tracer
	logger      zerolog.Logger
	backoffBase time.Duration
	backoffCap  time.Duration
	callTimeout time.Duration
}

// Option configures an Oracle.
type Option func(*Oracle)

func WithRateLimiter(l ports.RateLimiter) Option { return func(o *Oracle) { o.limiter = l } }
func WithTracer(t ports.Tracer) Option           { return func(o *Oracle) { o.tracer = t } }
func WithLogger(l zerolog.Logger) Option         { return func(o *Oracle) { o.logger = l } }

// WithBackoff sets the first retry delay and the ceiling it grows to.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(o *Oracle) {
		o.backoffBase = base
		o.backoffCap = ceiling
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) Option { return func(o *Oracle) { o.callTimeout = d } }

// New creates an Oracle around provider.
func New(provider ports.Provider, opts ...Option) *Oracle {
	o := &Oracle{
		provider:    provider,
		limiter:     noOpRateLimiter{},
		tracer:      noOpTracer{},
		logger:      zerolog.Nop(),
		backoffBase: time.Second,
		backoffCap:  time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.backoffBase <= 0 {
		o.backoffBase = time.Millisecond
	}
	if o.backoffCap < o.backoffBase {
		o.backoffCap = o.backoffBase
	}
	return o
}

// Complete returns the backend's text for in.
func (o *Oracle) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (string, error) {
	ctx, finish := o.tracer.StartSpan(ctx, "oracle.complete", map[string]any{
		"provider": o.provider.Name(),
		"format":   string(opts.Format),
	})

	backoff := retry.WithCappedDuration(o.backoffCap, retry.NewExponential(o.backoffBase))

	var (
		text    string
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := o.call(ctx, in, opts)
		if err == nil {
			text = out
			return nil
		}

		cerr := classify(ctx, err)
		if IsTransient(cerr) {
			o.logger.Warn().
				Err(cerr).
				Int("attempt", attempt).
				Str("provider", o.provider.Name()).
				Msg("transient oracle failure, backing off")
			o.tracer.Event(ctx, "oracle.retry", map[string]any{"attempt": attempt})
			return retry.RetryableError(cerr)
		}
		return cerr
	})
	finish(err)
	if err != nil {
		return "", fmt.Errorf("oracle completion: %w", err)
	}
	return text, nil
}

func (o *Oracle) call(ctx context.Context, in ports.PromptInput, opts ports.Options) (string, error) {
	release, err := o.limiter.Acquire(ctx, o.provider.Name())
	if err != nil {
		return "", err
	}
	defer release()

	callCtx := ctx
	timeout := o.callTimeout
	if opts.TimeoutMs > 0 {
		timeout = time.Duration(opts.TimeoutMs) * time.Millisecond
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c, err := o.provider.Complete(callCtx, in, opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(c.Text), nil
}

type noOpRateLimiter struct{}

func (noOpRateLimiter) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

type noOpTracer struct{}

func (noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

var (
	_ Completer         = (*Oracle)(nil)
	_ ports.RateLimiter = noOpRateLimiter{}
	_ ports.Tracer      = noOpTracer{}
)
