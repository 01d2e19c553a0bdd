package semantic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var sleep = time.Sleep

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
)

// Policy bounds every call into a Matcher. MaxRetries is the total number of
// attempts; backoff doubles after every transient failure.
type Policy struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max-retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

func DefaultPolicy() Policy {
	return Policy{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
	}
}

type guarded struct {
	next   Matcher
	policy Policy
	logger *zap.Logger
}

// Guard wraps m so each call runs under the per-call timeout and transient
// failures are retried. A timed out call counts as transient.
func Guard(m Matcher, policy Policy, logger *zap.Logger) Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	return &guarded{next: m, policy: policy, logger: logger}
}

func (g *guarded) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := g.do(ctx, "embed", func(ctx context.Context) error {
		v, err := g.next.Embed(ctx, text)
		out = v
		return err
	})
	return out, err
}

func (g *guarded) Rerank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	var out []float64
	err := g.do(ctx, "rerank", func(ctx context.Context) error {
		v, err := g.next.Rerank(ctx, query, candidates)
		out = v
		return err
	})
	return out, err
}

func (g *guarded) do(ctx context.Context, op string, call func(context.Context) error) error {
	backoff := g.policy.Backoff

	for attempt := 1; ; attempt++ {
		err := g.attempt(ctx, call)
		if err == nil {
			return nil
		}

		if !IsTransient(err) || attempt >= g.policy.MaxRetries || ctx.Err() != nil {
			return fmt.Errorf("semantic %s failed after %d attempt(s): %w", op, attempt, err)
		}

		g.logger.Warn("semantic call failed, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if err := waitFor(ctx, backoff); err != nil {
			return fmt.Errorf("semantic %s interrupted after %d attempt(s): %w", op, attempt, err)
		}
		backoff *= 2
	}
}

// waitFor sleeps for d unless ctx is done first.
func waitFor(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (g *guarded) attempt(ctx context.Context, call func(context.Context) error) error {
	if g.policy.Timeout <= 0 {
		return call(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.policy.Timeout)
	defer cancel()

	err := call(callCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return MarkTransient(fmt.Errorf("timed out after %s: %w", g.policy.Timeout, err))
	}
	return err
}
