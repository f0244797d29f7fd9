// Package retry wraps chain RPC calls with bounded exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy describes how a failing call is retried.
// MaxRetries counts retries after the first attempt.
type Policy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy sleeps 1s, 2s, 4s, ... capped at 256s between ten retries.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      10,
		InitialInterval: time.Second,
		MaxInterval:     256 * time.Second,
	}
}

// Immediate retries without sleeping.
func Immediate(retries uint64) Policy {
	return Policy{MaxRetries: retries}
}

func (p Policy) newBackOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.InitialInterval > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.InitialInterval
		eb.Multiplier = 2
		eb.RandomizationFactor = 0
		eb.MaxInterval = p.MaxInterval
		if eb.MaxInterval < eb.InitialInterval {
			eb.MaxInterval = eb.InitialInterval
		}
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls fn until it succeeds, the policy is exhausted or ctx is done.
// The last error is returned wrapped with the operation name.
func Do(ctx context.Context, logger *zap.Logger, operation string, p Policy, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, logger, operation, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for calls that return a result.
func Value[T any](
	ctx context.Context,
	logger *zap.Logger,
	operation string,
	p Policy,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	attempt := 0
	op := func() (T, error) {
		attempt++
		return fn(ctx)
	}
	notify := func(err error, wait time.Duration) {
		if logger == nil {
			return
		}
		logger.Warn("Retryable error",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Uint64("max_retries", p.MaxRetries),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	result, err := backoff.RetryNotifyWithData(op, p.newBackOff(ctx), notify)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s failed after %d attempts: %w", operation, attempt, err)
	}
	return result, nil
}
