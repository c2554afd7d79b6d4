// Package retry holds the bounded retry policy used for Record Store lookups.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds how hard a lookup is retried. Zero intervals retry immediately.
type Policy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Once never retries.
var Once = Policy{MaxAttempts: 1}

func (p Policy) attempts() uint {
	if p.MaxAttempts == 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) backOff() backoff.BackOff {
	if p.InitialInterval <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// Do runs op until it succeeds, returns a non-retryable error, or the policy is exhausted.
// A nil retryable treats every error as retryable. The last error is returned on exhaustion.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), retryable func(error) bool) (T, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && retryable != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.attempts()),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.DebugContext(ctx, "retrying lookup",
				"attempt", attempt,
				"next_in", next,
				"error", err)
		}),
	)
}
