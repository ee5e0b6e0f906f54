package pubmed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bjaus/retry"
)

const (
	DefaultMaxRetry  = 100
	DefaultSleepTime = 500 * time.Millisecond
)

// FetchFunc retrieves a single article.
type FetchFunc func(ctx context.Context, uid, webenv string) (*Article, error)

// Retrier re-runs a remote call while it fails with an HTTPError, waiting a
// constant SleepTime between attempts and giving up after MaxRetry attempts.
// It keeps no state between calls and is safe for concurrent use.
type Retrier struct {
	MaxRetry  int
	SleepTime time.Duration

	clock retry.Clock
}

func NewRetrier(maxRetry int, sleepTime time.Duration) *Retrier {
	return &Retrier{MaxRetry: maxRetry, SleepTime: sleepTime}
}

// WithClock returns a copy of r that sleeps on clock.
func (r *Retrier) WithClock(clock retry.Clock) *Retrier {
	cp := *r
	cp.clock = clock
	return &cp
}

// Fetch calls fetch for (uid, webenv) until it succeeds, fails with a
// non-transient error or runs out of attempts.
func (r *Retrier) Fetch(ctx context.Context, uid, webenv string, fetch FetchFunc) (*Article, error) {
	var article *Article
	err := r.Do(ctx, func(ctx context.Context) error {
		a, err := fetch(ctx, uid, webenv)
		if err != nil {
			return err
		}
		article = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve article %s: %w", uid, err)
	}
	return article, nil
}

// Do runs op under the retry policy. Errors other than HTTPError are
// returned as is after the first attempt; running out of attempts yields a
// RetryExhaustedError.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if r.MaxRetry <= 0 {
		return fmt.Errorf("%w: max retry must be positive, got %d", ErrInvalidArgument, r.MaxRetry)
	}
	if r.SleepTime < 0 {
		return fmt.Errorf("%w: sleep time must not be negative, got %s", ErrInvalidArgument, r.SleepTime)
	}

	opts := []retry.Option{
		retry.WithMaxAttempts(r.MaxRetry),
		retry.WithBackoff(retry.Constant(r.SleepTime)),
	}
	if r.clock != nil {
		opts = append(opts, retry.WithClock(r.clock))
	}
	policy := retry.New(opts...)

	var exhausted *RetryExhaustedError
	err := policy.Do(ctx, op,
		retry.If(IsTransient),
		retry.OnRetry(func(ctx context.Context, attempt int, err error, delay time.Duration) {
			log.Printf("pubmed: attempt %d/%d failed: %v (retrying in %s)", attempt, r.MaxRetry, err, delay)
		}),
		retry.OnExhausted(func(ctx context.Context, attempts int, err error) {
			// the last attempt is reported here even when it was not transient
			if IsTransient(err) {
				exhausted = &RetryExhaustedError{Attempts: attempts, Err: err}
			}
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if exhausted != nil {
		return exhausted
	}
	return err
}
