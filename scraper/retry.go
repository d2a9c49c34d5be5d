package scraper

import (
	"context"
	"time"

	"github.com/aluiziolira/go-snax/config"
)

// RetryPolicy bounds how a failing call is repeated.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first.
	Attempts   int
	Delay      time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	Retryable  func(error) bool
	OnRetry    func(attempt int, delay time.Duration, err error)

	sleep func(context.Context, time.Duration) error
}

// PolicyFromConfig builds the connection-reset policy used for product pages.
func PolicyFromConfig(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		Attempts:   cfg.RetryAttempts,
		Delay:      cfg.RetryBackoff,
		Multiplier: cfg.RetryMultiplier,
		MaxDelay:   cfg.RetryBackoffMax,
		Retryable:  IsConnectionReset,
	}
}

// Retry calls fn until it succeeds, returns an error Retryable rejects, or the
// attempts run out. The last error is returned unchanged.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func() (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if p.Retryable == nil || !p.Retryable(err) || attempt == attempts {
			return result, err
		}

		delay := p.backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return result, serr
		}
	}
	return result, err
}

// backoff returns the wait after the given failed attempt: Delay, then
// Delay*Multiplier, and so on, capped by MaxDelay.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}

	delay := float64(p.Delay)
	for i := 1; i < attempt; i++ {
		delay *= mult
	}
	d := time.Duration(delay)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
