package retry

import (
	"context"
	"time"
)

// Policy describes a bounded exponential backoff schedule. The zero
// value is not usable; start from DefaultPolicy and adjust.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration

	// OnRetry, when set, is invoked after a failed attempt with the
	// attempt number, the delay about to be applied and the error.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep replaces the real backoff sleep in tests. Nil means
	// sleep for the given duration or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the remote-call discipline used across the
// pipeline: up to 5 attempts, 2s base delay doubling each retry,
// capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
		MaxDelay:    10 * time.Second,
	}
}

// Delay returns the backoff delay applied after the given failed
// attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
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

// Do runs fn until it succeeds, fails with an error the predicate
// rejects, or the attempt ceiling is reached. The last error is
// returned unwrapped so callers can inspect its kind.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt >= p.MaxAttempts {
			return err
		}
		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := p.sleep(ctx, delay); serr != nil {
			return err
		}
	}
}
