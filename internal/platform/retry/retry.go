package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, use normal backoff
)

// Policy describes a bounded exponential backoff. MaxAttempts <= 0 means
// retry forever.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64
	OnRetry        func(attempt int, err error, backoff time.Duration)
}

// Validate reports policies that can never produce a usable delay.
func (p Policy) Validate() error {
	if p.InitialBackoff <= 0 {
		return fmt.Errorf("initial backoff must be positive, got %s", p.InitialBackoff)
	}
	if p.MaxBackoff < p.InitialBackoff {
		return fmt.Errorf("max backoff %s is below initial backoff %s", p.MaxBackoff, p.InitialBackoff)
	}
	if p.Multiplier != 0 && p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1), got %v", p.Jitter)
	}
	return nil
}

// Backoff yields the delay sequence of a Policy. With zero jitter the
// sequence strictly increases until it reaches MaxBackoff.
type Backoff struct {
	policy   Policy
	exp      *backoff.ExponentialBackOff
	attempts int
}

func NewBackoff(p Policy) *Backoff {
	multiplier := p.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}
	exp := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialBackoff,
		RandomizationFactor: p.Jitter,
		Multiplier:          multiplier,
		MaxInterval:         p.MaxBackoff,
	}
	exp.Reset()
	return &Backoff{policy: p, exp: exp}
}

// Next returns the delay before the next attempt and counts the attempt.
func (b *Backoff) Next() time.Duration {
	b.attempts++
	return b.exp.NextBackOff()
}

// Reset returns the sequence to InitialBackoff.
func (b *Backoff) Reset() {
	b.attempts = 0
	b.exp.Reset()
}

// Attempts is the number of consecutive delays handed out since the last Reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Exhausted reports whether the policy's attempt ceiling has been reached.
func (b *Backoff) Exhausted() bool {
	return b.policy.MaxAttempts > 0 && b.attempts >= b.policy.MaxAttempts
}

// Wait blocks for d on clock. It returns false if ctx ended first.
func Wait(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

type Classify func(err error) Action
type Operation[T any] func() (T, error)
type VoidOperation func() error

// Do runs op until it succeeds, classify says Stop, or MaxAttempts is reached.
func Do[T any](ctx context.Context, clock clockwork.Clock, p Policy, classify Classify, op Operation[T]) (T, error) {
	if p.MaxAttempts < 1 {
		panic("retry.Do: MaxAttempts must be >= 1")
	}
	b := NewBackoff(p)

	for attempt := 1; ; attempt++ {
		val, err := op()
		if err == nil {
			return val, nil
		}

		if classify(err) == Stop {
			var zero T
			return zero, &PermanentError{Err: err}
		}

		if attempt == p.MaxAttempts {
			var zero T
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		delay := b.Next()
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		if !Wait(ctx, clock, delay) {
			var zero T
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

func DoVoid(ctx context.Context, clock clockwork.Clock, p Policy, classify Classify, op VoidOperation) error {
	_, err := Do(ctx, clock, p, classify, func() (struct{}, error) { return struct{}{}, op() })
	return err
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
