package tts

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// RetryPolicy repeats a synthesis call after retryable backend failures.
// The zero value never retries.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// NewRetryPolicy creates a policy, defaulting the backoff to one second.
func NewRetryPolicy(maxRetries int, backoff time.Duration) RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return RetryPolicy{MaxRetries: maxRetries, Backoff: backoff}
}

// Do calls fn until it succeeds, fails with a non-retryable error or the
// retries are used up. The wait doubles after each attempt.
func (r RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	wait := r.Backoff
	var err error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == r.MaxRetries || !IsRetryable(err) {
			return err
		}

		log.Warn("retrying synthesis", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}

// Retrying wraps s so every call goes through policy.
func Retrying(s Synthesizer, policy RetryPolicy) Synthesizer {
	if policy.MaxRetries <= 0 {
		return s
	}
	return &retryingSynthesizer{Synthesizer: s, policy: policy}
}

type retryingSynthesizer struct {
	Synthesizer
	policy RetryPolicy
}

func (r *retryingSynthesizer) Synthesize(ctx context.Context, req Request) (*Clip, error) {
	var clip *Clip
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		clip, err = r.Synthesizer.Synthesize(ctx, req)
		return err
	})
	return clip, err
}
