package anew

import (
	"context"
	"errors"
	"time"

	"andy.dev/anew/backoff"
)

// run drives the attempt loop for both builder flavors. One call makes at
// most policy.MaxAttempts+1 invocations of fn. Each attempt is classified as
// done, fatal, or retryable; the loop never manufactures errors just to
// steer control flow, the synthesized ErrConditionNotMet exists only so
// observers (and, with FinalError, the caller) have a cause to look at.
func run[OUT any](ctx context.Context, fn func(context.Context) (OUT, error), s *settings[OUT]) (OUT, error) {
	var zero OUT
	if s.err != nil {
		return zero, s.err
	}
	pol := s.policy.normalized()
	next := backoff.New(pol.BaseDelay, pol.MaxDelay, pol.Exponential, pol.jitter())
	t := time.NewTimer(backoff.DefaultLimit)
	t.Stop()
	defer t.Stop()
	remaining := pol.MaxAttempts
	number := 0
	for {
		number++
		val, err := fn(ctx)
		var cause error
		switch {
		case err == nil && (s.retryIf == nil || !s.retryIf(val)):
			return val, nil
		case err == nil:
			cause = ErrConditionNotMet
		case errors.Is(err, context.Canceled):
			// The caller asked to stop. Propagate without observers,
			// without consuming an attempt, ahead of all other
			// classification.
			if cerr := context.Cause(ctx); cerr != nil {
				return zero, cerr
			}
			return zero, err
		case s.fatal(err):
			return zero, err
		default:
			cause = err
		}
		if remaining == 0 {
			final := Attempt{Err: cause, Number: number, At: time.Now()}
			for _, obs := range s.onGiveUp {
				obs(final)
			}
			if s.finalErr {
				return zero, errExhausted(cause)
			}
			// Silent exhaustion: the last value and no error. Documented in
			// doc.go; OnGiveUp is the visibility mechanism here.
			return val, nil
		}
		delay := next()
		at := Attempt{
			Err:       cause,
			Number:    number,
			Remaining: remaining,
			NextDelay: delay,
			At:        time.Now(),
		}
		for _, obs := range s.onRetry {
			obs(at)
		}
		t.Reset(delay)
		select {
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return zero, context.Cause(ctx)
		case <-t.C:
		}
		remaining--
	}
}
