// Package backoff computes the inter-attempt delays used by anew.
//
// Delays come in two modes: constant (every retry waits exactly the base
// delay) and exponential (the base delay doubles after each failed attempt).
// The exponential term saturates at a configurable limit and is guarded
// against integer overflow: the doubling exponent is clamped and the product
// is checked against the limit before it can wrap, so a computed delay is
// never negative no matter how high the attempt number climbs. The limit
// bounds only the exponential growth; a constant base delay is used as
// given.
package backoff

import (
	"math/rand/v2"
	"time"
)

// DefaultLimit bounds the computed delay when no explicit limit is set.
const DefaultLimit = 30 * time.Second

// maxShift clamps the doubling exponent. time.Duration counts int64
// nanoseconds, so even a 1ms base wraps after ~43 doublings; the limit
// comparison in ForAttempt saturates long before the clamp matters for any
// realistic configuration.
const maxShift = 40

// Iterator yields the delay to wait before each successive retry. The first
// call returns the delay after attempt 1 has failed, the second after
// attempt 2, and so on.
type Iterator func() time.Duration

// New returns an Iterator over ForAttempt with a fresh jitter sample added
// per call. Jitter is applied after the exponential clamp: the limit bounds
// the deterministic term, not the jitter offset.
func New(base, limit time.Duration, exponential bool, j Jitter) Iterator {
	attempt := 0
	return func() time.Duration {
		attempt++
		return ForAttempt(base, attempt, exponential, limit) + j.Sample()
	}
}

// ForAttempt computes the raw (un-jittered) delay after the given failed
// attempt. attempt is 1-based: 1 is the delay computed after the first try
// failed. Constant mode returns base unmodified. Exponential mode returns
// base × 2^(attempt−1), saturating at limit; a limit <= 0 means
// DefaultLimit.
func ForAttempt(base time.Duration, attempt int, exponential bool, limit time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if !exponential {
		return base
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if base >= limit {
		return limit
	}
	shift := attempt - 1
	switch {
	case shift < 0:
		shift = 0
	case shift > maxShift:
		return limit
	}
	// Compare before shifting: base << shift would wrap for large shifts.
	if base > limit>>shift {
		return limit
	}
	return base << shift
}

// Jitter is a uniformly random additive delay drawn from [Low, High). The
// zero value produces no jitter. Sampling uses the math/rand/v2 global
// generator, which is safe for concurrent callers without external locking.
type Jitter struct {
	Low  time.Duration
	High time.Duration
}

// Sample draws a value from [Low, High). A degenerate range (High <= Low)
// returns Low exactly.
func (j Jitter) Sample() time.Duration {
	if j.High <= j.Low {
		return j.Low
	}
	return j.Low + time.Duration(rand.Int64N(int64(j.High-j.Low)))
}
