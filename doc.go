/*
Package anew is a builder-style retry library for Go.

It wraps a fallible operation, runs it until it succeeds or its attempts run
out, and spaces the tries with configurable constant or exponential backoff
plus optional uniform jitter.

# Entry Points

The following operation shapes are supported:

	|              Signature               | Entry Point |
	|--------------------------------------|-------------|
	| func() error                         | Do          |
	| func() (OUT, error)                  | DoOut       |
	| func(context.Context) error          | DoCtx       |
	| func(context.Context) (OUT, error)   | DoOutCtx    |

Each returns a builder with chainable setters and two terminals: Run, which
blocks on a background context, and RunCtx, which threads the caller's
context through every invocation and through the inter-attempt delays. Both
drive exactly one attempt loop.

# Retry Workflow

A try ends the run immediately when any of the following holds:
  - It returns a nil error (and no RetryIf predicate objects to the value).
  - It returns context.Canceled: the cancellation is propagated as-is,
    before any other classification, without firing observers.
  - It returns an error on the Skip list, or outside a configured Handle
    allow-list: the error is propagated unmodified.
  - The outer context is cancelled during a delay.

Every other failure consumes an attempt. While retries remain, OnRetry
observers fire in registration order (before the delay starts), then the
loop waits and tries again. Attempts run strictly one at a time; the only
suspension points are the operation itself and the delay timer.

# Silent Exhaustion

By default, a run whose attempts are exhausted returns the LAST VALUE AND A
NIL ERROR. This surprises most people at least once, so it bears repeating:
unless FinalError(true) is chained, Run does not report exhaustion through
its error value. The OnGiveUp observer, which fires exactly once after the
final failed try, is the built-in visibility mechanism; FinalError(true)
makes Run return the last cause instead, wrapped so that Exhausted reports
true for it and errors.Is still matches the original error.

# Result Predicates

DoOut builders accept RetryIf, a predicate over the successful value. A true
result turns the try into a retryable failure with the synthetic cause
ErrConditionNotMet. If attempts exhaust with the predicate still unsatisfied,
the usual exhaustion rules apply: the last value is returned silently, or
ErrConditionNotMet is surfaced under FinalError(true).

# Configuration Strictness

Builder setters are lenient: out-of-range numbers are clamped (attempts
below 1 become 1, negative delays become 0, a jitter high bound at or below
the low bound becomes low+1), while nil callbacks and operations record a
*ValidationError that Run returns before the first try. The strict variant
is the Policy type: Policy.Validate rejects out-of-range values, and the
Policy setter applies a validated policy wholesale, so call sites that want
hard failures instead of clamping construct a Policy.

Process-wide default attempts and delay are read once at builder
construction; see SetDefaults and LoadDefaultsEnv.

Observer sink adapters live in the retrylog (log/slog) and retryprom
(Prometheus) subpackages.
*/
package anew
