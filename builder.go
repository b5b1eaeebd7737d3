package anew

import (
	"context"
	"errors"
	"time"
)

// settings accumulates builder configuration. It is written by a single
// goroutine during the chain and read once by the engine; builders are not
// safe for concurrent configuration or repeated terminal calls.
type settings[OUT any] struct {
	policy   Policy
	retryIf  func(OUT) bool
	onRetry  []func(Attempt)
	onGiveUp []func(Attempt)
	finalErr bool
	handle   []error
	handleFn func(error) bool
	skip     []error
	skipFn   func(error) bool
	err      *ValidationError // first configuration mistake, reported by Run
}

func newSettings[OUT any]() settings[OUT] {
	attempts, delay := GetDefaults()
	return settings[OUT]{policy: Policy{
		MaxAttempts: attempts,
		BaseDelay:   delay,
		MaxDelay:    DefaultMaxDelay,
	}}
}

func (s *settings[OUT]) fail(ve *ValidationError) {
	if s.err == nil {
		s.err = ve
	}
}

func (s *settings[OUT]) setAttempts(n int) {
	if n < 1 {
		n = 1
	}
	s.policy.MaxAttempts = n
}

func (s *settings[OUT]) setDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.policy.BaseDelay = d
}

func (s *settings[OUT]) setMaxDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultMaxDelay
	}
	s.policy.MaxDelay = d
}

func (s *settings[OUT]) setJitter(low, high time.Duration) {
	if low < 0 {
		low = 0
	}
	if high <= low {
		high = low + 1
	}
	s.policy.JitterLow = low
	s.policy.JitterHigh = high
	s.policy.JitterOn = true
}

func (s *settings[OUT]) setPolicy(p Policy) {
	if err := p.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			s.fail(ve)
		}
		return
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	s.policy = p
}

func (s *settings[OUT]) addOnRetry(fn func(Attempt)) {
	if fn == nil {
		s.fail(errValidation("OnRetry", "observer must not be nil"))
		return
	}
	s.onRetry = append(s.onRetry, fn)
}

func (s *settings[OUT]) addOnGiveUp(fn func(Attempt)) {
	if fn == nil {
		s.fail(errValidation("OnGiveUp", "observer must not be nil"))
		return
	}
	s.onGiveUp = append(s.onGiveUp, fn)
}

func (s *settings[OUT]) setHandle(errs []error) {
	if len(errs) == 0 {
		s.fail(errValidation("Handle", "at least one error is required"))
		return
	}
	for _, e := range errs {
		if e == nil {
			s.fail(errValidation("Handle", "error must not be nil"))
			return
		}
	}
	s.handle = append(s.handle, errs...)
}

func (s *settings[OUT]) setHandleIf(fn func(error) bool) {
	if fn == nil {
		s.fail(errValidation("HandleIf", "classifier must not be nil"))
		return
	}
	s.handleFn = fn
}

func (s *settings[OUT]) setSkip(errs []error) {
	if len(errs) == 0 {
		s.fail(errValidation("Skip", "at least one error is required"))
		return
	}
	for _, e := range errs {
		if e == nil {
			s.fail(errValidation("Skip", "error must not be nil"))
			return
		}
	}
	s.skip = append(s.skip, errs...)
}

func (s *settings[OUT]) setSkipIf(fn func(error) bool) {
	if fn == nil {
		s.fail(errValidation("SkipIf", "classifier must not be nil"))
		return
	}
	s.skipFn = fn
}

func (s *settings[OUT]) setRetryIf(fn func(OUT) bool) {
	if fn == nil {
		s.fail(errValidation("RetryIf", "predicate must not be nil"))
		return
	}
	s.retryIf = fn
}

// fatal classifies an operation error against the skip-list and allow-list.
// Skipped errors are always fatal; with a non-empty allow-list, anything the
// list does not cover is fatal too. With no allow-list every non-skipped
// error is retryable. Cancellation is handled upstream and never reaches
// here.
func (s *settings[OUT]) fatal(err error) bool {
	for _, target := range s.skip {
		if errors.Is(err, target) {
			return true
		}
	}
	if s.skipFn != nil && s.skipFn(err) {
		return true
	}
	if len(s.handle) == 0 && s.handleFn == nil {
		return false
	}
	for _, target := range s.handle {
		if errors.Is(err, target) {
			return false
		}
	}
	if s.handleFn != nil && s.handleFn(err) {
		return false
	}
	return true
}

// Runner retries an operation that yields no value. Construct one with Do or
// DoCtx, chain configuration, then call Run or RunCtx exactly once.
type Runner struct {
	fn func(context.Context) error
	s  settings[struct{}]
}

// Attempts sets the number of retries after the first try (total invocations
// = n+1). Values below 1 are clamped to 1; to configure zero retries, use
// Policy with MaxAttempts 0.
func (r *Runner) Attempts(n int) *Runner {
	r.s.setAttempts(n)
	return r
}

// Delay sets the base delay before each retry. Negative values are clamped
// to 0.
func (r *Runner) Delay(d time.Duration) *Runner {
	r.s.setDelay(d)
	return r
}

// MaxDelay caps the exponential delay term. Values <= 0 restore
// DefaultMaxDelay.
func (r *Runner) MaxDelay(d time.Duration) *Runner {
	r.s.setMaxDelay(d)
	return r
}

// Exponential enables or disables doubling the delay after each failure.
func (r *Runner) Exponential(enabled bool) *Runner {
	r.s.policy.Exponential = enabled
	return r
}

// Jitter adds a uniform random offset in [low, high) to every delay. A
// negative low is clamped to 0 and a high <= low is corrected to low+1; use
// Policy for strict bounds checking instead.
func (r *Runner) Jitter(low, high time.Duration) *Runner {
	r.s.setJitter(low, high)
	return r
}

// Policy replaces the accumulated numeric configuration wholesale. The
// policy is strictly validated; an invalid one is reported by Run as a
// *ValidationError.
func (r *Runner) Policy(p Policy) *Runner {
	r.s.setPolicy(p)
	return r
}

// OnRetry registers an observer called after each failed try that will be
// retried, in registration order, before the delay begins.
func (r *Runner) OnRetry(fn func(Attempt)) *Runner {
	r.s.addOnRetry(fn)
	return r
}

// OnGiveUp registers an observer called exactly once when the final try
// fails, before Run returns.
func (r *Runner) OnGiveUp(fn func(Attempt)) *Runner {
	r.s.addOnGiveUp(fn)
	return r
}

// FinalError controls whether exhaustion surfaces the last failure cause.
// Disabled by default: Run returns nil after exhaustion unless this is
// enabled. See the package documentation.
func (r *Runner) FinalError(enabled bool) *Runner {
	r.s.finalErr = enabled
	return r
}

// Handle restricts retries to the given errors (matched with errors.Is).
// Anything else is propagated immediately without consuming an attempt. By
// default every error is retryable.
func (r *Runner) Handle(errs ...error) *Runner {
	r.s.setHandle(errs)
	return r
}

// HandleIf is the functional form of Handle: the classifier is consulted
// after the Handle list and marks matching errors retryable.
func (r *Runner) HandleIf(fn func(error) bool) *Runner {
	r.s.setHandleIf(fn)
	return r
}

// Skip excludes the given errors from retry even when Handle would cover
// them. Skipped errors are propagated unmodified without consuming an
// attempt and without firing observers.
func (r *Runner) Skip(errs ...error) *Runner {
	r.s.setSkip(errs)
	return r
}

// SkipIf is the functional form of Skip.
func (r *Runner) SkipIf(fn func(error) bool) *Runner {
	r.s.setSkipIf(fn)
	return r
}

// Run blocks the calling goroutine until the run completes. It is equivalent
// to RunCtx(context.Background()).
func (r *Runner) Run() error {
	return r.RunCtx(context.Background())
}

// RunCtx drives one attempt loop under ctx. Cancelling ctx aborts an
// in-flight inter-attempt delay and returns context.Cause(ctx).
func (r *Runner) RunCtx(ctx context.Context) error {
	fn := r.fn
	_, err := run(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, &r.s)
	return err
}

// RunnerOut retries an operation that yields a value. Construct one with
// DoOut or DoOutCtx, chain configuration, then call Run or RunCtx exactly
// once.
type RunnerOut[OUT any] struct {
	fn func(context.Context) (OUT, error)
	s  settings[OUT]
}

// Attempts sets the number of retries after the first try (total invocations
// = n+1). Values below 1 are clamped to 1; to configure zero retries, use
// Policy with MaxAttempts 0.
func (r *RunnerOut[OUT]) Attempts(n int) *RunnerOut[OUT] {
	r.s.setAttempts(n)
	return r
}

// Delay sets the base delay before each retry. Negative values are clamped
// to 0.
func (r *RunnerOut[OUT]) Delay(d time.Duration) *RunnerOut[OUT] {
	r.s.setDelay(d)
	return r
}

// MaxDelay caps the exponential delay term. Values <= 0 restore
// DefaultMaxDelay.
func (r *RunnerOut[OUT]) MaxDelay(d time.Duration) *RunnerOut[OUT] {
	r.s.setMaxDelay(d)
	return r
}

// Exponential enables or disables doubling the delay after each failure.
func (r *RunnerOut[OUT]) Exponential(enabled bool) *RunnerOut[OUT] {
	r.s.policy.Exponential = enabled
	return r
}

// Jitter adds a uniform random offset in [low, high) to every delay. A
// negative low is clamped to 0 and a high <= low is corrected to low+1; use
// Policy for strict bounds checking instead.
func (r *RunnerOut[OUT]) Jitter(low, high time.Duration) *RunnerOut[OUT] {
	r.s.setJitter(low, high)
	return r
}

// Policy replaces the accumulated numeric configuration wholesale. The
// policy is strictly validated; an invalid one is reported by Run as a
// *ValidationError.
func (r *RunnerOut[OUT]) Policy(p Policy) *RunnerOut[OUT] {
	r.s.setPolicy(p)
	return r
}

// RetryIf registers a result predicate: when the operation succeeds but the
// predicate returns true for its value, the attempt is treated as a failure
// with cause ErrConditionNotMet and retried.
func (r *RunnerOut[OUT]) RetryIf(pred func(OUT) bool) *RunnerOut[OUT] {
	r.s.setRetryIf(pred)
	return r
}

// OnRetry registers an observer called after each failed try that will be
// retried, in registration order, before the delay begins.
func (r *RunnerOut[OUT]) OnRetry(fn func(Attempt)) *RunnerOut[OUT] {
	r.s.addOnRetry(fn)
	return r
}

// OnGiveUp registers an observer called exactly once when the final try
// fails, before Run returns.
func (r *RunnerOut[OUT]) OnGiveUp(fn func(Attempt)) *RunnerOut[OUT] {
	r.s.addOnGiveUp(fn)
	return r
}

// FinalError controls whether exhaustion surfaces the last failure cause.
// Disabled by default: Run returns the last value and a nil error after
// exhaustion unless this is enabled. See the package documentation.
func (r *RunnerOut[OUT]) FinalError(enabled bool) *RunnerOut[OUT] {
	r.s.finalErr = enabled
	return r
}

// Handle restricts retries to the given errors (matched with errors.Is).
// Anything else is propagated immediately without consuming an attempt. By
// default every error is retryable.
func (r *RunnerOut[OUT]) Handle(errs ...error) *RunnerOut[OUT] {
	r.s.setHandle(errs)
	return r
}

// HandleIf is the functional form of Handle: the classifier is consulted
// after the Handle list and marks matching errors retryable.
func (r *RunnerOut[OUT]) HandleIf(fn func(error) bool) *RunnerOut[OUT] {
	r.s.setHandleIf(fn)
	return r
}

// Skip excludes the given errors from retry even when Handle would cover
// them. Skipped errors are propagated unmodified without consuming an
// attempt and without firing observers.
func (r *RunnerOut[OUT]) Skip(errs ...error) *RunnerOut[OUT] {
	r.s.setSkip(errs)
	return r
}

// SkipIf is the functional form of Skip.
func (r *RunnerOut[OUT]) SkipIf(fn func(error) bool) *RunnerOut[OUT] {
	r.s.setSkipIf(fn)
	return r
}

// Run blocks the calling goroutine until the run completes. It is equivalent
// to RunCtx(context.Background()).
func (r *RunnerOut[OUT]) Run() (OUT, error) {
	return r.RunCtx(context.Background())
}

// RunCtx drives one attempt loop under ctx. Cancelling ctx aborts an
// in-flight inter-attempt delay and returns context.Cause(ctx).
func (r *RunnerOut[OUT]) RunCtx(ctx context.Context) (OUT, error) {
	return run(ctx, r.fn, &r.s)
}
