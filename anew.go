package anew

import (
	"context"
)

// Do wraps a plain operation in a retry builder.
//
// The builder starts from the process defaults (see SetDefaults) and is
// configured by chaining setters before the terminal Run or RunCtx call:
//
//	err := anew.Do(ping).Attempts(5).Delay(250*time.Millisecond).FinalError(true).Run()
//
// A nil operation is reported by Run as a *ValidationError.
func Do(fn func() error) *Runner {
	if fn == nil {
		return DoCtx(nil)
	}
	return DoCtx(func(context.Context) error {
		return fn()
	})
}

// DoCtx wraps a context-aware operation in a retry builder. The context
// passed to RunCtx is handed through to every invocation.
func DoCtx(fn func(context.Context) error) *Runner {
	r := &Runner{fn: fn, s: newSettings[struct{}]()}
	if fn == nil {
		r.s.fail(errValidation("DoCtx", "operation must not be nil"))
	}
	return r
}

// DoOut wraps a value-returning operation in a retry builder. The value of
// the first successful try (or the last try, on silent exhaustion) is
// returned by Run.
func DoOut[OUT any](fn func() (OUT, error)) *RunnerOut[OUT] {
	if fn == nil {
		return DoOutCtx[OUT](nil)
	}
	return DoOutCtx(func(context.Context) (OUT, error) {
		return fn()
	})
}

// DoOutCtx wraps a context-aware, value-returning operation in a retry
// builder. The context passed to RunCtx is handed through to every
// invocation.
func DoOutCtx[OUT any](fn func(context.Context) (OUT, error)) *RunnerOut[OUT] {
	r := &RunnerOut[OUT]{fn: fn, s: newSettings[OUT]()}
	if fn == nil {
		r.s.fail(errValidation("DoOutCtx", "operation must not be nil"))
	}
	return r
}
