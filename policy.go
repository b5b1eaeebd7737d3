package anew

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"andy.dev/anew/backoff"
)

const (
	// DefaultAttempts is the process-default number of retries after the
	// first try. Override with SetDefaults.
	DefaultAttempts = 3
	// DefaultDelay is the process-default base delay. Override with
	// SetDefaults.
	DefaultDelay = 100 * time.Millisecond
	// DefaultMaxDelay caps the exponential term when no explicit cap is
	// configured.
	DefaultMaxDelay = backoff.DefaultLimit
)

// Policy describes one retry configuration: how many retries to make, how
// long to wait between them, and how that wait grows and spreads. A Policy
// is read-only once handed to a Runner; a single value may parameterize any
// number of concurrent runs.
//
// Construction is either strict or lenient. The strict path is Validate,
// which rejects out-of-range values with a *ValidationError. The lenient
// path is the builder setters (Attempts, Delay, Jitter, ...), which clamp
// bad inputs to the nearest usable value instead.
type Policy struct {
	// MaxAttempts is the number of retries after the first try; total
	// invocations are MaxAttempts+1. Zero means a single try.
	MaxAttempts int `validate:"gte=0,lte=100"`
	// BaseDelay is the pre-jitter delay after the first failure.
	BaseDelay time.Duration `validate:"gte=1ms,lte=5m"`
	// MaxDelay saturates the exponential term. Zero means DefaultMaxDelay.
	MaxDelay time.Duration `validate:"gte=0"`
	// JitterLow and JitterHigh bound the uniform random offset added to
	// every delay when JitterOn is set. Validate requires High > Low >= 0.
	JitterLow  time.Duration `validate:"gte=0"`
	JitterHigh time.Duration `validate:"gte=0"`
	// Exponential doubles the delay after each failed attempt, up to
	// MaxDelay.
	Exponential bool
	// JitterOn enables jitter sampling.
	JitterOn bool
}

var validate = validator.New()

// Validate is the strict construction check. It returns a *ValidationError
// when MaxAttempts is outside [0, 100], BaseDelay is outside [1ms, 5m], any
// bound is negative, or jitter is enabled with JitterHigh <= JitterLow.
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return &ValidationError{op: "Policy", err: err}
	}
	if p.JitterOn && p.JitterHigh <= p.JitterLow {
		return errValidation("Policy", "jitter bounds: high (%v) must exceed low (%v)", p.JitterHigh, p.JitterLow)
	}
	return nil
}

// normalized is the lenient counterpart of Validate: negative or degenerate
// values are clamped rather than rejected. The builder setters already clamp
// on the way in, so for most runs this is a no-op.
func (p Policy) normalized() Policy {
	if p.MaxAttempts < 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.JitterLow < 0 {
		p.JitterLow = 0
	}
	if p.JitterOn && p.JitterHigh <= p.JitterLow {
		p.JitterHigh = p.JitterLow + 1
	}
	return p
}

func (p Policy) jitter() backoff.Jitter {
	if !p.JitterOn {
		return backoff.Jitter{}
	}
	return backoff.Jitter{Low: p.JitterLow, High: p.JitterHigh}
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	mode := "constant"
	if p.Exponential {
		mode = "exponential"
	}
	s := fmt.Sprintf("%d retries, %v %s", p.MaxAttempts, p.BaseDelay, mode)
	if p.JitterOn {
		s = fmt.Sprintf("%s, jitter [%v, %v)", s, p.JitterLow, p.JitterHigh)
	}
	return s
}
