package anew

import (
	"errors"
	"fmt"
)

// ErrConditionNotMet is the synthesized failure cause used when a RetryIf
// predicate rejects an otherwise successful result. Observers see it as
// Attempt.Err, and it is the cause returned after exhaustion when
// FinalError(true) is set and the predicate never passed.
var ErrConditionNotMet = errors.New("result condition not satisfied")

// ValidationError reports invalid configuration: a nil operation or
// callback, an out-of-range Policy on the strict path, or a malformed
// defaults environment. Builder setters record the first such mistake and
// Run/RunCtx returns it before any attempt is made.
type ValidationError struct {
	op  string
	err error
}

// Error implements the error interface. The message names the setter or
// constructor that was misused.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("anew: %s: %v", ve.op, ve.err)
}

// Unwrap allows a *ValidationError to work with errors.Is and errors.As.
func (ve *ValidationError) Unwrap() error { return ve.err }

// IsValidation reports whether err is a configuration error rather than a
// failure of the operation itself.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func errValidation(op, format string, a ...any) *ValidationError {
	return &ValidationError{op: op, err: fmt.Errorf(format, a...)}
}

// Exhausted returns true if the error is the final cause returned after
// every attempt was consumed with FinalError enabled.
func Exhausted(e error) bool {
	_, ok := e.(*exhaustedErr)
	return ok
}

type exhaustedErr struct {
	err error
}

func (ee *exhaustedErr) Error() string {
	return ee.err.Error()
}

func (ee *exhaustedErr) Unwrap() error {
	return ee.err
}

func errExhausted(e error) *exhaustedErr {
	return &exhaustedErr{e}
}
