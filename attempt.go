package anew

import (
	"fmt"
	"time"
)

// Attempt is a snapshot of one failed try, handed to OnRetry and OnGiveUp
// observers. Snapshots are created fresh per failure and never retained by
// the loop; an observer that wants history must copy what it needs.
type Attempt struct {
	// Err is the failure cause: the operation's error, or ErrConditionNotMet
	// when a RetryIf predicate rejected the result.
	Err error
	// Number is the 1-based index of the try that just failed.
	Number int
	// Remaining is how many retries are still available. Always 0 on the
	// give-up callback.
	Remaining int
	// NextDelay is the wait before the next try. Zero on the final attempt.
	NextDelay time.Duration
	// At is when the failure was observed.
	At time.Time
}

// Final reports whether this was the last allowed try.
func (a Attempt) Final() bool {
	return a.Remaining == 0
}

// Total is the overall number of tries this run may make.
func (a Attempt) Total() int {
	return a.Number + a.Remaining
}

// String implements fmt.Stringer.
func (a Attempt) String() string {
	return fmt.Sprintf("attempt %d/%d", a.Number, a.Total())
}

// Format implements fmt.Formatter. It supports the %s and %q print verbs.
// Output is flag-dependent:
//
//	%s  - "attempt #/#"
//	%+s - "attempt #/# - next in <duration>"
//
// The next-in suffix is omitted on the final attempt, which has no next try.
func (a Attempt) Format(state fmt.State, verb rune) {
	switch verb {
	case 's', 'q':
		str := a.String()
		if state.Flag('+') && !a.Final() {
			str = fmt.Sprintf("%s - next in %v", str, shortNext(a.NextDelay))
		}
		if verb == 'q' {
			str = fmt.Sprintf("%q", str)
		}
		fmt.Fprint(state, str)
	}
}

// Next returns the approximate time the next try will begin, assuming the
// failure was just observed.
func (a Attempt) Next() time.Time {
	return a.At.Add(a.NextDelay)
}

// shortNext rounds a delay for display: sub-second values keep millisecond
// precision, everything longer is rounded to whole seconds.
func shortNext(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Truncate(time.Millisecond)
	}
	return d.Round(time.Second)
}
