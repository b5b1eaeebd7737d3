package anew_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"andy.dev/anew"
)

var (
	errBoom  = errors.New("boom")
	errOther = errors.New("other")
)

// failN returns an operation that fails n times before succeeding, and a
// pointer to its invocation counter.
func failN(n int) (func() error, *int) {
	calls := 0
	return func() error {
		calls++
		if calls <= n {
			return errBoom
		}
		return nil
	}, &calls
}

func TestAlwaysFailingConsumesAllAttempts(t *testing.T) {
	calls := 0
	err := anew.Do(func() error {
		calls++
		return errBoom
	}).
		Attempts(3).
		Delay(0).
		FinalError(true).
		Run()

	require.Error(t, err)
	assert.True(t, anew.Exhausted(err))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 4, calls, "maxAttempts=3 means 4 invocations")
}

func TestSucceedsMidway(t *testing.T) {
	fn, calls := failN(2)
	retries := 0
	err := anew.Do(fn).
		Attempts(5).
		Delay(0).
		OnRetry(func(anew.Attempt) { retries++ }).
		OnGiveUp(func(anew.Attempt) { t.Error("give-up observer must not fire on success") }).
		Run()

	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, 2, retries)
}

func TestZeroAttemptsSingleTry(t *testing.T) {
	calls, giveUps := 0, 0
	start := time.Now()
	err := anew.Do(func() error {
		calls++
		return errBoom
	}).
		Policy(anew.Policy{MaxAttempts: 0, BaseDelay: time.Millisecond}).
		OnRetry(func(anew.Attempt) { t.Error("no retry observer for a single try") }).
		OnGiveUp(func(a anew.Attempt) {
			giveUps++
			assert.Equal(t, 1, a.Number)
			assert.True(t, a.Final())
			assert.ErrorIs(t, a.Err, errBoom)
		}).
		FinalError(true).
		Run()

	require.Error(t, err)
	assert.True(t, anew.Exhausted(err))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, giveUps)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "no delay before final failure")
}

func TestSilentExhaustionDefault(t *testing.T) {
	calls, retries, giveUps := 0, 0, 0
	err := anew.Do(func() error {
		calls++
		return errBoom
	}).
		Attempts(2).
		Delay(0).
		OnRetry(func(anew.Attempt) { retries++ }).
		OnGiveUp(func(anew.Attempt) { giveUps++ }).
		Run()

	assert.NoError(t, err, "exhaustion is silent unless FinalError is enabled")
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
	assert.Equal(t, 1, giveUps)
}

func TestCancellationNeverRetried(t *testing.T) {
	t.Run("Bare", func(t *testing.T) {
		calls := 0
		err := anew.Do(func() error {
			calls++
			return context.Canceled
		}).
			Attempts(5).
			Delay(0).
			OnRetry(func(anew.Attempt) { t.Error("observer fired for cancellation") }).
			OnGiveUp(func(anew.Attempt) { t.Error("observer fired for cancellation") }).
			Run()

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
		assert.False(t, anew.Exhausted(err))
	})

	t.Run("Wrapped", func(t *testing.T) {
		calls := 0
		err := anew.Do(func() error {
			calls++
			return fmt.Errorf("inner op: %w", context.Canceled)
		}).
			Attempts(5).
			Delay(0).
			Run()

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestOuterCancelAbortsDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := anew.DoCtx(func(context.Context) error {
		calls++
		return errBoom
	}).
		Attempts(5).
		Delay(10 * time.Second).
		OnRetry(func(anew.Attempt) { cancel() }).
		RunCtx(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation during the delay stops further tries")
}

func TestInnerDeadlineIsRetryable(t *testing.T) {
	// A per-attempt timeout inside the operation is an ordinary transient
	// failure, not a request to stop the whole run.
	calls := 0
	err := anew.Do(func() error {
		calls++
		return context.DeadlineExceeded
	}).
		Attempts(1).
		Delay(0).
		FinalError(true).
		Run()

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, anew.Exhausted(err))
	assert.Equal(t, 2, calls)
}

func TestAllowList(t *testing.T) {
	calls := 0
	err := anew.Do(func() error {
		calls++
		return errBoom
	}).
		Attempts(3).
		Delay(0).
		Handle(errOther).
		OnRetry(func(anew.Attempt) { t.Error("observer fired for unhandled error") }).
		OnGiveUp(func(anew.Attempt) { t.Error("observer fired for unhandled error") }).
		Run()

	assert.Equal(t, errBoom, err, "unhandled errors propagate unmodified")
	assert.Equal(t, 1, calls)
}

func TestAllowListMatchRetries(t *testing.T) {
	fn, calls := failN(2)
	err := anew.Do(fn).
		Attempts(5).
		Delay(0).
		Handle(errBoom, errOther).
		Run()

	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
}

func TestSkipList(t *testing.T) {
	calls := 0
	err := anew.Do(func() error {
		calls++
		return errBoom
	}).
		Attempts(3).
		Delay(0).
		Handle(errBoom).
		Skip(errBoom).
		Run()

	assert.Equal(t, errBoom, err, "skip wins over handle")
	assert.Equal(t, 1, calls)
}

func TestSkipIf(t *testing.T) {
	calls := 0
	err := anew.Do(func() error {
		calls++
		return errBoom
	}).
		Attempts(3).
		Delay(0).
		SkipIf(func(err error) bool { return errors.Is(err, errBoom) }).
		Run()

	assert.Equal(t, errBoom, err)
	assert.Equal(t, 1, calls)
}

func TestHandleIf(t *testing.T) {
	fn, calls := failN(1)
	err := anew.Do(fn).
		Attempts(3).
		Delay(0).
		HandleIf(func(err error) bool { return errors.Is(err, errBoom) }).
		Run()

	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestRetryIfRoundTrip(t *testing.T) {
	t.Run("UntilSatisfied", func(t *testing.T) {
		vals := []int{0, 0, 42}
		calls := 0
		got, err := anew.DoOut(func() (int, error) {
			v := vals[calls]
			calls++
			return v, nil
		}).
			Attempts(5).
			Delay(0).
			RetryIf(func(v int) bool { return v == 0 }).
			Run()

		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("NeverFlags", func(t *testing.T) {
		calls := 0
		got, err := anew.DoOut(func() (int, error) {
			calls++
			return 7, nil
		}).
			Attempts(5).
			Delay(0).
			RetryIf(func(int) bool { return false }).
			Run()

		require.NoError(t, err)
		assert.Equal(t, 7, got)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryIfExhaustion(t *testing.T) {
	t.Run("SilentReturnsLastValue", func(t *testing.T) {
		giveUps := 0
		got, err := anew.DoOut(func() (int, error) {
			return 13, nil
		}).
			Attempts(2).
			Delay(0).
			RetryIf(func(int) bool { return true }).
			OnGiveUp(func(a anew.Attempt) {
				giveUps++
				assert.ErrorIs(t, a.Err, anew.ErrConditionNotMet)
			}).
			Run()

		assert.NoError(t, err)
		assert.Equal(t, 13, got, "silent exhaustion returns the last value")
		assert.Equal(t, 1, giveUps)
	})

	t.Run("FinalErrorSurfacesCondition", func(t *testing.T) {
		got, err := anew.DoOut(func() (int, error) {
			return 13, nil
		}).
			Attempts(2).
			Delay(0).
			RetryIf(func(int) bool { return true }).
			FinalError(true).
			Run()

		require.Error(t, err)
		assert.True(t, anew.Exhausted(err))
		assert.ErrorIs(t, err, anew.ErrConditionNotMet)
		assert.Zero(t, got)
	})
}

func TestObserverOrderAndSnapshot(t *testing.T) {
	var order []string
	var numbers []int
	fn, _ := failN(3)
	err := anew.Do(fn).
		Attempts(3).
		Delay(0).
		OnRetry(func(a anew.Attempt) {
			order = append(order, "first")
			numbers = append(numbers, a.Number)
			assert.Equal(t, 4, a.Total())
			assert.False(t, a.Final())
			assert.ErrorIs(t, a.Err, errBoom)
			assert.False(t, a.At.IsZero())
		}).
		OnRetry(func(anew.Attempt) { order = append(order, "second") }).
		Run()

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, numbers, "observers see strictly increasing attempts")
	assert.Equal(t, []string{"first", "second", "first", "second", "first", "second"}, order)
}

func TestExponentialDelaysDouble(t *testing.T) {
	var delays []time.Duration
	_ = anew.Do(func() error { return errBoom }).
		Attempts(3).
		Delay(time.Millisecond).
		Exponential(true).
		OnRetry(func(a anew.Attempt) { delays = append(delays, a.NextDelay) }).
		Run()

	require.Len(t, delays, 3)
	assert.Equal(t, time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
	assert.Equal(t, 4*time.Millisecond, delays[2])
}

func TestConstantDelayNotCapped(t *testing.T) {
	// A valid BaseDelay may exceed DefaultMaxDelay; the cap applies to
	// exponential growth only, so the full base delay must be waited.
	p := anew.Policy{MaxAttempts: 2, BaseDelay: 2 * time.Minute}
	require.NoError(t, p.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	var got time.Duration
	_ = anew.DoCtx(func(context.Context) error { return errBoom }).
		Policy(p).
		OnRetry(func(a anew.Attempt) {
			got = a.NextDelay
			cancel()
		}).
		RunCtx(ctx)

	assert.Equal(t, 2*time.Minute, got)
}

func TestConstantDelayElapsed(t *testing.T) {
	fn, calls := failN(2)
	retries := 0
	start := time.Now()
	err := anew.Do(fn).
		Attempts(2).
		Delay(100 * time.Millisecond).
		OnRetry(func(anew.Attempt) { retries++ }).
		Run()
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, 2, retries)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
}

func TestJitteredDelayStaysInRange(t *testing.T) {
	var delays []time.Duration
	_ = anew.Do(func() error { return errBoom }).
		Attempts(5).
		Delay(time.Millisecond).
		Jitter(0, time.Millisecond).
		OnRetry(func(a anew.Attempt) { delays = append(delays, a.NextDelay) }).
		Run()

	require.Len(t, delays, 5)
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, time.Millisecond)
		assert.Less(t, d, 2*time.Millisecond)
	}
}

func TestDoOutReturnsFirstSuccess(t *testing.T) {
	calls := 0
	got, err := anew.DoOut(func() (string, error) {
		calls++
		if calls < 2 {
			return "", errBoom
		}
		return "ready", nil
	}).
		Attempts(5).
		Delay(0).
		Run()

	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, 2, calls)
}

func TestDoOutCtxThreadsContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "payload")
	got, err := anew.DoOutCtx(func(ctx context.Context) (string, error) {
		return ctx.Value(key{}).(string), nil
	}).RunCtx(ctx)

	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestConcurrentRunsShareOnePolicy(t *testing.T) {
	p := anew.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	require.NoError(t, p.Validate())

	done := make(chan error, 8)
	for range 8 {
		go func() {
			fn, _ := failN(1)
			done <- anew.Do(fn).Policy(p).Run()
		}()
	}
	for range 8 {
		assert.NoError(t, <-done)
	}
}
