// Package retrylog adapts a *slog.Logger into anew observer callbacks.
//
// anew does no logging of its own; wiring one of these observers into
// OnRetry or OnGiveUp is how retry activity reaches a log:
//
//	log := retrylog.Console(slog.LevelInfo)
//	err := anew.Do(op).
//		OnRetry(retrylog.OnRetry(log)).
//		OnGiveUp(retrylog.OnGiveUp(log)).
//		Run()
package retrylog

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"andy.dev/anew"
)

// OnRetry returns an observer that logs each failed-but-retried attempt at
// Warn level.
func OnRetry(l *slog.Logger) func(anew.Attempt) {
	return func(a anew.Attempt) {
		l.Warn("retrying",
			"attempt", a.Number,
			"total", a.Total(),
			"next_delay", a.NextDelay,
			"error", a.Err,
		)
	}
}

// OnGiveUp returns an observer that logs the final failure at Error level.
func OnGiveUp(l *slog.Logger) func(anew.Attempt) {
	return func(a anew.Attempt) {
		l.Error("giving up",
			"attempts", a.Number,
			"error", a.Err,
		)
	}
}

// Console builds a colorized stderr logger, handy for development and
// examples. Production callers will usually pass their own logger to OnRetry
// and OnGiveUp instead.
func Console(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
