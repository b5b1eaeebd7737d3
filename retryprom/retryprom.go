// Package retryprom exposes anew retry activity as Prometheus metrics.
//
// A Set owns three metric families, labeled by operation name:
//
//	anew_retry_attempts_total   - failed attempts that were retried
//	anew_retry_exhausted_total  - runs that consumed every attempt
//	anew_retry_delay_seconds    - backoff delay applied before each retry
//
// Build one Set per registry and derive observer callbacks per operation:
//
//	set := retryprom.NewSet(prometheus.DefaultRegisterer)
//	err := anew.Do(op).
//		OnRetry(set.OnRetry("sync-users")).
//		OnGiveUp(set.OnGiveUp("sync-users")).
//		Run()
package retryprom

import (
	"github.com/prometheus/client_golang/prometheus"

	"andy.dev/anew"
)

// Set holds the retry metric families for one registry.
type Set struct {
	Retries     *prometheus.CounterVec
	Exhaustions *prometheus.CounterVec
	Delay       *prometheus.HistogramVec
}

// NewSet creates and registers the metric families with reg. Like all
// MustRegister-based collectors, registering the same Set twice on one
// registry panics.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anew",
				Subsystem: "retry",
				Name:      "attempts_total",
				Help:      "Failed attempts that were retried.",
			},
			[]string{"operation"},
		),
		Exhaustions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "anew",
				Subsystem: "retry",
				Name:      "exhausted_total",
				Help:      "Runs that consumed every attempt without succeeding.",
			},
			[]string{"operation"},
		),
		Delay: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "anew",
				Subsystem: "retry",
				Name:      "delay_seconds",
				Help:      "Backoff delay applied before each retry.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(s.Retries, s.Exhaustions, s.Delay)
	return s
}

// OnRetry returns the per-retry observer for the named operation.
func (s *Set) OnRetry(operation string) func(anew.Attempt) {
	retries := s.Retries.WithLabelValues(operation)
	delay := s.Delay.WithLabelValues(operation)
	return func(a anew.Attempt) {
		retries.Inc()
		delay.Observe(a.NextDelay.Seconds())
	}
}

// OnGiveUp returns the final-failure observer for the named operation.
func (s *Set) OnGiveUp(operation string) func(anew.Attempt) {
	exhausted := s.Exhaustions.WithLabelValues(operation)
	return func(anew.Attempt) {
		exhausted.Inc()
	}
}
