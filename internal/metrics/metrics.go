// Package metrics exposes jfsck's Prometheus counters: checker record
// categories and commit outcomes, served over a dedicated registry so
// multiple Init calls within a test binary never collide with the
// default global registerer.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *prometheus.Registry

	checkerCategory *prometheus.CounterVec
	commitOutcome   *prometheus.CounterVec
)

// Init lazily creates the registry and registers every counter. Safe to
// call more than once; only the first call takes effect.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		checkerCategory = promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "jfsck_checker_records_total",
				Help: "Total journal records classified by a checker run, by category",
			},
			[]string{"category"},
		)

		commitOutcome = promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "jfsck_commit_outcomes_total",
				Help: "Total transaction commits, by outcome",
			},
			[]string{"outcome"}, // "success", "atomic_failure", "severe"
		)
	})
}

// ObserveCheckerCategory increments the counter for one classified record.
func ObserveCheckerCategory(category string) {
	if checkerCategory == nil {
		return
	}
	checkerCategory.WithLabelValues(category).Inc()
}

// ObserveCommitOutcome increments the counter for one commit attempt.
func ObserveCommitOutcome(outcome string) {
	if commitOutcome == nil {
		return
	}
	commitOutcome.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format, calling Init first if no registry exists yet.
func Handler() http.Handler {
	if registry == nil {
		Init()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
