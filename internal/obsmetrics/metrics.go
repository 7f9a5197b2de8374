// Package obsmetrics exposes the concretestv CLI's Prometheus metrics: a
// lazily-initialised, sync.Once-guarded registry of CounterVec and
// HistogramVec series. Wired from the CLI's optional
// --metrics-addr flag; the engine itself never touches this package.
package obsmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the process-wide concretestv metrics set.
type Registry struct {
	countsTotal         *prometheus.CounterVec
	unresolvedTiesTotal *prometheus.CounterVec
	runDuration         *prometheus.HistogramVec
}

var (
	registryOnce sync.Once
	registry     *Registry
)

// Metrics returns the lazily-initialised, process-wide Registry, registering
// its series with the default Prometheus registerer exactly once.
func Metrics() *Registry {
	registryOnce.Do(func() {
		registry = &Registry{
			countsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "concretestv",
				Name:      "counts_total",
				Help:      "Total count rows appended, segmented by rule profile.",
			}, []string{"rule_profile"}),
			unresolvedTiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "concretestv",
				Name:      "unresolved_ties_total",
				Help:      "Total runs that halted on an unresolved tie, segmented by rule profile.",
			}, []string{"rule_profile"}),
			runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "concretestv",
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of a complete engine run, segmented by rule profile.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"rule_profile"}),
		}
		prometheus.MustRegister(
			registry.countsTotal,
			registry.unresolvedTiesTotal,
			registry.runDuration,
		)
	})
	return registry
}

// ObserveRun records one completed (or aborted) engine invocation: the
// number of count rows it produced, whether it ended in an unresolved tie,
// and how long it took.
func (r *Registry) ObserveRun(ruleProfile string, counts int, unresolvedTie bool, duration time.Duration) {
	if r == nil {
		return
	}
	if ruleProfile == "" {
		ruleProfile = "unknown"
	}
	r.countsTotal.WithLabelValues(ruleProfile).Add(float64(counts))
	if unresolvedTie {
		r.unresolvedTiesTotal.WithLabelValues(ruleProfile).Inc()
	}
	r.runDuration.WithLabelValues(ruleProfile).Observe(duration.Seconds())
}
