package jobs

import "github.com/prometheus/client_golang/prometheus"

// Failure reasons for jobFailures.
const (
	reasonError = "error"
	reasonPanic = "panic"
)

var (
	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "job",
		Name:      "runs_total",
		Help:      "Background job runs, failed ones included.",
	}, []string{"job"})

	jobFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "job",
		Name:      "failures_total",
		Help:      "Background job runs that returned an error or panicked.",
	}, []string{"job", "reason"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Subsystem: "job",
		Name:      "duration_seconds",
		Help:      "Background job duration.",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
	}, []string{"job"})

	jobLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "portal",
		Subsystem: "job",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last run that finished without error.",
	}, []string{"job"})

	// totals the sweep found stale and rewrote; nonzero means post-write recomputes are failing
	totalsRepaired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "totals_repaired_total",
		Help:      "Stale total scores corrected by the repair sweep.",
	})
)

func init() {
	prometheus.MustRegister(jobRuns, jobFailures, jobDuration, jobLastSuccess, totalsRepaired)
}
