package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

var (
	Gradings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "gradings_total", Help: "Grade writes by outcome",
	}, []string{"op", "outcome"})
	DuplicateRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "duplicate_rejections_total", Help: "Writes rejected by the uniqueness guard",
	}, []string{"entity", "stage"})
	AggregationRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "aggregation_runs_total", Help: "Total score recomputations",
	})
	AggregationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "aggregation_failures_total", Help: "Recomputations that left a total score stale",
	})
	RecomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "recompute_seconds", Help: "Total score recomputation latency",
		Buckets: prometheus.DefBuckets,
	})
	ReadReceipts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "read_receipts_total", Help: "New announcement read receipts",
	})
	Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "exports_total", Help: "Rendered reports",
	}, []string{"report", "format"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Gradings, DuplicateRejections, AggregationRuns, AggregationFailures,
		RecomputeDuration, ReadReceipts, Exports, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveRecompute(d time.Duration) { RecomputeDuration.Observe(d.Seconds()) }
