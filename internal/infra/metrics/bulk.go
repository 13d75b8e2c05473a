package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		bulkJobsStarted,
		bulkJobsCompleted,
		bulkSends,
		bulkSendLatencyMs,
		bulkActiveJobs,
		bulkStoreSize,
	)
}

var (
	bulkJobsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bulk_jobs_started_total",
			Help: "Bulk jobs accepted for background dispatch.",
		},
	)

	bulkJobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bulk_jobs_completed_total",
			Help: "Bulk jobs that reached the completed state.",
		},
	)

	bulkSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_sends_total",
			Help: "Per-recipient send outcomes.",
		},
		[]string{"outcome"},
	)

	bulkSendLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bulk_send_latency_ms",
			Help:    "Channel send latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
	)

	bulkActiveJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bulk_active_jobs",
			Help: "Bulk jobs currently processing.",
		},
	)

	bulkStoreSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bulk_store_size",
			Help: "Records currently held by the bulk job store.",
		},
	)
)

func IncBulkJobStarted() {
	bulkJobsStarted.Inc()
	bulkActiveJobs.Inc()
}

func IncBulkJobCompleted() {
	bulkJobsCompleted.Inc()
	bulkActiveJobs.Dec()
}

func IncBulkSend(outcome string) {
	bulkSends.WithLabelValues(outcome).Inc()
}

func ObserveSendLatency(d time.Duration) {
	bulkSendLatencyMs.Observe(float64(d.Milliseconds()))
}

func SetBulkStoreSize(n int) {
	bulkStoreSize.Set(float64(n))
}
