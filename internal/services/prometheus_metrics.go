package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	searchRequests     *prometheus.CounterVec
	searchDuration     prometheus.Histogram
	reportRequests     *prometheus.CounterVec
	reportDuration     *prometheus.HistogramVec
	receiptOperations  *prometheus.CounterVec
	cascadeClearedRefs prometheus.Counter
	orphansReclaimed   prometheus.Counter
}

func NewPrometheusMetrics() MetricsRecorderInterface {
	return &PrometheusMetrics{
		searchRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_search_requests_total",
				Help: "Total number of expense search requests",
			},
			[]string{"status"},
		),
		searchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "expense_search_duration_seconds",
				Help:    "Expense search duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		reportRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_requests_total",
				Help: "Total number of report requests",
			},
			[]string{"kind", "status"},
		),
		reportDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "report_duration_milliseconds",
				Help:    "Report generation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"kind"},
		),
		receiptOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_operations_total",
				Help: "Total number of receipt operations",
			},
			[]string{"operation", "status"},
		),
		cascadeClearedRefs: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "expense_cascade_cleared_receipts_total",
				Help: "Total number of receipt references cleared by expense deletions",
			},
		),
		orphansReclaimed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orphaned_blobs_reclaimed_total",
				Help: "Total number of orphaned receipt blobs reclaimed by the sweeper",
			},
		),
	}
}

func (m *PrometheusMetrics) RecordSearch(duration time.Duration, status string) {
	m.searchRequests.WithLabelValues(status).Inc()
	m.searchDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordReport(kind string, duration time.Duration, status string) {
	m.reportRequests.WithLabelValues(kind, status).Inc()
	m.reportDuration.WithLabelValues(kind).Observe(float64(duration.Milliseconds()))
}

func (m *PrometheusMetrics) RecordReceiptOp(operation, status string) {
	m.receiptOperations.WithLabelValues(operation, status).Inc()
}

func (m *PrometheusMetrics) RecordCascadeCleared(count int) {
	m.cascadeClearedRefs.Add(float64(count))
}

func (m *PrometheusMetrics) RecordOrphansReclaimed(count int) {
	m.orphansReclaimed.Add(float64(count))
}

// noopMetrics discards every observation. Used when no registry is wired,
// for example in tests.
type noopMetrics struct{}

func NewNoopMetrics() MetricsRecorderInterface { return noopMetrics{} }

func (noopMetrics) RecordSearch(time.Duration, string)          {}
func (noopMetrics) RecordReport(string, time.Duration, string)  {}
func (noopMetrics) RecordReceiptOp(string, string)              {}
func (noopMetrics) RecordCascadeCleared(int)                    {}
func (noopMetrics) RecordOrphansReclaimed(int)                  {}
