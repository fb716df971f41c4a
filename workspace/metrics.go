package workspace

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"asset-manifest/scan"
)

// Metrics holds Prometheus metrics for manifest operations.
//
// Metrics:
//   - assetman_operations_total{op,level} - operations by outcome level
//   - assetman_items_total{op,outcome} - batch items processed or failed
//   - assetman_operation_duration_seconds{op} - operation latency
//   - assetman_broken_links - broken links found by the last analysis
//   - assetman_untracked_files - untracked files found by the last analysis
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	ItemsTotal        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	BrokenLinks       prometheus.Gauge
	UntrackedFiles    prometheus.Gauge
}

// NewMetrics registers with reg. A nil reg leaves the collectors
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetman_operations_total",
				Help: "Total number of manifest operations by result level",
			},
			[]string{"op", "level"},
		),
		ItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetman_items_total",
				Help: "Total number of batch items by outcome",
			},
			[]string{"op", "outcome"}, // "processed" or "failed"
		),
		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetman_operation_duration_seconds",
				Help:    "Duration of manifest operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		BrokenLinks: f.NewGauge(prometheus.GaugeOpts{
			Name: "assetman_broken_links",
			Help: "Broken links found by the most recent analysis",
		}),
		UntrackedFiles: f.NewGauge(prometheus.GaugeOpts{
			Name: "assetman_untracked_files",
			Help: "Untracked files found by the most recent analysis",
		}),
	}
}

func (m *Metrics) observe(op string, start time.Time, r Result) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(op, string(r.Level)).Inc()
	m.ItemsTotal.WithLabelValues(op, "processed").Add(float64(r.Processed))
	m.ItemsTotal.WithLabelValues(op, "failed").Add(float64(len(r.Failures)))
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) drift(r scan.Report) {
	if m == nil {
		return
	}
	m.BrokenLinks.Set(float64(len(r.BrokenLinks)))
	m.UntrackedFiles.Set(float64(len(r.UntrackedFiles)))
}
