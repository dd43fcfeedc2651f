package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HarvestMetrics records metadata for metafield harvest processing.
type HarvestMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	backlog  prometheus.Gauge
}

// NewHarvestMetrics registers the harvest metrics on the provided registerer.
func NewHarvestMetrics(reg prometheus.Registerer) *HarvestMetrics {
	if reg == nil {
		return &HarvestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "harvest_task_duration_seconds",
		Help:    "Duration of metafield harvest tasks in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"shop"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_task_success",
		Help: "Successfully completed metafield harvest tasks.",
	}, []string{"shop"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_task_failure",
		Help: "Failed metafield harvest task attempts.",
	}, []string{"shop"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harvest_task_backlog",
		Help: "Pending metafield harvest tasks at the last poll.",
	})
	reg.MustRegister(duration, success, failure, backlog)
	return &HarvestMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		backlog:  backlog,
	}
}

// ObserveDuration records the duration of one task for the shop.
func (m *HarvestMetrics) ObserveDuration(shop string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(shop)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the shop.
func (m *HarvestMetrics) IncSuccess(shop string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(shop)).Inc()
}

// IncFailure increments the failure counter for the shop.
func (m *HarvestMetrics) IncFailure(shop string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(shop)).Inc()
}

// SetBacklog records the pending task count observed by a poll.
func (m *HarvestMetrics) SetBacklog(count int) {
	if m == nil || m.backlog == nil {
		return
	}
	m.backlog.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
