/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/a1base/a1base-go/internal/libinfo"
)

// DefaultQueueWaitBuckets is the default histogram buckets for the time a request spends in the queue.
var DefaultQueueWaitBuckets = []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// MetricsCollector collects metrics about queue usage.
type MetricsCollector interface {
	// SetDepth sets the number of waiting requests.
	SetDepth(int)

	// IncRejected increments the number of requests rejected because the queue was full.
	IncRejected()

	// ObserveWait records how long a request waited between enqueue and dispatch.
	ObserveWait(time.Duration)

	// IncDispatched increments the number of dispatched requests, partitioned by outcome.
	IncDispatched(failed bool)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// QueueWaitBuckets is a list of buckets for the queue wait histogram.
	// DefaultQueueWaitBuckets is used when empty.
	QueueWaitBuckets []float64

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the request queue.
type PrometheusMetrics struct {
	Depth           prometheus.Gauge
	RejectedTotal   prometheus.Counter
	WaitSeconds     prometheus.Histogram
	DispatchedTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	buckets := opts.QueueWaitBuckets
	if buckets == nil {
		buckets = DefaultQueueWaitBuckets
	}
	constLabels := libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)

	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   opts.Namespace,
		Name:        "request_queue_depth",
		Help:        "Number of requests waiting in the queue.",
		ConstLabels: constLabels,
	})
	rejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   opts.Namespace,
		Name:        "request_queue_rejected_total",
		Help:        "Number of requests rejected because the queue was full.",
		ConstLabels: constLabels,
	})
	waitSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   opts.Namespace,
		Name:        "request_queue_wait_seconds",
		Help:        "Time a request spent in the queue before dispatch.",
		Buckets:     buckets,
		ConstLabels: constLabels,
	})
	dispatchedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   opts.Namespace,
		Name:        "request_queue_dispatched_total",
		Help:        "Number of dispatched requests.",
		ConstLabels: constLabels,
	}, []string{"result"})

	return &PrometheusMetrics{
		Depth:           depth,
		RejectedTotal:   rejectedTotal,
		WaitSeconds:     waitSeconds,
		DispatchedTotal: dispatchedTotal,
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Depth, pm.RejectedTotal, pm.WaitSeconds, pm.DispatchedTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.Depth)
	prometheus.Unregister(pm.RejectedTotal)
	prometheus.Unregister(pm.WaitSeconds)
	prometheus.Unregister(pm.DispatchedTotal)
}

// SetDepth sets the number of waiting requests.
func (pm *PrometheusMetrics) SetDepth(n int) {
	pm.Depth.Set(float64(n))
}

// IncRejected increments the number of rejected requests.
func (pm *PrometheusMetrics) IncRejected() {
	pm.RejectedTotal.Inc()
}

// ObserveWait records the queue wait of a dispatched request.
func (pm *PrometheusMetrics) ObserveWait(d time.Duration) {
	pm.WaitSeconds.Observe(d.Seconds())
}

// IncDispatched increments the number of dispatched requests.
func (pm *PrometheusMetrics) IncDispatched(failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	pm.DispatchedTotal.WithLabelValues(result).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) SetDepth(int)              {}
func (disabledMetrics) IncRejected()              {}
func (disabledMetrics) ObserveWait(time.Duration) {}
func (disabledMetrics) IncDispatched(failed bool) {}

var disabledMetricsCollector = disabledMetrics{}
