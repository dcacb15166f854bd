/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/a1base/a1base-go/internal/libinfo"
)

var metricsResponseErrors *prometheus.CounterVec

const (
	metricsSubsystem = "restapi"

	metricsLabelChannel = "channel"
	metricsLabelKind    = "kind"
	metricsLabelStatus  = "status"
)

// Error kinds used as metric label values.
const (
	errorKindNetwork    = "network"
	errorKindValidation = "validation"
	errorKindStatus     = "status"
	errorKindClient     = "client"
)

// MustInitAndRegisterMetrics initializes and registers restapi global metrics. Panic will be raised in case of error.
func MustInitAndRegisterMetrics(namespace string) {
	metricsResponseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   metricsSubsystem,
		Name:        "response_errors_total",
		Help:        "The total number of failed A1Base API calls.",
		ConstLabels: libinfo.AddPrometheusLibVersionLabel(nil),
	}, []string{metricsLabelChannel, metricsLabelKind, metricsLabelStatus})
	prometheus.MustRegister(metricsResponseErrors)
}

// UnregisterMetrics unregisters restapi global metrics.
func UnregisterMetrics() {
	if metricsResponseErrors != nil {
		prometheus.Unregister(metricsResponseErrors)
		metricsResponseErrors = nil
	}
}

func incResponseErrors(channel, kind string, status int) {
	if metricsResponseErrors == nil {
		return
	}
	metricsResponseErrors.WithLabelValues(channel, kind, strconv.Itoa(status)).Inc()
}
