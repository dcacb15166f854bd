/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRequireCounterValue(t *testing.T) {
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "requests_rejected_total"})
	rejected.Add(3)

	mockT := &MockT{}
	RequireCounterValue(mockT, rejected, 2)
	require.True(t, mockT.Failed)

	mockT = &MockT{}
	RequireCounterValue(mockT, rejected, 3)
	require.False(t, mockT.Failed)
}

func TestRequireCounterValueWithLabels(t *testing.T) {
	apiErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "api_errors_total"}, []string{"channel", "status"})
	apiErrors.WithLabelValues("whatsapp", "400").Inc()
	apiErrors.WithLabelValues("generic", "422").Add(2)

	mockT := &MockT{}
	RequireCounterValue(mockT, apiErrors.WithLabelValues("generic", "422"), 2)
	require.False(t, mockT.Failed)

	mockT = &MockT{}
	RequireCounterValue(mockT, apiErrors.WithLabelValues("whatsapp", "400"), 2)
	require.True(t, mockT.Failed)
}

func TestRequireGaugeValue(t *testing.T) {
	depth := prometheus.NewGauge(prometheus.GaugeOpts{Name: "queue_depth"})
	depth.Set(7)

	mockT := &MockT{}
	RequireGaugeValue(mockT, depth, 0)
	require.True(t, mockT.Failed)

	mockT = &MockT{}
	RequireGaugeValue(mockT, depth, 7)
	require.False(t, mockT.Failed)
}

func TestRequireSamplesCountInHistogram(t *testing.T) {
	dispatchWait := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "dispatch_wait_seconds", Buckets: []float64{0.1, 0.5, 1}})
	dispatchWait.Observe(0.2)

	mockT := &MockT{}
	RequireSamplesCountInHistogram(mockT, dispatchWait, 0)
	require.True(t, mockT.Failed)

	mockT = &MockT{}
	RequireSamplesCountInHistogram(mockT, dispatchWait, 1)
	require.False(t, mockT.Failed)
}
