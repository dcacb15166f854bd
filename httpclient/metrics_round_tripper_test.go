/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/a1base/a1base-go/testutil"
)

func TestMetricsRoundTripper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	collector := NewPrometheusMetricsCollector("")

	rt := NewMetricsRoundTripperWithOpts(http.DefaultTransport, MetricsRoundTripperOpts{Collector: collector})
	client := &http.Client{Transport: rt}

	// Request type from the context.
	ctx := NewContextWithRequestType(context.Background(), "send_individual_message")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	// Request type from the options.
	req, err = http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	hist := collector.Durations.With(prometheus.Labels{
		"request_type": "send_individual_message", "method": http.MethodPost, "status": "418",
	}).(prometheus.Histogram)
	testutil.RequireSamplesCountInHistogram(t, hist, 1)

	hist = collector.Durations.With(prometheus.Labels{
		"request_type": DefaultRequestType, "method": http.MethodGet, "status": "418",
	}).(prometheus.Histogram)
	testutil.RequireSamplesCountInHistogram(t, hist, 1)
}
