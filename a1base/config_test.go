/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/a1base/a1base-go/config"
	"github.com/a1base/a1base-go/httpclient"
	"github.com/a1base/a1base-go/queue"
)

func TestConfig(t *testing.T) {
	defaultHTTPClientCfg := *httpclient.NewDefaultConfig()
	tests := []struct {
		name        string
		cfgData     string
		expectedCfg func() *Config
		expectedErr string
	}{
		{
			name: "defaults",
			cfgData: `
a1base:
  credentials:
    apiKey: key
    apiSecret: secret
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig("key", "secret")
				cfg.HTTPClient = defaultHTTPClientCfg
				return cfg
			},
		},
		{
			name: "all overridden",
			cfgData: `
a1base:
  credentials:
    apiKey: key
    apiSecret: secret
  baseURL: https://api.staging.a1base.com/v1
  pathVersion: V1
  freshnessWindow: 1m
  rateLimits:
    requestsPerSecond: 2
    maxQueueSize: 5
    retryAfter: 3s
  httpClient:
    timeout: 30s
    logger:
      mode: all
      slowRequestThreshold: 2s
    metrics:
      enabled: true
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig("key", "secret")
				cfg.BaseURL = "https://api.staging.a1base.com/v1"
				cfg.PathVersion = PathVersionV1
				cfg.FreshnessWindow = time.Minute
				cfg.RateLimits = queue.RateLimitConfig{RequestsPerSecond: 2, MaxQueueSize: 5, RetryAfter: 3 * time.Second}
				cfg.HTTPClient = defaultHTTPClientCfg
				cfg.HTTPClient.Timeout = 30 * time.Second
				cfg.HTTPClient.Logger.Mode = httpclient.LoggingModeAll
				cfg.HTTPClient.Logger.SlowRequestThreshold = 2 * time.Second
				cfg.HTTPClient.Metrics.Enabled = true
				return cfg
			},
		},
		{
			name:        "missing api key",
			cfgData:     `a1base: {credentials: {apiSecret: secret}}`,
			expectedErr: "a1base.credentials.apiKey: must not be empty",
		},
		{
			name:        "missing api secret",
			cfgData:     `a1base: {credentials: {apiKey: key}}`,
			expectedErr: "a1base.credentials.apiSecret: must not be empty",
		},
		{
			name:        "plain http base url",
			cfgData:     `a1base: {credentials: {apiKey: key, apiSecret: secret}, baseURL: "http://api.a1base.com/v1"}`,
			expectedErr: "a1base.baseURL: base url must be an https url",
		},
		{
			name:        "unknown path version",
			cfgData:     `a1base: {credentials: {apiKey: key, apiSecret: secret}, pathVersion: v3}`,
			expectedErr: "a1base.pathVersion: unknown value \"v3\"",
		},
		{
			name:        "zero freshness window",
			cfgData:     `a1base: {credentials: {apiKey: key, apiSecret: secret}, freshnessWindow: 0s}`,
			expectedErr: "a1base.freshnessWindow: must be positive",
		},
		{
			name:        "bad rate limit",
			cfgData:     `a1base: {credentials: {apiKey: key, apiSecret: secret}, rateLimits: {maxQueueSize: 0}}`,
			expectedErr: "a1base.rateLimits.maxQueueSize: must be positive",
		},
		{
			name:        "bad http client logger mode",
			cfgData:     `a1base: {credentials: {apiKey: key, apiSecret: secret}, httpClient: {logger: {mode: some}}}`,
			expectedErr: "a1base.httpClient.logger.mode: choose one of: [none, all, failed]",
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.expectedErr != "" {
				require.ErrorContains(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("A1BASE_A1BASE_CREDENTIALS_APIKEY", "env-key")
	t.Setenv("A1BASE_A1BASE_CREDENTIALS_APISECRET", "env-secret")

	cfg := NewConfig()
	require.NoError(t, config.NewDefaultLoader("A1BASE").Load(cfg))
	require.Equal(t, "env-key", cfg.Credentials.APIKey)
	require.Equal(t, "env-secret", cfg.Credentials.APISecret)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
}
