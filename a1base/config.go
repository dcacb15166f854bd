/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/a1base/a1base-go/config"
	"github.com/a1base/a1base-go/httpclient"
	"github.com/a1base/a1base-go/queue"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.a1base.com/v1"

// DefaultKeyPrefix is the key prefix of the Config section in configuration documents.
const DefaultKeyPrefix = "a1base"

const (
	cfgKeyCredentialsAPIKey    = "credentials.apiKey"
	cfgKeyCredentialsAPISecret = "credentials.apiSecret"
	cfgKeyBaseURL              = "baseURL"
	cfgKeyPathVersion          = "pathVersion"
	cfgKeyFreshnessWindow      = "freshnessWindow"
	cfgKeyHTTPClient           = "httpClient"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// CredentialsConfig holds the API key pair.
type CredentialsConfig struct {
	APIKey    string `mapstructure:"apiKey"`
	APISecret string `mapstructure:"apiSecret"`
}

// Config represents the A1Base client configuration.
type Config struct {
	Credentials CredentialsConfig `mapstructure:"credentials"`

	// BaseURL must be an https URL. DefaultBaseURL when empty.
	BaseURL string `mapstructure:"baseURL"`

	// PathVersion selects the endpoint path table and the WhatsApp webhook payload shape.
	PathVersion PathVersion `mapstructure:"pathVersion"`

	// FreshnessWindow is the maximum age of an incoming webhook. DefaultFreshnessWindow when zero.
	FreshnessWindow time.Duration `mapstructure:"freshnessWindow"`

	RateLimits queue.RateLimitConfig `mapstructure:"rateLimits"`

	HTTPClient httpclient.Config `mapstructure:"httpClient"`

	keyPrefix string
}

// NewConfig creates a new Config read from the "a1base" section.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(DefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new Config read from the given section.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig returns a Config with default values and the given credentials.
func NewDefaultConfig(apiKey, apiSecret string) *Config {
	return &Config{
		Credentials:     CredentialsConfig{APIKey: apiKey, APISecret: apiSecret},
		BaseURL:         DefaultBaseURL,
		PathVersion:     PathVersionV2,
		FreshnessWindow: DefaultFreshnessWindow,
		RateLimits:      queue.NewDefaultRateLimitConfig(),
		HTTPClient:      *httpclient.NewDefaultConfig(),
		keyPrefix:       DefaultKeyPrefix,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is part of config interface implementation.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBaseURL, DefaultBaseURL)
	dp.SetDefault(cfgKeyPathVersion, string(PathVersionV2))
	dp.SetDefault(cfgKeyFreshnessWindow, DefaultFreshnessWindow.String())
	c.RateLimits.SetProviderDefaults(dp)
	c.HTTPClient.SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, cfgKeyHTTPClient))
}

// Set is part of config interface implementation.
func (c *Config) Set(dp config.DataProvider) (err error) {
	if c.Credentials.APIKey, err = dp.GetString(cfgKeyCredentialsAPIKey); err != nil {
		return err
	}
	if c.Credentials.APIKey == "" {
		return dp.WrapKeyErr(cfgKeyCredentialsAPIKey, errors.New("must not be empty"))
	}
	if c.Credentials.APISecret, err = dp.GetString(cfgKeyCredentialsAPISecret); err != nil {
		return err
	}
	if c.Credentials.APISecret == "" {
		return dp.WrapKeyErr(cfgKeyCredentialsAPISecret, errors.New("must not be empty"))
	}

	if c.BaseURL, err = dp.GetString(cfgKeyBaseURL); err != nil {
		return err
	}
	if err = checkBaseURL(c.BaseURL); err != nil {
		return dp.WrapKeyErr(cfgKeyBaseURL, err)
	}

	versions := []string{string(PathVersionV1), string(PathVersionV2)}
	version, err := dp.GetStringFromSet(cfgKeyPathVersion, versions, true)
	if err != nil {
		return err
	}
	c.PathVersion = PathVersion(strings.ToLower(version))

	if c.FreshnessWindow, err = dp.GetDuration(cfgKeyFreshnessWindow); err != nil {
		return err
	}
	if c.FreshnessWindow <= 0 {
		return dp.WrapKeyErr(cfgKeyFreshnessWindow, errors.New("must be positive"))
	}

	if err = c.RateLimits.Set(dp); err != nil {
		return err
	}
	return c.HTTPClient.Set(config.NewKeyPrefixedDataProvider(dp, cfgKeyHTTPClient))
}

func checkBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsecureBaseURL, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInsecureBaseURL, baseURL)
	}
	return nil
}
