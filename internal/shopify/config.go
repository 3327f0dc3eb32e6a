package shopify

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for the Shopify Admin REST API.
type Config struct {
	// StoreDomain is the myshopify.com domain, e.g. "acme.myshopify.com".
	StoreDomain string
	// AccessToken is the Admin API access token.
	AccessToken string
	// APIVersion is the Admin API version segment.
	APIVersion string
	// APIBaseURL overrides the derived base URL; used by tests.
	APIBaseURL string
	// Timeout is the HTTP request timeout.
	Timeout time.Duration
	// MetafieldNamespace is the namespace all metafields are written under.
	MetafieldNamespace string
}

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2024-01"

var (
	ErrConfigMissingStoreDomain = errors.New("shopify: store domain is required")
	ErrConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// NewConfig creates a Shopify configuration with defaults.
func NewConfig(storeDomain, accessToken string) *Config {
	return &Config{
		StoreDomain:        storeDomain,
		AccessToken:        accessToken,
		APIVersion:         DefaultAPIVersion,
		Timeout:            30 * time.Second,
		MetafieldNamespace: "custom",
	}
}

// Validate validates the configuration and fills derived fields.
func (c *Config) Validate() error {
	if c.StoreDomain == "" {
		return ErrConfigMissingStoreDomain
	}
	if c.AccessToken == "" {
		return ErrConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = fmt.Sprintf("https://%s/admin/api/%s", c.StoreDomain, c.APIVersion)
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MetafieldNamespace == "" {
		c.MetafieldNamespace = "custom"
	}
	return nil
}
