package directory

import (
	"errors"
	"time"
)

// DefaultConnectTimeout is the default TCP connect timeout.
const DefaultConnectTimeout = 10 * time.Second

// DefaultRequestTimeout is the default HTTP request timeout.
const DefaultRequestTimeout = 10 * time.Second

// Config holds the configuration for the directory Client.
// Config is passed as a constructor argument — no file I/O in this package.
type Config struct {
	// BaseURL is the directory service base URL (required).
	// Example: "https://directory.pairsphere.dev"
	BaseURL string

	// ServiceToken authenticates this daemon against the directory
	// service. Optional; sent as a bearer token when set.
	ServiceToken string

	// TLSInsecureSkipVerify disables TLS certificate verification.
	// WARNING: Only use for development/testing.
	TLSInsecureSkipVerify bool

	// ConnectTimeout is the maximum time to wait for a TCP connection.
	// Default: 10s
	ConnectTimeout time.Duration

	// RequestTimeout is the maximum time for a complete request/response
	// cycle. Default: 10s
	RequestTimeout time.Duration
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("directory: config: BaseURL is required")
	}
	return nil
}
