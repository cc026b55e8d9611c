package hub

import (
	"errors"
	"time"
)

// Defaults for the hub configuration.
const (
	DefaultListen               = ":7690"
	DefaultAuthTimeout          = 10 * time.Second
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultRequestTTL           = 30 * time.Second
	DefaultRequestSweepInterval = 10 * time.Second
	DefaultWriteTimeout         = 10 * time.Second
	DefaultShutdownTimeout      = 10 * time.Second
	DefaultMaxFrameBytes        = 1 << 20 // 1 MiB
)

// Config holds the configuration for the rendezvous hub and its server.
// Config is passed as a constructor argument — no file I/O in this package.
type Config struct {
	// Listen is the TCP listen address for the websocket and health
	// endpoints. Default: ":7690"
	Listen string

	// AuthTimeout is how long a fresh connection may stay unauthenticated
	// before it is closed with code 4001. Default: 10s
	AuthTimeout time.Duration

	// HeartbeatInterval is the liveness sweep period. A connection that
	// misses two consecutive sweeps is terminated. Default: 30s
	HeartbeatInterval time.Duration

	// RequestTTL is how long a pending connection request stays
	// answerable. Default: 30s
	RequestTTL time.Duration

	// RequestSweepInterval is how often expired requests are evicted.
	// Default: 10s
	RequestSweepInterval time.Duration

	// WriteTimeout is the per-frame write deadline. Default: 10s
	WriteTimeout time.Duration

	// ShutdownTimeout is the maximum time for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration

	// MaxFrameBytes is the maximum inbound frame size. Default: 1 MiB
	MaxFrameBytes int64

	// IPHashSalt salts the IP hashes used for LAN detection. When empty a
	// random per-process salt is used, which disables LAN detection
	// across restarts but keeps it working within one process.
	IPHashSalt string
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.AuthTimeout == 0 {
		c.AuthTimeout = DefaultAuthTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.RequestTTL == 0 {
		c.RequestTTL = DefaultRequestTTL
	}
	if c.RequestSweepInterval == 0 {
		c.RequestSweepInterval = DefaultRequestSweepInterval
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = DefaultMaxFrameBytes
	}
}

// Validate checks that values are acceptable.
func (c *Config) Validate() error {
	if c.AuthTimeout < 0 {
		return errors.New("hub: config: AuthTimeout must not be negative")
	}
	if c.HeartbeatInterval < 0 {
		return errors.New("hub: config: HeartbeatInterval must not be negative")
	}
	if c.RequestTTL < 0 {
		return errors.New("hub: config: RequestTTL must not be negative")
	}
	return nil
}
