package hub

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.AuthTimeout != 10*time.Second {
		t.Errorf("AuthTimeout = %v, want 10s", cfg.AuthTimeout)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.RequestTTL != 30*time.Second {
		t.Errorf("RequestTTL = %v, want 30s", cfg.RequestTTL)
	}
	if cfg.MaxFrameBytes != 1<<20 {
		t.Errorf("MaxFrameBytes = %d, want 1 MiB", cfg.MaxFrameBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{AuthTimeout: -time.Second}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a negative AuthTimeout")
	}
}
