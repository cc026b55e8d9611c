package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pairsphere/paird/internal/directory"
	"github.com/pairsphere/paird/internal/hub"
	"github.com/pairsphere/paird/internal/registry"
)

// Daemon is the assembled rendezvous service.
type Daemon struct {
	cfg    *Config
	logger *slog.Logger
	server *hub.Server
}

// New builds the daemon from a validated configuration.
func New(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	client, err := directory.NewClient(cfg.Directory, logger)
	if err != nil {
		return nil, fmt.Errorf("daemon: directory client: %w", err)
	}

	reg := registry.New(cfg.Hub.RequestTTL)
	h := hub.New(cfg.Hub, reg, client, client, logger)
	server := hub.NewServer(cfg.Hub, h, logger)

	return &Daemon{
		cfg:    cfg,
		logger: logger.With("component", "daemon"),
		server: server,
	}, nil
}

// Run serves until ctx is cancelled, then drains and returns.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("starting", "listen", d.cfg.Hub.Listen, "directory", d.cfg.Directory.BaseURL)
	return d.server.Start(ctx)
}

// Addr returns the bound listen address once serving.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}
