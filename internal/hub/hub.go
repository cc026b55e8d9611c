// Package hub implements the rendezvous endpoint: the websocket server, the
// per-connection lifecycle (AUTH, PEER_REGISTER), peer discovery, the
// pairwise session handshake, message routing, and heartbeat supervision.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pairsphere/paird/internal/directory"
	"github.com/pairsphere/paird/internal/iphash"
	"github.com/pairsphere/paird/internal/protocol"
	"github.com/pairsphere/paird/internal/registry"
)

// Hub owns the live connections and routes their frames.
type Hub struct {
	cfg      Config
	reg      *registry.Registry
	verifier directory.Verifier
	resolver directory.Resolver
	hasher   *iphash.Hasher
	bcast    *broadcaster
	logger   *slog.Logger
	start    time.Time

	handlers map[string]handlerFunc

	mu    sync.Mutex
	conns map[string]*Conn
}

// New creates a Hub. The config must have defaults applied.
func New(cfg Config, reg *registry.Registry, verifier directory.Verifier, resolver directory.Resolver, logger *slog.Logger) *Hub {
	h := &Hub{
		cfg:      cfg,
		reg:      reg,
		verifier: verifier,
		resolver: resolver,
		hasher:   iphash.New(cfg.IPHashSalt),
		logger:   logger.With("component", "hub"),
		start:    time.Now(),
		conns:    make(map[string]*Conn),
	}
	h.bcast = &broadcaster{reg: reg, logger: h.logger}
	h.initHandlers()
	return h
}

// HandleConn runs the read loop for one connection and performs the
// disconnect cleanup when it ends. Blocks until the socket closes.
func (h *Hub) HandleConn(ctx context.Context, c *Conn) {
	h.addConn(c)
	c.armAuthTimer(h.cfg.AuthTimeout, func() { h.authTimedOut(c) })
	h.logger.Debug("connection opened", "socket", c.id)

	defer h.finishConn(c)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(ctx, c, data)
	}
}

// authTimedOut fires when a connection stays unauthenticated past the
// deadline.
func (h *Hub) authTimedOut(c *Conn) {
	if c.State() != StateConnected {
		return
	}
	h.logger.Info("authentication deadline expired", "socket", c.id)
	if err := c.SendFrame(protocol.ErrorFrameMsg(protocol.ErrTokenMissing, "authentication timeout")); err != nil {
		h.logger.Debug("auth timeout notice failed", "socket", c.id, "error", err)
	}
	c.Terminate(protocol.CloseAuthFailure, "authentication timeout")
}

// finishConn runs the one-shot disconnect cleanup: registry state first, the
// offline broadcast after.
func (h *Hub) finishConn(c *Conn) {
	if !c.beginTeardown() {
		return
	}
	c.cancelAuthTimer()
	c.Terminate(websocket.CloseNormalClosure, "") // no-op if already closed

	userID := c.UserID()
	peer, hadPeer := h.reg.Disconnect(userID, c.id)
	h.removeConn(c)

	h.logger.Info("connection closed", "socket", c.id, "user", userID, "registered", hadPeer)
	if hadPeer {
		h.bcast.peerStatus(peer, protocol.StatusOffline)
	}
}

func (h *Hub) addConn(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) removeConn(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
}

// connSnapshot copies the live connection set for iteration outside the
// hub lock.
func (h *Hub) connSnapshot() []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	return out
}

// CloseAll terminates every live connection. Used on shutdown.
func (h *Hub) CloseAll(code int, reason string) {
	for _, c := range h.connSnapshot() {
		c.Terminate(code, reason)
	}
}

// RunRequestSweeper evicts expired connection requests until ctx is done.
func (h *Hub) RunRequestSweeper(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.RequestSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := h.reg.SweepRequests(); dropped > 0 {
				h.logger.Debug("expired connection requests evicted", "count", dropped)
			}
		}
	}
}

// monoMillis is the monotonic server clock reported in PONG frames.
func (h *Hub) monoMillis() int64 {
	return time.Since(h.start).Milliseconds()
}

// Stats is the operational snapshot served at /statusz.
type Stats struct {
	Connections     int   `json:"connections"`
	Peers           int   `json:"peers"`
	Sessions        int   `json:"sessions"`
	PendingRequests int   `json:"pendingRequests"`
	UptimeMillis    int64 `json:"uptimeMillis"`
}

// Snapshot returns current counters.
func (h *Hub) Snapshot() Stats {
	peers, sessions, requests, _ := h.reg.Counts()
	h.mu.Lock()
	conns := len(h.conns)
	h.mu.Unlock()
	return Stats{
		Connections:     conns,
		Peers:           peers,
		Sessions:        sessions,
		PendingRequests: requests,
		UptimeMillis:    h.monoMillis(),
	}
}
