package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Server exposes the websocket endpoint at /ws plus /healthz and /statusz,
// and runs the hub's background loops.
type Server struct {
	cfg      Config
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	addr string
}

// NewServer creates the rendezvous server around hub.
func NewServer(cfg Config, hub *Hub, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		hub:    hub,
		logger: logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are desktop agents, not browsers; origin checks
			// carry no meaning here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Addr returns the bound listen address, or "" before Start has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) setAddr(addr string) {
	s.mu.Lock()
	s.addr = addr
	s.mu.Unlock()
}

// Start binds the listener, runs the heartbeat and request sweepers, and
// serves until ctx is cancelled, then drains gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("hub: listen on %s: %w", s.cfg.Listen, err)
	}
	s.setAddr(ln.Addr().String())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/statusz", s.handleStatusz)

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopCtx, stopLoops := context.WithCancel(context.Background())
	defer stopLoops()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.hub.RunHeartbeat(loopCtx)
	}()
	go func() {
		defer wg.Done()
		s.hub.RunRequestSweeper(loopCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()
	s.logger.Info("listening", "addr", s.Addr())

	select {
	case err := <-serveErr:
		stopLoops()
		wg.Wait()
		if err != nil {
			return fmt.Errorf("hub: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.hub.CloseAll(websocket.CloseGoingAway, "server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown incomplete", "error", err)
		_ = httpServer.Close()
	}

	stopLoops()
	wg.Wait()
	<-serveErr
	return nil
}

// handleWS upgrades the request and hands the connection to the hub. Blocks
// for the connection's lifetime.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newConn(ws, s.hub.hasher.Hash(r.RemoteAddr), s.cfg.WriteTimeout, s.logger)
	ws.SetReadLimit(s.cfg.MaxFrameBytes)
	ws.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})

	s.hub.HandleConn(r.Context(), c)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatusz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s.hub.Snapshot()); err != nil {
		s.logger.Debug("statusz encode failed", "error", err)
	}
}
