package hub

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pairsphere/paird/internal/directory"
	"github.com/pairsphere/paird/internal/protocol"
)

// closeGracePeriod bounds the close handshake write on Terminate.
const closeGracePeriod = 2 * time.Second

// State is the lifecycle stage of a connection. It only ever advances.
type State int

const (
	// StateConnected is a fresh socket that has not authenticated yet.
	StateConnected State = iota
	// StateAuthed has a verified identity but no peer registration.
	StateAuthed
	// StateRegistered is a full participant of the rendezvous service.
	StateRegistered
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthed:
		return "authed"
	case StateRegistered:
		return "registered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Conn wraps one websocket connection. All frame writes go through SendFrame
// under writeMu; the read loop stays single-goroutine in Hub.HandleConn.
//
// Conn implements registry.Handle.
type Conn struct {
	id           string
	ws           *websocket.Conn
	ipHash       string
	writeTimeout time.Duration
	logger       *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	state     State
	identity  *directory.Identity
	networkID string
	alive     bool
	closed    bool
	torndown  bool
	authTimer *time.Timer
}

func newConn(ws *websocket.Conn, ipHash string, writeTimeout time.Duration, logger *slog.Logger) *Conn {
	id := protocol.NewSocketID()
	return &Conn{
		id:           id,
		ws:           ws,
		ipHash:       ipHash,
		writeTimeout: writeTimeout,
		logger:       logger.With("socket", id),
		state:        StateConnected,
		alive:        true,
	}
}

// SocketID returns the server-assigned socket id.
func (c *Conn) SocketID() string { return c.id }

// UserID returns the authenticated user id, or "" before AUTH.
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return ""
	}
	return c.identity.UserID
}

// Identity returns the verified identity, or nil before AUTH.
func (c *Conn) Identity() *directory.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// NetworkID returns the active invite network, or "" for none.
func (c *Conn) NetworkID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.networkID
}

// State returns the current lifecycle stage.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SendFrame writes one frame with the configured write deadline. Safe for
// concurrent use.
func (c *Conn) SendFrame(f protocol.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return fmt.Errorf("hub: encode %s frame: %w", f.Event, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("hub: write %s frame: %w", f.Event, err)
	}
	return nil
}

// Terminate performs the close handshake with the given close code and shuts
// the socket. Idempotent; the read loop unblocks and the hub runs its
// disconnect cleanup.
func (c *Conn) Terminate(code int, reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancelAuthTimer()
	deadline := time.Now().Add(closeGracePeriod)
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		c.logger.Debug("close handshake write failed", "error", err)
	}
	_ = c.ws.Close()
}

// IsAlive reports whether the connection produced traffic since the last
// liveness sweep cleared the flag.
func (c *Conn) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *Conn) markAlive() {
	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()
}

func (c *Conn) clearAlive() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}

// sendPing sends a websocket-level ping; the client's pong marks the
// connection alive again.
func (c *Conn) sendPing() error {
	deadline := time.Now().Add(closeGracePeriod)
	return c.ws.WriteControl(websocket.PingMessage, nil, deadline)
}

// advanceAuthed moves CONNECTED → AUTHED, attaching the verified identity
// and network. Returns false when the connection was closed while the
// verification was in flight.
func (c *Conn) advanceAuthed(identity *directory.Identity, networkID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateConnected {
		return false
	}
	c.state = StateAuthed
	c.identity = identity
	c.networkID = networkID
	return true
}

// advanceRegistered moves AUTHED → REGISTERED.
func (c *Conn) advanceRegistered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateAuthed {
		return false
	}
	c.state = StateRegistered
	return true
}

// armAuthTimer schedules fn unless AUTH completes within d.
func (c *Conn) armAuthTimer(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.authTimer = time.AfterFunc(d, fn)
}

func (c *Conn) cancelAuthTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authTimer != nil {
		c.authTimer.Stop()
		c.authTimer = nil
	}
}

// beginTeardown claims the one-shot disconnect cleanup. Only the first
// caller gets true.
func (c *Conn) beginTeardown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.torndown {
		return false
	}
	c.torndown = true
	return true
}
