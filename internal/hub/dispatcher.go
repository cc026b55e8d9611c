package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pairsphere/paird/internal/protocol"
)

// handlerFunc processes one inbound frame's payload.
type handlerFunc func(ctx context.Context, c *Conn, data json.RawMessage)

func (h *Hub) initHandlers() {
	h.handlers = map[string]handlerFunc{
		protocol.EventAuth:               h.handleAuth,
		protocol.EventPeerRegister:       h.handlePeerRegister,
		protocol.EventDiscoverPeers:      h.handleDiscoverPeers,
		protocol.EventConnectionRequest:  h.handleConnectionRequest,
		protocol.EventConnectionResponse: h.handleConnectionResponse,
		protocol.EventSendMessage:        h.handleSendMessage,
		protocol.EventPing:               h.handlePing,
	}
}

// minState is the lowest lifecycle stage from which an event is accepted.
var minState = map[string]State{
	protocol.EventAuth:               StateConnected,
	protocol.EventPing:               StateConnected,
	protocol.EventPeerRegister:       StateAuthed,
	protocol.EventDiscoverPeers:      StateRegistered,
	protocol.EventConnectionRequest:  StateRegistered,
	protocol.EventConnectionResponse: StateRegistered,
	protocol.EventSendMessage:        StateRegistered,
}

// dispatch parses one raw frame, gates it on the connection state and routes
// it to its handler. Every inbound frame counts as liveness, valid or not.
func (h *Hub) dispatch(ctx context.Context, c *Conn, raw []byte) {
	c.markAlive()

	frame, err := protocol.ParseFrame(raw)
	if err != nil {
		h.logger.Debug("unparseable frame", "socket", c.id, "error", err)
		h.send(c, protocol.ErrorFrame(protocol.ErrInvalidMessage))
		return
	}

	handler, known := h.handlers[frame.Event]
	if !known {
		h.send(c, protocol.ErrorFrameMsg(protocol.ErrInvalidMessage, fmt.Sprintf("unknown event %q", frame.Event)))
		return
	}

	if state := c.State(); state < minState[frame.Event] {
		code := protocol.ErrMustRegister
		if state == StateConnected {
			code = protocol.ErrNotAuthenticated
		}
		h.send(c, protocol.ErrorFrame(code))
		return
	}

	handler(ctx, c, frame.Data)
}

// send writes a frame, logging delivery failure. Routing and notifications
// are fire-and-forget; a dead recipient is handled by its own read loop.
func (h *Hub) send(c *Conn, f protocol.Frame) {
	if err := c.SendFrame(f); err != nil {
		h.logger.Debug("frame delivery failed", "socket", c.id, "event", f.Event, "error", err)
	}
}
