package hub

import (
	"context"
	"encoding/json"

	"github.com/pairsphere/paird/internal/protocol"
)

// handlePeerRegister creates the peer record for an authenticated
// connection, confirms with PEER_REGISTERED and announces the arrival to
// every other online peer.
func (h *Hub) handlePeerRegister(_ context.Context, c *Conn, data json.RawMessage) {
	if c.State() != StateAuthed {
		h.send(c, protocol.ErrorFrameMsg(protocol.ErrValidation, "already registered"))
		return
	}

	var payload protocol.RegisterPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			h.send(c, protocol.ErrorFrame(protocol.ErrValidation))
			return
		}
	}

	identity := c.Identity()
	profile := protocol.PeerProfile{
		DisplayName: payload.DisplayName,
		Role:        payload.Role,
		IDE:         payload.IDE,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = identity.DisplayName
	}
	if profile.Role == "" {
		profile.Role = protocol.RoleGuest
	}
	if profile.IDE == "" {
		profile.IDE = protocol.DefaultIDE
	}

	peer := h.reg.Register(identity.UserID, profile, c.id, c.ipHash, c.NetworkID())
	c.advanceRegistered()
	h.logger.Info("peer registered", "user", identity.UserID, "network", peer.NetworkID, "display_name", profile.DisplayName)

	h.send(c, protocol.MustFrame(protocol.EventPeerRegistered, protocol.PeerRegisteredPayload{
		ID:      identity.UserID,
		Profile: profile,
		Status:  protocol.StatusOnline,
	}))
	h.bcast.peerStatus(peer, protocol.StatusOnline)
}

// handleDiscoverPeers returns the online peers sharing the caller's invite
// network. A peer without a network always receives an empty list.
func (h *Hub) handleDiscoverPeers(_ context.Context, c *Conn, _ json.RawMessage) {
	userID := c.UserID()
	peers := make([]protocol.PeerSummary, 0)
	for _, peer := range h.reg.OnlineInNetwork(c.NetworkID()) {
		if peer.UserID == userID {
			continue
		}
		peers = append(peers, protocol.PeerSummary{
			ID:             peer.UserID,
			Profile:        peer.Profile,
			Status:         peer.Status,
			ConnectionMode: peer.Mode,
		})
	}
	h.send(c, protocol.MustFrame(protocol.EventPeersList, protocol.PeersListPayload{Peers: peers}))
}

// handlePing answers with the monotonic server clock. Registered peers also
// get their activity stamped.
func (h *Hub) handlePing(_ context.Context, c *Conn, _ json.RawMessage) {
	if c.State() == StateRegistered {
		h.reg.UpdateActivity(c.UserID())
	}
	h.send(c, protocol.MustFrame(protocol.EventPong, protocol.PongPayload{Timestamp: h.monoMillis()}))
}
