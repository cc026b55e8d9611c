package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pairsphere/paird/internal/protocol"
)

// handleConnectionRequest validates a pairing request against network
// membership and target liveness, records it and forwards it to the target.
func (h *Hub) handleConnectionRequest(_ context.Context, c *Conn, data json.RawMessage) {
	var payload protocol.ConnectionRequestPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TargetID == "" {
		h.send(c, protocol.ErrorFrame(protocol.ErrValidation))
		return
	}

	userID := c.UserID()
	if payload.TargetID == userID {
		h.send(c, protocol.ErrorFrameMsg(protocol.ErrValidation, "cannot request a connection to yourself"))
		return
	}

	self, ok := h.reg.PeerByUser(userID)
	if !ok {
		h.send(c, protocol.ErrorFrame(protocol.ErrPeerNotFound))
		return
	}
	target, ok := h.reg.PeerByUser(payload.TargetID)
	if !ok {
		h.send(c, protocol.ErrorFrame(protocol.ErrPeerNotFound))
		return
	}

	// Pairing is strictly network-scoped; a null network matches nothing.
	if self.NetworkID == "" || self.NetworkID != target.NetworkID {
		h.send(c, protocol.ErrorFrame(protocol.ErrNotSameNetwork))
		return
	}

	targetHandle, ok := h.reg.Socket(target.SocketID)
	if !ok {
		h.send(c, protocol.ErrorFrame(protocol.ErrTargetOffline))
		return
	}

	req := h.reg.CreateRequest(userID, payload.TargetID)
	h.logger.Info("connection request", "request", req.ID, "from", userID, "to", payload.TargetID)

	if err := targetHandle.SendFrame(protocol.MustFrame(protocol.EventConnectionRequestReceived, protocol.ConnectionRequestReceivedPayload{
		RequestID: req.ID,
		From:      protocol.PeerRef{ID: userID, Profile: self.Profile},
	})); err != nil {
		h.logger.Debug("request forward failed", "request", req.ID, "error", err)
	}
}

// handleConnectionResponse settles a pending request. Only the addressed
// peer may answer; the request is consumed once the answer is authorized.
func (h *Hub) handleConnectionResponse(_ context.Context, c *Conn, data json.RawMessage) {
	var payload protocol.ConnectionResponsePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RequestID == "" {
		h.send(c, protocol.ErrorFrame(protocol.ErrValidation))
		return
	}

	userID := c.UserID()
	req, ok := h.reg.Request(payload.RequestID)
	if !ok {
		h.send(c, protocol.ErrorFrame(protocol.ErrRequestNotFound))
		return
	}
	if req.ToUserID != userID {
		h.send(c, protocol.ErrorFrame(protocol.ErrRequestUnauthorized))
		return
	}
	h.reg.RemoveRequest(req.ID)

	requester, ok := h.reg.PeerByUser(req.FromUserID)
	if !ok {
		h.send(c, protocol.ErrorFrame(protocol.ErrPeerNotFound))
		return
	}
	requesterHandle, haveRequester := h.reg.Socket(requester.SocketID)

	if !payload.Accepted {
		h.logger.Info("connection request rejected", "request", req.ID, "by", userID)
		if haveRequester {
			if err := requesterHandle.SendFrame(protocol.MustFrame(protocol.EventConnectionRejected, protocol.ConnectionRejectedPayload{
				RequestID: req.ID,
				TargetID:  userID,
			})); err != nil {
				h.logger.Debug("rejection notice failed", "request", req.ID, "error", err)
			}
		}
		return
	}

	responder, ok := h.reg.PeerByUser(userID)
	if !ok {
		h.send(c, protocol.ErrorFrame(protocol.ErrPeerNotFound))
		return
	}

	sess, err := h.reg.CreateForPair(req.FromUserID, userID)
	if err != nil {
		h.send(c, protocol.ErrorFrame(protocol.ErrPeerNotFound))
		return
	}
	h.logger.Info("session created", "session", sess.ID, "host", req.FromUserID, "guest", userID)

	if haveRequester {
		if err := requesterHandle.SendFrame(protocol.MustFrame(protocol.EventConnectionAccepted, protocol.ConnectionAcceptedPayload{
			RequestID: req.ID,
			SessionID: sess.ID,
			Peer:      protocol.PeerRef{ID: userID, Profile: responder.Profile},
		})); err != nil {
			h.logger.Debug("acceptance notice failed", "session", sess.ID, "error", err)
		}
	}
	h.send(c, protocol.MustFrame(protocol.EventSessionCreated, protocol.SessionCreatedPayload{
		SessionID: sess.ID,
		Peer:      protocol.PeerRef{ID: requester.UserID, Profile: requester.Profile},
	}))
}

// handleSendMessage routes an opaque payload to the other participants of a
// session. Delivery is fire-and-forget: no receipts, no retries.
func (h *Hub) handleSendMessage(_ context.Context, c *Conn, data json.RawMessage) {
	var payload protocol.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		h.send(c, protocol.ErrorFrame(protocol.ErrValidation))
		return
	}

	userID := c.UserID()
	if _, ok := h.reg.Session(payload.SessionID); !ok {
		h.send(c, protocol.ErrorFrame(protocol.ErrSessionNotFound))
		return
	}
	if !h.reg.IsParticipant(payload.SessionID, userID) {
		h.send(c, protocol.ErrorFrame(protocol.ErrNotParticipant))
		return
	}

	recipients, _ := h.reg.SessionRecipients(payload.SessionID, userID)
	frame := protocol.MustFrame(protocol.EventMessageReceived, protocol.MessageReceivedPayload{
		SessionID:     payload.SessionID,
		From:          userID,
		Content:       payload.Content,
		Type:          payload.Type,
		CorrelationID: payload.CorrelationID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	for _, recipient := range recipients {
		if err := recipient.SendFrame(frame); err != nil {
			h.logger.Debug("message delivery failed", "session", payload.SessionID, "recipient", recipient.UserID(), "error", err)
		}
	}

	h.reg.UpdateSessionActivity(payload.SessionID, userID)
	h.reg.UpdateActivity(userID)
}
