package hub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pairsphere/paird/internal/directory"
	"github.com/pairsphere/paird/internal/protocol"
)

// handleAuth verifies the client's token against the directory, resolves its
// invite network, displaces any prior connection for the same user and
// promotes the connection to AUTHED.
func (h *Hub) handleAuth(ctx context.Context, c *Conn, data json.RawMessage) {
	if c.State() != StateConnected {
		h.send(c, protocol.ErrorFrameMsg(protocol.ErrValidation, "already authenticated"))
		return
	}

	var payload protocol.AuthPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			h.authFail(c, protocol.ErrTokenMissing)
			return
		}
	}
	if strings.TrimSpace(payload.Token) == "" {
		h.authFail(c, protocol.ErrTokenMissing)
		return
	}

	identity, err := h.verifier.VerifyToken(ctx, payload.Token)
	if err != nil {
		code := protocol.ErrTokenInvalid
		switch {
		case errors.Is(err, directory.ErrTokenMissing):
			code = protocol.ErrTokenMissing
		case errors.Is(err, directory.ErrTokenExpired):
			code = protocol.ErrTokenExpired
		}
		h.logger.Info("authentication rejected", "socket", c.id, "code", code, "error", err)
		h.authFail(c, code)
		return
	}

	networkID, err := h.resolver.ActiveNetwork(ctx, identity.UserID)
	if err != nil {
		// Membership resolution is best-effort: the peer authenticates but
		// joins without a network and stays undiscoverable.
		h.logger.Warn("network resolution failed", "socket", c.id, "user", identity.UserID, "error", err)
		networkID = ""
	}

	if !c.advanceAuthed(identity, networkID) {
		// Closed while the verification was in flight; nothing to install.
		return
	}
	c.cancelAuthTimer()

	// Single live connection per user: the newest AUTH wins, the displaced
	// connection is told why and closed before the success frame goes out.
	if prior, had := h.reg.InstallUserSocket(c); had {
		h.logger.Info("connection superseded", "user", identity.UserID, "old_socket", prior.SocketID(), "new_socket", c.id)
		if err := prior.SendFrame(protocol.ErrorFrame(protocol.ErrAlreadyConnected)); err != nil {
			h.logger.Debug("supersession notice failed", "socket", prior.SocketID(), "error", err)
		}
		prior.Terminate(protocol.CloseSuperseded, "superseded by a newer connection")
	}

	h.logger.Info("connection authenticated", "socket", c.id, "user", identity.UserID, "network", networkID)
	h.send(c, protocol.MustFrame(protocol.EventAuthSuccess, protocol.AuthSuccessPayload{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
	}))
}

// authFail sends AUTH_FAILED and closes the connection with code 4001.
func (h *Hub) authFail(c *Conn, code string) {
	h.send(c, protocol.AuthFailedFrame(code))
	c.Terminate(protocol.CloseAuthFailure, protocol.ErrorMessage(code))
}
