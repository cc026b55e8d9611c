package protocol

import "encoding/json"

// PeerProfile is the client-visible profile of a registered peer.
type PeerProfile struct {
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	IDE         string `json:"ide"`
}

// PeerRef identifies a peer together with its profile.
type PeerRef struct {
	ID      string      `json:"id"`
	Profile PeerProfile `json:"profile"`
}

// PeerSummary is one entry of a PEERS_LIST payload.
type PeerSummary struct {
	ID             string      `json:"id"`
	Profile        PeerProfile `json:"profile"`
	Status         string      `json:"status"`
	ConnectionMode string      `json:"connectionMode"`
}

// AuthPayload is the client payload of AUTH.
type AuthPayload struct {
	Token string `json:"token"`
}

// AuthSuccessPayload is the server payload of AUTH_SUCCESS.
type AuthSuccessPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// RegisterPayload is the client payload of PEER_REGISTER. All fields are
// optional; missing values fall back to identity-derived defaults.
type RegisterPayload struct {
	DisplayName string `json:"displayName,omitempty"`
	IDE         string `json:"ide,omitempty"`
	Role        string `json:"role,omitempty"`
}

// PeerRegisteredPayload is the server payload of PEER_REGISTERED.
type PeerRegisteredPayload struct {
	ID      string      `json:"id"`
	Profile PeerProfile `json:"profile"`
	Status  string      `json:"status"`
}

// PeerStatusUpdatePayload is the server payload of PEER_STATUS_UPDATE.
// ConnectionMode is computed per recipient at emission time.
type PeerStatusUpdatePayload struct {
	ID             string       `json:"id"`
	Profile        *PeerProfile `json:"profile,omitempty"`
	Status         string       `json:"status"`
	ConnectionMode string       `json:"connectionMode"`
}

// PeersListPayload is the server payload of PEERS_LIST.
type PeersListPayload struct {
	Peers []PeerSummary `json:"peers"`
}

// ConnectionRequestPayload is the client payload of CONNECTION_REQUEST.
type ConnectionRequestPayload struct {
	TargetID string `json:"targetId"`
}

// ConnectionRequestReceivedPayload is the server payload of
// CONNECTION_REQUEST_RECEIVED, forwarded to the target peer.
type ConnectionRequestReceivedPayload struct {
	RequestID string  `json:"requestId"`
	From      PeerRef `json:"from"`
}

// ConnectionResponsePayload is the client payload of CONNECTION_RESPONSE.
type ConnectionResponsePayload struct {
	RequestID string `json:"requestId"`
	Accepted  bool   `json:"accepted"`
}

// ConnectionAcceptedPayload is the server payload of CONNECTION_ACCEPTED,
// delivered to the original requester.
type ConnectionAcceptedPayload struct {
	RequestID string  `json:"requestId"`
	SessionID string  `json:"sessionId"`
	Peer      PeerRef `json:"peer"`
}

// ConnectionRejectedPayload is the server payload of CONNECTION_REJECTED.
type ConnectionRejectedPayload struct {
	RequestID string `json:"requestId"`
	TargetID  string `json:"targetId"`
}

// SessionCreatedPayload is the server payload of SESSION_CREATED,
// delivered to the accepting peer.
type SessionCreatedPayload struct {
	SessionID string  `json:"sessionId"`
	Peer      PeerRef `json:"peer"`
}

// SendMessagePayload is the client payload of SEND_MESSAGE. Content is
// opaque to the server.
type SendMessagePayload struct {
	SessionID     string          `json:"sessionId"`
	Content       json.RawMessage `json:"content"`
	Type          string          `json:"type,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

// MessageReceivedPayload is the server payload of MESSAGE_RECEIVED.
// Timestamp is the server wall clock in ISO-8601.
type MessageReceivedPayload struct {
	SessionID     string          `json:"sessionId"`
	From          string          `json:"from"`
	Content       json.RawMessage `json:"content"`
	Type          string          `json:"type,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Timestamp     string          `json:"timestamp"`
}

// PongPayload is the server payload of PONG. Timestamp is monotonic
// milliseconds since server start.
type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}
