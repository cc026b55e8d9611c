package protocol

// Client-to-server events.
const (
	EventAuth               = "AUTH"
	EventPeerRegister       = "PEER_REGISTER"
	EventDiscoverPeers      = "DISCOVER_PEERS"
	EventConnectionRequest  = "CONNECTION_REQUEST"
	EventConnectionResponse = "CONNECTION_RESPONSE"
	EventSendMessage        = "SEND_MESSAGE"
	EventPing               = "PING"
)

// Server-to-client events.
const (
	EventAuthSuccess               = "AUTH_SUCCESS"
	EventAuthFailed                = "AUTH_FAILED"
	EventPeerRegistered            = "PEER_REGISTERED"
	EventPeerStatusUpdate          = "PEER_STATUS_UPDATE"
	EventPeersList                 = "PEERS_LIST"
	EventConnectionRequestReceived = "CONNECTION_REQUEST_RECEIVED"
	EventConnectionAccepted        = "CONNECTION_ACCEPTED"
	EventConnectionRejected        = "CONNECTION_REJECTED"
	EventSessionCreated            = "SESSION_CREATED"
	EventMessageReceived           = "MESSAGE_RECEIVED"
	EventPong                      = "PONG"
	EventError                     = "ERROR"
)

// Peer status values.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

// Session status values. Sessions are created directly in active; the
// request/accept handshake covers the pending phase.
const (
	SessionPending = "pending"
	SessionActive  = "active"
	SessionPaused  = "paused"
	SessionEnded   = "ended"
)

// Role tags carried on peer profiles and session participants.
const (
	RoleHost     = "host"
	RoleGuest    = "guest"
	RoleObserver = "observer"
)

// Connection modes reported to clients. LAN is derived from equal salted
// IP hashes and is purely informational.
const (
	ModeLAN    = "LAN"
	ModeRemote = "REMOTE"
)

// DefaultIDE is the ide tag assumed when a client registers without one.
const DefaultIDE = "other"
