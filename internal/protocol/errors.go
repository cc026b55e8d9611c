package protocol

// Stable wire error codes, sent in the code field of ERROR and AUTH_FAILED
// payloads. Clients match on these; they never change meaning.
const (
	ErrTokenMissing        = "ERR_1001"
	ErrTokenInvalid        = "ERR_1002"
	ErrTokenExpired        = "ERR_1003"
	ErrPeerNotFound        = "ERR_2001"
	ErrAlreadyConnected    = "ERR_2005"
	ErrMustRegister        = "ERR_2006"
	ErrNotSameNetwork      = "ERR_2007"
	ErrSessionNotFound     = "ERR_3001"
	ErrNotParticipant      = "ERR_3008"
	ErrTargetOffline       = "ERR_4003"
	ErrInvalidMessage      = "ERR_5003"
	ErrNotAuthenticated    = "ERR_5005"
	ErrRequestNotFound     = "ERR_6001"
	ErrRequestUnauthorized = "ERR_6004"
	ErrValidation          = "ERR_9003"
)

// Application-level websocket close codes. Clients must not auto-reconnect
// after either of these.
const (
	CloseAuthFailure = 4001 // authentication timeout or failure
	CloseSuperseded  = 4002 // a newer connection for the same user took over
)

// errorMessages holds the default human-readable message per code.
var errorMessages = map[string]string{
	ErrTokenMissing:        "authentication token missing",
	ErrTokenInvalid:        "authentication token invalid",
	ErrTokenExpired:        "authentication token expired",
	ErrPeerNotFound:        "peer not found",
	ErrAlreadyConnected:    "peer already connected",
	ErrMustRegister:        "peer must register first",
	ErrNotSameNetwork:      "peer not in same network",
	ErrSessionNotFound:     "session not found",
	ErrNotParticipant:      "not a participant of this session",
	ErrTargetOffline:       "target peer is offline",
	ErrInvalidMessage:      "invalid message",
	ErrNotAuthenticated:    "socket not authenticated",
	ErrRequestNotFound:     "connection request not found",
	ErrRequestUnauthorized: "connection request not addressed to this peer",
	ErrValidation:          "validation failed",
}

// ErrorMessage returns the default message for a wire error code.
func ErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "unknown error"
}

// ErrorPayload is the payload of ERROR and AUTH_FAILED frames.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorFrame builds an ERROR frame carrying the default message for code.
func ErrorFrame(code string) Frame {
	return MustFrame(EventError, ErrorPayload{Code: code, Message: ErrorMessage(code)})
}

// ErrorFrameMsg builds an ERROR frame with an explicit message.
func ErrorFrameMsg(code, message string) Frame {
	return MustFrame(EventError, ErrorPayload{Code: code, Message: message})
}

// AuthFailedFrame builds an AUTH_FAILED frame for the given code.
func AuthFailedFrame(code string) Frame {
	return MustFrame(EventAuthFailed, ErrorPayload{Code: code, Message: ErrorMessage(code)})
}
