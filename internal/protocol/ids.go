package protocol

import (
	"crypto/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Identifier prefixes. userId is opaque and comes from the identity
// provider; everything else is minted here.
const (
	sessionIDPrefix = "ses_"
	socketIDPrefix  = "sock_"
	requestIDPrefix = "req_"
)

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns a fresh session identifier of the form ses_<uuid-v4>.
func NewSessionID() string {
	return sessionIDPrefix + uuid.NewString()
}

// NewSocketID returns a fresh socket identifier of the form sock_<uuid-v4>.
func NewSocketID() string {
	return socketIDPrefix + uuid.NewString()
}

// NewRequestID returns a fresh connection-request identifier of the form
// req_<base36 unix-ms>_<random suffix>.
func NewRequestID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return requestIDPrefix + ts + "_" + randomSuffix(8)
}

// randomSuffix returns n random base36 characters.
func randomSuffix(n int) string {
	buf := make([]byte, n)
	// rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = base36Digits[int(b)%len(base36Digits)]
	}
	return string(buf)
}
