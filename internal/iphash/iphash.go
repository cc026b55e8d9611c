// Package iphash produces salted, fixed-length hashes of client IP
// addresses. Raw addresses are hashed at the connection boundary and never
// stored; equal hashes are the only signal the service keeps about two
// peers sharing a network location.
package iphash

import (
	"crypto/rand"
	"encoding/hex"
	"net"

	"golang.org/x/crypto/blake2b"
)

// Hasher hashes IP addresses with a process-wide salt.
type Hasher struct {
	key []byte
}

// New creates a Hasher with the given salt. An empty salt is replaced by a
// random per-process value, which keeps hashes comparable within one
// process but meaningless across restarts.
func New(salt string) *Hasher {
	var key [blake2b.Size256]byte
	if salt == "" {
		// rand.Read never fails on supported platforms.
		_, _ = rand.Read(key[:])
	} else {
		key = blake2b.Sum256([]byte(salt))
	}
	return &Hasher{key: key[:]}
}

// Hash returns the salted hash of the IP part of remoteAddr as 64 lowercase
// hex characters. An empty or unparseable address yields an empty hash,
// which never compares equal to any other peer.
func (h *Hasher) Hash(remoteAddr string) string {
	ip := hostPart(remoteAddr)
	if ip == "" {
		return ""
	}

	mac, err := blake2b.New256(h.key)
	if err != nil {
		return ""
	}
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))
}

// hostPart strips an optional port from an address.
func hostPart(addr string) string {
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
