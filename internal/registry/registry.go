// Package registry holds the process-local state of the rendezvous
// service: registered peers, active pairwise sessions, short-lived
// connection requests, and live socket handles. All four tables sit behind
// one coarse mutex so that cross-table mutations (supersession, session
// creation, disconnect) are never observable half-applied.
package registry

import (
	"sync"
	"time"

	"github.com/pairsphere/paird/internal/protocol"
)

// DefaultRequestTTL is how long a pending connection request stays
// answerable.
const DefaultRequestTTL = 30 * time.Second

// Handle is a live connection as seen by the registry. Implemented by the
// hub's connection type; the registry never imports the hub.
type Handle interface {
	SocketID() string
	UserID() string
	SendFrame(f protocol.Frame) error
	Terminate(code int, reason string)
	IsAlive() bool
}

// Peer is a registered user present in the peer registry.
type Peer struct {
	UserID       string
	SocketID     string
	Profile      protocol.PeerProfile
	Status       string
	Mode         string // connection mode advertised in discovery
	SessionIDs   []string
	IPHash       string
	NetworkID    string // empty = no network
	ConnectedAt  time.Time
	LastActivity time.Time
}

// Participant is one side of a session.
type Participant struct {
	UserID       string
	SocketID     string
	Role         string
	JoinedAt     time.Time
	LastActivity time.Time
}

// Session is an active two-party routing channel.
type Session struct {
	ID           string
	HostUserID   string
	Participants map[string]Participant
	Status       string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Request is a pending connection request.
type Request struct {
	ID         string
	FromUserID string
	ToUserID   string
	CreatedAt  time.Time
}

// PeerHandle pairs a peer snapshot with its live handle, as captured for a
// broadcast.
type PeerHandle struct {
	Peer   Peer
	Handle Handle
}

// Registry is the shared state store. The zero value is not usable; use New.
type Registry struct {
	mu         sync.RWMutex
	requestTTL time.Duration
	now        func() time.Time

	peers     map[string]*Peer  // user id → peer
	peerOrder []string          // user ids in insertion order
	bySocket  map[string]string // socket id → user id

	sessions map[string]*Session // session id → session
	requests map[string]*Request // request id → request

	sockets map[string]Handle // socket id → handle, installed at AUTH
	byUser  map[string]string // user id → socket id, bound at AUTH
}

// New creates an empty Registry. A zero requestTTL falls back to
// DefaultRequestTTL.
func New(requestTTL time.Duration) *Registry {
	if requestTTL == 0 {
		requestTTL = DefaultRequestTTL
	}
	return &Registry{
		requestTTL: requestTTL,
		now:        time.Now,
		peers:      make(map[string]*Peer),
		bySocket:   make(map[string]string),
		sessions:   make(map[string]*Session),
		requests:   make(map[string]*Request),
		sockets:    make(map[string]Handle),
		byUser:     make(map[string]string),
	}
}

// Counts returns the current table sizes: peers, sessions, pending
// requests, sockets.
func (r *Registry) Counts() (peers, sessions, requests, sockets int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers), len(r.sessions), len(r.requests), len(r.sockets)
}

// clonePeer returns a defensive copy of a peer record.
func clonePeer(p *Peer) Peer {
	cp := *p
	cp.SessionIDs = append([]string(nil), p.SessionIDs...)
	return cp
}

// cloneSession returns a defensive copy of a session record.
func cloneSession(s *Session) Session {
	cp := *s
	cp.Participants = make(map[string]Participant, len(s.Participants))
	for k, v := range s.Participants {
		cp.Participants[k] = v
	}
	return cp
}
