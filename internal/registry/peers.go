package registry

import "github.com/pairsphere/paird/internal/protocol"

// Register installs a peer record for userID, replacing any prior record.
// If a prior record exists its session list is preserved into the new one
// and its socket index entry is dropped; the supersession path normally
// removes the prior record first, so this is a defensive fallback.
func (r *Registry) Register(userID string, profile protocol.PeerProfile, socketID, ipHash, networkID string) Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	peer := &Peer{
		UserID:       userID,
		SocketID:     socketID,
		Profile:      profile,
		Status:       protocol.StatusOnline,
		Mode:         protocol.ModeRemote,
		IPHash:       ipHash,
		NetworkID:    networkID,
		ConnectedAt:  now,
		LastActivity: now,
	}

	if prior, ok := r.peers[userID]; ok {
		peer.SessionIDs = prior.SessionIDs
		delete(r.bySocket, prior.SocketID)
	} else {
		r.peerOrder = append(r.peerOrder, userID)
	}

	r.peers[userID] = peer
	r.bySocket[socketID] = userID
	return clonePeer(peer)
}

// UnregisterByUser removes the peer record for userID.
func (r *Registry) UnregisterByUser(userID string) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregisterPeerLocked(userID)
}

// UnregisterBySocket removes the peer record owning socketID.
func (r *Registry) UnregisterBySocket(socketID string) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.bySocket[socketID]
	if !ok {
		return Peer{}, false
	}
	return r.unregisterPeerLocked(userID)
}

// unregisterPeerLocked removes a peer and its indexes. Must hold mu.
func (r *Registry) unregisterPeerLocked(userID string) (Peer, bool) {
	peer, ok := r.peers[userID]
	if !ok {
		return Peer{}, false
	}
	delete(r.peers, userID)
	delete(r.bySocket, peer.SocketID)
	for i, id := range r.peerOrder {
		if id == userID {
			r.peerOrder = append(r.peerOrder[:i], r.peerOrder[i+1:]...)
			break
		}
	}
	return clonePeer(peer), true
}

// PeerByUser returns a copy of the peer record for userID.
func (r *Registry) PeerByUser(userID string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peer, ok := r.peers[userID]
	if !ok {
		return Peer{}, false
	}
	return clonePeer(peer), true
}

// PeerBySocket returns a copy of the peer record owning socketID.
func (r *Registry) PeerBySocket(socketID string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.bySocket[socketID]
	if !ok {
		return Peer{}, false
	}
	peer, ok := r.peers[userID]
	if !ok {
		return Peer{}, false
	}
	return clonePeer(peer), true
}

// UpdateStatus sets the peer's externally visible status.
func (r *Registry) UpdateStatus(userID, status string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	peer, ok := r.peers[userID]
	if !ok {
		return false
	}
	peer.Status = status
	peer.LastActivity = r.now()
	return true
}

// UpdateActivity stamps the peer's last activity time.
func (r *Registry) UpdateActivity(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	peer, ok := r.peers[userID]
	if !ok {
		return false
	}
	peer.LastActivity = r.now()
	return true
}

// AddSession inserts sessionID into the peer's session list. Idempotent.
func (r *Registry) AddSession(userID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addSessionLocked(userID, sessionID)
}

func (r *Registry) addSessionLocked(userID, sessionID string) bool {
	peer, ok := r.peers[userID]
	if !ok {
		return false
	}
	for _, id := range peer.SessionIDs {
		if id == sessionID {
			return true
		}
	}
	peer.SessionIDs = append(peer.SessionIDs, sessionID)
	return true
}

// RemoveSession drops sessionID from the peer's session list.
func (r *Registry) RemoveSession(userID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeSessionFromPeerLocked(userID, sessionID)
}

func (r *Registry) removeSessionFromPeerLocked(userID, sessionID string) bool {
	peer, ok := r.peers[userID]
	if !ok {
		return false
	}
	for i, id := range peer.SessionIDs {
		if id == sessionID {
			peer.SessionIDs = append(peer.SessionIDs[:i], peer.SessionIDs[i+1:]...)
			return true
		}
	}
	return false
}

// OnlineInNetwork returns copies of the online peers in networkID, in
// insertion order. A peer with no network is never discoverable, so an
// empty networkID always yields an empty result.
func (r *Registry) OnlineInNetwork(networkID string) []Peer {
	if networkID == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Peer
	for _, userID := range r.peerOrder {
		peer := r.peers[userID]
		if peer.Status == protocol.StatusOnline && peer.NetworkID == networkID {
			out = append(out, clonePeer(peer))
		}
	}
	return out
}

// SameLAN reports whether both users carry the same non-empty IP hash.
func (r *Registry) SameLAN(userA, userB string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, okA := r.peers[userA]
	b, okB := r.peers[userB]
	if !okA || !okB {
		return false
	}
	return sameLAN(a.IPHash, b.IPHash)
}

func sameLAN(hashA, hashB string) bool {
	return hashA != "" && hashA == hashB
}

// OnlinePeerHandles snapshots every online peer with a live socket, in
// insertion order, optionally excluding one user. Broadcasts derive their
// recipient sets from this snapshot and write outside the lock.
func (r *Registry) OnlinePeerHandles(excludeUser string) []PeerHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []PeerHandle
	for _, userID := range r.peerOrder {
		if userID == excludeUser {
			continue
		}
		peer := r.peers[userID]
		if peer.Status != protocol.StatusOnline {
			continue
		}
		handle, ok := r.sockets[peer.SocketID]
		if !ok {
			continue
		}
		out = append(out, PeerHandle{Peer: clonePeer(peer), Handle: handle})
	}
	return out
}
