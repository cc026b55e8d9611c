package registry

// InstallSocket registers a live handle and binds it to its user in one
// atomic step. Called from the AUTH path after any prior connection for
// the user has been evicted.
func (r *Registry) InstallSocket(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sockets[h.SocketID()] = h
	if userID := h.UserID(); userID != "" {
		r.byUser[userID] = h.SocketID()
	}
}

// Socket returns the live handle for socketID.
func (r *Registry) Socket(socketID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sockets[socketID]
	return h, ok
}

// UserSocket returns the live handle bound to userID at AUTH time.
func (r *Registry) UserSocket(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	socketID, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	h, ok := r.sockets[socketID]
	return h, ok
}

// EvictUser removes every trace of the user's current connection — ended
// sessions, purged requests, peer record, socket registration, and user
// binding — and returns the displaced handle so the caller can notify and
// close it outside the lock. The cleanup is a single critical section, so
// no reader ever sees a half-removed connection.
func (r *Registry) EvictUser(userID string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictUserLocked(userID)
}

func (r *Registry) evictUserLocked(userID string) (Handle, bool) {
	socketID, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	prior := r.sockets[socketID]

	r.handleUserDisconnectLocked(userID)
	r.unregisterPeerLocked(userID)
	delete(r.sockets, socketID)
	delete(r.byUser, userID)

	return prior, prior != nil
}

// InstallUserSocket evicts any prior connection for the handle's user and
// installs the new one in a single critical section, so concurrent AUTH
// attempts for the same user serialize: the later one always displaces the
// earlier. The displaced handle, if any, is returned for the supersession
// notice.
func (r *Registry) InstallUserSocket(h Handle) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior, had := r.evictUserLocked(h.UserID())
	r.sockets[h.SocketID()] = h
	r.byUser[h.UserID()] = h.SocketID()
	return prior, had
}

// Disconnect runs the full disconnect cleanup for a closed connection:
// sessions, requests, peer record, socket registration, user binding.
// It returns the removed peer record (for the offline broadcast) when the
// connection had registered one.
func (r *Registry) Disconnect(userID, socketID string) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed Peer
	var hadPeer bool
	// User-level cleanup only if this socket is still the user's current
	// one; a superseded connection's late disconnect must not tear down
	// its successor's state.
	if userID != "" && r.byUser[userID] == socketID {
		r.handleUserDisconnectLocked(userID)
		removed, hadPeer = r.unregisterPeerLocked(userID)
		delete(r.byUser, userID)
	}
	delete(r.sockets, socketID)
	return removed, hadPeer
}
