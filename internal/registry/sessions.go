package registry

import (
	"errors"

	"github.com/pairsphere/paird/internal/protocol"
)

// ErrPeerGone is returned when a session operation references a user who is
// no longer in the peer registry.
var ErrPeerGone = errors.New("registry: peer not found")

// CreateForPair creates an active session between host (the original
// requester) and guest, and writes the session id into both peers' session
// lists atomically.
func (r *Registry) CreateForPair(hostUserID, guestUserID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	host, ok := r.peers[hostUserID]
	if !ok {
		return Session{}, ErrPeerGone
	}
	guest, ok := r.peers[guestUserID]
	if !ok {
		return Session{}, ErrPeerGone
	}

	now := r.now()
	session := &Session{
		ID:         protocol.NewSessionID(),
		HostUserID: hostUserID,
		Participants: map[string]Participant{
			hostUserID: {
				UserID:       hostUserID,
				SocketID:     host.SocketID,
				Role:         protocol.RoleHost,
				JoinedAt:     now,
				LastActivity: now,
			},
			guestUserID: {
				UserID:       guestUserID,
				SocketID:     guest.SocketID,
				Role:         protocol.RoleGuest,
				JoinedAt:     now,
				LastActivity: now,
			},
		},
		Status:       protocol.SessionActive,
		CreatedAt:    now,
		LastActivity: now,
	}

	r.sessions[session.ID] = session
	r.addSessionLocked(hostUserID, session.ID)
	r.addSessionLocked(guestUserID, session.ID)
	return cloneSession(session), nil
}

// Session returns a copy of the session record.
func (r *Registry) Session(sessionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return cloneSession(session), true
}

// IsParticipant reports whether userID takes part in the session.
func (r *Registry) IsParticipant(sessionID, userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	_, ok = session.Participants[userID]
	return ok
}

// Participants returns the session's participants.
func (r *Registry) Participants(sessionID string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]Participant, 0, len(session.Participants))
	for _, p := range session.Participants {
		out = append(out, p)
	}
	return out
}

// UpdateSessionActivity stamps activity on the session and the given
// participant.
func (r *Registry) UpdateSessionActivity(sessionID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	now := r.now()
	session.LastActivity = now
	if p, ok := session.Participants[userID]; ok {
		p.LastActivity = now
		session.Participants[userID] = p
	}
	return true
}

// SessionRecipients returns the live handles of every participant other
// than excludeUser. The second result is false when the session does not
// exist.
func (r *Registry) SessionRecipients(sessionID, excludeUser string) ([]Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	var out []Handle
	for userID, p := range session.Participants {
		if userID == excludeUser {
			continue
		}
		if handle, ok := r.sockets[p.SocketID]; ok {
			out = append(out, handle)
		}
	}
	return out, true
}

// RemoveParticipant removes userID from the session. The session is ended
// (removed, with the id dropped from the remaining peers' session lists)
// when the departing user is the host or fewer than two participants
// remain. It reports whether the session ended and whether it existed.
func (r *Registry) RemoveParticipant(sessionID, userID string) (ended, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeParticipantLocked(sessionID, userID)
}

func (r *Registry) removeParticipantLocked(sessionID, userID string) (ended, ok bool) {
	session, found := r.sessions[sessionID]
	if !found {
		return false, false
	}

	delete(session.Participants, userID)
	r.removeSessionFromPeerLocked(userID, sessionID)

	if userID == session.HostUserID || len(session.Participants) < 2 {
		r.endSessionLocked(sessionID)
		return true, true
	}
	return false, true
}

// End marks the session ended, clears it from the remaining peers' session
// lists and deletes the record.
func (r *Registry) End(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endSessionLocked(sessionID)
}

func (r *Registry) endSessionLocked(sessionID string) bool {
	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	session.Status = protocol.SessionEnded
	for userID := range session.Participants {
		r.removeSessionFromPeerLocked(userID, sessionID)
	}
	delete(r.sessions, sessionID)
	return true
}

// HandleUserDisconnect removes the departing user from every session they
// take part in and purges any pending request the user is an endpoint of.
// It returns the ids of the sessions that ended.
func (r *Registry) HandleUserDisconnect(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handleUserDisconnectLocked(userID)
}

func (r *Registry) handleUserDisconnectLocked(userID string) []string {
	var ended []string

	if peer, ok := r.peers[userID]; ok {
		for _, sessionID := range append([]string(nil), peer.SessionIDs...) {
			if sessionEnded, ok := r.removeParticipantLocked(sessionID, userID); ok && sessionEnded {
				ended = append(ended, sessionID)
			}
		}
	}

	r.purgeRequestsLocked(userID)
	return ended
}
