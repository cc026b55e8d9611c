package registry

import "github.com/pairsphere/paird/internal/protocol"

// CreateRequest records a pending connection request from one user to
// another and returns it.
func (r *Registry) CreateRequest(fromUserID, toUserID string) Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	req := &Request{
		ID:         protocol.NewRequestID(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		CreatedAt:  r.now(),
	}
	r.requests[req.ID] = req
	return *req
}

// Request returns the pending request with the given id. An entry older
// than the TTL is evicted and reported as absent, so expired requests are
// never observable.
func (r *Registry) Request(requestID string) (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[requestID]
	if !ok {
		return Request{}, false
	}
	if r.now().Sub(req.CreatedAt) > r.requestTTL {
		delete(r.requests, requestID)
		return Request{}, false
	}
	return *req, true
}

// RemoveRequest deletes a pending request.
func (r *Registry) RemoveRequest(requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[requestID]; !ok {
		return false
	}
	delete(r.requests, requestID)
	return true
}

// SweepRequests evicts every expired request and returns how many were
// dropped. Called periodically by the hub.
func (r *Registry) SweepRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.requestTTL)
	dropped := 0
	for id, req := range r.requests {
		if req.CreatedAt.Before(cutoff) {
			delete(r.requests, id)
			dropped++
		}
	}
	return dropped
}

// purgeRequestsLocked drops every request that has userID as an endpoint.
// Must hold mu.
func (r *Registry) purgeRequestsLocked(userID string) {
	for id, req := range r.requests {
		if req.FromUserID == userID || req.ToUserID == userID {
			delete(r.requests, id)
		}
	}
}
