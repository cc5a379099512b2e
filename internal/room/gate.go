package room

import (
	"time"
)

// Decision is the outcome of an access request
type Decision int

const (
	// DecisionApproved means the requester may join immediately (empty room)
	DecisionApproved Decision = iota
	// DecisionPending means the room owner was asked to decide
	DecisionPending
	// DecisionDuplicate means an identical request is already pending
	DecisionDuplicate
)

// Rejection reasons
const (
	// DefaultRejectReason is used when the owner rejects without a reason
	DefaultRejectReason = "Room owner declined your request."
	// TimeoutRejectReason is used when a pending request expires undecided
	TimeoutRejectReason = "Access request timed out."
)

// Gate decides who may join an occupied room. The first joiner of an empty
// room becomes owner with no handshake; everyone after that waits for the
// owner's approval. Undecided requests expire server-side after the TTL so
// long-lived rooms cannot accumulate stale requests.
type Gate struct {
	store    *Store
	ttl      time.Duration
	onExpire func(roomID, requesterID string)
}

// NewGate creates a gate backed by the given store
func NewGate(store *Store, ttl time.Duration) *Gate {
	return &Gate{store: store, ttl: ttl}
}

// OnExpire registers the callback invoked when a pending request times out.
// The callback runs outside the store lock.
func (g *Gate) OnExpire(fn func(roomID, requesterID string)) {
	g.onExpire = fn
}

// Request handles a join attempt. For an empty (or nonexistent) room the
// requester is approved immediately with no pending-request side effects.
// Otherwise a pending request is recorded, at most one per (room, requester),
// and the returned owner must be notified.
func (g *Gate) Request(roomID, connID, username string) (Decision, Member) {
	s := g.store
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok || len(r.members) == 0 {
		return DecisionApproved, Member{}
	}

	reqs, ok := s.pending[roomID]
	if !ok {
		reqs = make(map[string]*PendingRequest)
		s.pending[roomID] = reqs
	}
	if _, exists := reqs[connID]; exists {
		return DecisionDuplicate, Member{}
	}

	req := &PendingRequest{
		RequesterID: connID,
		Username:    username,
		RequestedAt: time.Now(),
	}
	req.timer = time.AfterFunc(g.ttl, func() {
		g.expire(roomID, connID)
	})
	reqs[connID] = req

	return DecisionPending, r.members[0]
}

// Approve resolves a pending request in the requester's favor. Approving a
// requester with no pending request is a no-op, not an error.
func (g *Gate) Approve(roomID, requesterID string) bool {
	return g.resolve(roomID, requesterID)
}

// Reject resolves a pending request against the requester and returns the
// reason to deliver, substituting the default when none is given. Rejecting
// a requester with no pending request is a no-op.
func (g *Gate) Reject(roomID, requesterID, reason string) (string, bool) {
	if reason == "" {
		reason = DefaultRejectReason
	}
	return reason, g.resolve(roomID, requesterID)
}

// Pending returns a snapshot of the room's pending requests
func (g *Gate) Pending(roomID string) []PendingRequest {
	s := g.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingSnapshotLocked(roomID, "")
}

func (g *Gate) resolve(roomID, requesterID string) bool {
	s := g.store
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs, ok := s.pending[roomID]
	if !ok {
		return false
	}
	req, ok := reqs[requesterID]
	if !ok {
		return false
	}

	if req.timer != nil {
		req.timer.Stop()
	}
	delete(reqs, requesterID)
	if len(reqs) == 0 {
		delete(s.pending, roomID)
	}
	return true
}

func (g *Gate) expire(roomID, requesterID string) {
	if !g.resolve(roomID, requesterID) {
		return
	}
	if g.onExpire != nil {
		g.onExpire(roomID, requesterID)
	}
}
