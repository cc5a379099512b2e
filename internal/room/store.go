package room

import (
	"errors"
	"fmt"
	"sync"
)

// Store errors
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrUnknownField    = errors.New("unknown shared-state field")
	ErrInvalidLanguage = errors.New("invalid language")
)

// Store owns every room: its member list, its shared editable state and the
// pending access requests targeting it. All mutation goes through the Store
// so a single mutex keeps each room's edits applied in arrival order.
//
// Pending requests are keyed separately from rooms because they must outlive
// a room that empties out while a request is still undecided; the gate's TTL
// bounds their lifetime.
type Store struct {
	mu      sync.Mutex
	rooms   map[string]*roomState
	pending map[string]map[string]*PendingRequest // roomID -> requesterID -> request
}

// NewStore creates an empty room store
func NewStore() *Store {
	return &Store{
		rooms:   make(map[string]*roomState),
		pending: make(map[string]map[string]*PendingRequest),
	}
}

// Join adds the member to the room, creating the room with default shared
// state if it did not exist. A joiner silently evicts any stale entry with
// the same display name, then any entry with the same connection id; the
// display-name eviction is deliberate so a user reconnecting after a dead
// connection does not get stuck behind their own ghost.
//
// It returns a snapshot of the shared state, the refreshed member list, any
// pending access requests the joiner inherits by becoming owner of a
// previously empty room, and the connection ids of evicted stale entries so
// the transport can drop their room subscriptions.
func (s *Store) Join(roomID, connID, username string) (SharedState, []Member, []PendingRequest, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		r = &roomState{state: defaultSharedState()}
		s.rooms[roomID] = r
	}

	wasEmpty := len(r.members) == 0

	var evicted []string
	filtered := r.members[:0]
	for _, m := range r.members {
		if m.Username == username || m.ID == connID {
			if m.ID != connID {
				evicted = append(evicted, m.ID)
			}
			continue
		}
		filtered = append(filtered, m)
	}
	r.members = append(filtered, Member{ID: connID, Username: username})

	var replay []PendingRequest
	if wasEmpty {
		replay = s.pendingSnapshotLocked(roomID, connID)
	}

	return r.state, copyMembers(r.members), replay, evicted
}

// Departure describes the effect of removing a connection from one room
type Departure struct {
	RoomID    string
	Removed   bool
	Destroyed bool
	Members   []Member
	// NewOwner is set when the departure transferred ownership to a
	// remaining member; Replayed carries the pending requests that member
	// should be re-announced.
	NewOwner *Member
	Replayed []PendingRequest
}

// Leave removes the connection from the room. When the last member leaves,
// the room and its shared state are destroyed.
func (s *Store) Leave(roomID, connID string) Departure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaveLocked(roomID, connID)
}

// LeaveAll removes the connection from every room it belongs to and cancels
// any access requests it had pending. Invoked on connection loss.
func (s *Store) LeaveAll(connID string) []Departure {
	s.mu.Lock()
	defer s.mu.Unlock()

	var departures []Departure
	for roomID, r := range s.rooms {
		if !hasMember(r.members, connID) {
			continue
		}
		departures = append(departures, s.leaveLocked(roomID, connID))
	}

	for roomID, reqs := range s.pending {
		if req, ok := reqs[connID]; ok {
			if req.timer != nil {
				req.timer.Stop()
			}
			delete(reqs, connID)
			if len(reqs) == 0 {
				delete(s.pending, roomID)
			}
		}
	}

	return departures
}

func (s *Store) leaveLocked(roomID, connID string) Departure {
	dep := Departure{RoomID: roomID}

	r, ok := s.rooms[roomID]
	if !ok {
		return dep
	}

	ownerBefore := ""
	if len(r.members) > 0 {
		ownerBefore = r.members[0].ID
	}

	filtered := r.members[:0]
	for _, m := range r.members {
		if m.ID == connID {
			dep.Removed = true
			continue
		}
		filtered = append(filtered, m)
	}
	r.members = filtered

	if !dep.Removed {
		dep.Members = copyMembers(r.members)
		return dep
	}

	if len(r.members) == 0 {
		delete(s.rooms, roomID)
		dep.Destroyed = true
		return dep
	}

	dep.Members = copyMembers(r.members)
	if ownerBefore == connID {
		owner := r.members[0]
		dep.NewOwner = &owner
		dep.Replayed = s.pendingSnapshotLocked(roomID, owner.ID)
	}
	return dep
}

// ApplyEdit overwrites one shared-state field unconditionally. Last writer
// wins: there is no merge and no version check, matching the low-latency
// typing model the clients are built around.
func (s *Store) ApplyEdit(roomID string, field Field, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	switch field {
	case FieldCode:
		str, err := stringValue(field, value)
		if err != nil {
			return err
		}
		r.state.Code = str
	case FieldLanguage:
		str, err := stringValue(field, value)
		if err != nil {
			return err
		}
		if !SupportedLanguage(str) {
			return fmt.Errorf("%w: %s", ErrInvalidLanguage, str)
		}
		r.state.Language = str
	case FieldPendingInput:
		str, err := stringValue(field, value)
		if err != nil {
			return err
		}
		r.state.PendingInput = str
	case FieldConsoleVisible:
		flag, err := boolValue(field, value)
		if err != nil {
			return err
		}
		r.state.IsConsoleVisible = flag
	case FieldOutputOpen:
		flag, err := boolValue(field, value)
		if err != nil {
			return err
		}
		r.state.IsOutputOpen = flag
	case FieldInputOpen:
		flag, err := boolValue(field, value)
		if err != nil {
			return err
		}
		r.state.IsInputOpen = flag
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	return nil
}

// Snapshot returns a copy of the room's shared state
func (s *Store) Snapshot(roomID string) (SharedState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return SharedState{}, false
	}
	return r.state, true
}

// Members returns a copy of the room's member list in join order
func (s *Store) Members(roomID string) []Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	return copyMembers(r.members)
}

// Owner returns the room's current owner (the member at index 0)
func (s *Store) Owner(roomID string) (Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok || len(r.members) == 0 {
		return Member{}, false
	}
	return r.members[0], true
}

// RoomCount returns the number of live rooms
func (s *Store) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *Store) pendingSnapshotLocked(roomID, excludeConnID string) []PendingRequest {
	reqs, ok := s.pending[roomID]
	if !ok {
		return nil
	}
	out := make([]PendingRequest, 0, len(reqs))
	for _, req := range reqs {
		if req.RequesterID == excludeConnID {
			continue
		}
		out = append(out, *req)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringValue(field Field, value interface{}) (string, error) {
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %s requires a string value, got %T", field, value)
	}
	return str, nil
}

func boolValue(field Field, value interface{}) (bool, error) {
	flag, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("field %s requires a bool value, got %T", field, value)
	}
	return flag, nil
}

func copyMembers(members []Member) []Member {
	out := make([]Member, len(members))
	copy(out, members)
	return out
}

func hasMember(members []Member, connID string) bool {
	for _, m := range members {
		if m.ID == connID {
			return true
		}
	}
	return false
}
