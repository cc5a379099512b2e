package room

import (
	"errors"
	"testing"
)

func TestJoinCreatesRoomWithDefaults(t *testing.T) {
	s := NewStore()

	state, members, replay, evicted := s.Join("abc123", "conn-1", "alice")

	if state.Language != DefaultLanguage {
		t.Errorf("Expected default language %q, got %q", DefaultLanguage, state.Language)
	}
	if state.Code != "" {
		t.Errorf("Expected empty code, got %q", state.Code)
	}
	if len(members) != 1 || members[0].Username != "alice" {
		t.Errorf("Expected single member alice, got %v", members)
	}
	if replay != nil {
		t.Errorf("Expected no replayed requests, got %v", replay)
	}
	if evicted != nil {
		t.Errorf("Expected no evictions, got %v", evicted)
	}
	if s.RoomCount() != 1 {
		t.Errorf("Expected 1 room, got %d", s.RoomCount())
	}
}

func TestJoinDeduplicatesByConnectionAndName(t *testing.T) {
	s := NewStore()

	s.Join("r", "conn-1", "alice")
	s.Join("r", "conn-2", "bob")

	tests := []struct {
		name     string
		connID   string
		username string
	}{
		{"same connection rejoins", "conn-1", "alice"},
		{"same name from new connection", "conn-3", "alice"},
		{"same connection new name", "conn-3", "carol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, members, _, _ := s.Join("r", tt.connID, tt.username)

			seenIDs := make(map[string]bool)
			seenNames := make(map[string]bool)
			for _, m := range members {
				if seenIDs[m.ID] {
					t.Errorf("Duplicate connection id %s in %v", m.ID, members)
				}
				if seenNames[m.Username] {
					t.Errorf("Duplicate username %s in %v", m.Username, members)
				}
				seenIDs[m.ID] = true
				seenNames[m.Username] = true
			}
		})
	}
}

func TestJoinEvictsStaleEntryBeforeInsert(t *testing.T) {
	s := NewStore()

	s.Join("r", "conn-1", "alice")
	s.Join("r", "conn-2", "bob")

	// alice reconnects with a fresh connection; her old entry must be gone
	// and she moves to the end of the list, transferring ownership to bob.
	_, members, _, evicted := s.Join("r", "conn-3", "alice")

	if len(members) != 2 {
		t.Fatalf("Expected 2 members, got %v", members)
	}
	if members[0].Username != "bob" {
		t.Errorf("Expected bob to become owner, got %v", members[0])
	}
	if members[1].ID != "conn-3" {
		t.Errorf("Expected alice's new connection last, got %v", members[1])
	}
	if len(evicted) != 1 || evicted[0] != "conn-1" {
		t.Errorf("Expected alice's old connection reported evicted, got %v", evicted)
	}
}

func TestJoinDoesNotReportRejoiningConnectionAsEvicted(t *testing.T) {
	s := NewStore()
	s.Join("r", "conn-1", "alice")

	// Same connection re-sends join; its own prior entry is refreshed in
	// place, not an eviction the transport should act on.
	_, members, _, evicted := s.Join("r", "conn-1", "alice")

	if len(members) != 1 {
		t.Fatalf("Expected single member, got %v", members)
	}
	if evicted != nil {
		t.Errorf("Expected no evictions for a rejoin, got %v", evicted)
	}
}

func TestLeaveDestroysEmptyRoom(t *testing.T) {
	s := NewStore()

	s.Join("r", "conn-1", "alice")
	s.ApplyEdit("r", FieldCode, "print(1)")

	dep := s.Leave("r", "conn-1")

	if !dep.Removed || !dep.Destroyed {
		t.Fatalf("Expected removed+destroyed, got %+v", dep)
	}
	if s.RoomCount() != 0 {
		t.Errorf("Expected no rooms, got %d", s.RoomCount())
	}

	// A fresh join must see defaults again, not the old state.
	state, _, _, _ := s.Join("r", "conn-2", "bob")
	if state.Code != "" {
		t.Errorf("Expected recreated room to have empty code, got %q", state.Code)
	}
}

func TestLeaveTransfersOwnership(t *testing.T) {
	s := NewStore()

	s.Join("r", "conn-1", "alice")
	s.Join("r", "conn-2", "bob")

	dep := s.Leave("r", "conn-1")

	if dep.Destroyed {
		t.Fatal("Room should survive with one member left")
	}
	if dep.NewOwner == nil || dep.NewOwner.Username != "bob" {
		t.Errorf("Expected bob as new owner, got %+v", dep.NewOwner)
	}

	owner, ok := s.Owner("r")
	if !ok || owner.Username != "bob" {
		t.Errorf("Expected bob as owner, got %v (%v)", owner, ok)
	}
}

func TestLeaveUnknownConnection(t *testing.T) {
	s := NewStore()
	s.Join("r", "conn-1", "alice")

	dep := s.Leave("r", "conn-99")
	if dep.Removed {
		t.Error("Leave of unknown connection should not report removal")
	}

	dep = s.Leave("missing", "conn-1")
	if dep.Removed || dep.Destroyed {
		t.Errorf("Leave of unknown room should be a no-op, got %+v", dep)
	}
}

func TestLeaveAllCoversEveryRoom(t *testing.T) {
	s := NewStore()

	s.Join("r1", "conn-1", "alice")
	s.Join("r2", "conn-1", "alice")
	s.Join("r2", "conn-2", "bob")

	deps := s.LeaveAll("conn-1")

	if len(deps) != 2 {
		t.Fatalf("Expected 2 departures, got %d", len(deps))
	}
	if s.RoomCount() != 1 {
		t.Errorf("Expected only r2 to survive, got %d rooms", s.RoomCount())
	}
	if members := s.Members("r2"); len(members) != 1 || members[0].Username != "bob" {
		t.Errorf("Expected bob alone in r2, got %v", members)
	}
}

func TestApplyEditLastWriterWins(t *testing.T) {
	s := NewStore()
	s.Join("r", "conn-1", "alice")

	if err := s.ApplyEdit("r", FieldCode, "first"); err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}
	if err := s.ApplyEdit("r", FieldCode, "second"); err != nil {
		t.Fatalf("ApplyEdit failed: %v", err)
	}

	state, _ := s.Snapshot("r")
	if state.Code != "second" {
		t.Errorf("Expected last write to win, got %q", state.Code)
	}
}

func TestApplyEditAllFields(t *testing.T) {
	s := NewStore()
	s.Join("r", "conn-1", "alice")

	edits := []struct {
		field Field
		value interface{}
	}{
		{FieldCode, "print(1)"},
		{FieldLanguage, "python"},
		{FieldConsoleVisible, true},
		{FieldOutputOpen, true},
		{FieldInputOpen, true},
		{FieldPendingInput, "42"},
	}
	for _, e := range edits {
		if err := s.ApplyEdit("r", e.field, e.value); err != nil {
			t.Fatalf("ApplyEdit(%s) failed: %v", e.field, err)
		}
	}

	state, ok := s.Snapshot("r")
	if !ok {
		t.Fatal("Snapshot missing")
	}
	if state.Code != "print(1)" || state.Language != "python" || state.PendingInput != "42" {
		t.Errorf("Unexpected state %+v", state)
	}
	if !state.IsConsoleVisible || !state.IsOutputOpen || !state.IsInputOpen {
		t.Errorf("Expected all flags set, got %+v", state)
	}
}

func TestApplyEditRejectsBadInput(t *testing.T) {
	s := NewStore()
	s.Join("r", "conn-1", "alice")

	tests := []struct {
		name    string
		roomID  string
		field   Field
		value   interface{}
		wantErr error
	}{
		{"unknown room", "missing", FieldCode, "x", ErrRoomNotFound},
		{"unknown field", "r", Field("theme"), "dark", ErrUnknownField},
		{"invalid language", "r", FieldLanguage, "cobol", ErrInvalidLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ApplyEdit(tt.roomID, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := s.ApplyEdit("r", FieldCode, 42); err == nil {
		t.Error("Expected type error for non-string code")
	}
	if err := s.ApplyEdit("r", FieldConsoleVisible, "yes"); err == nil {
		t.Error("Expected type error for non-bool flag")
	}
}

func TestSnapshotReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Join("r", "conn-1", "alice")
	s.ApplyEdit("r", FieldCode, "original")

	state, _ := s.Snapshot("r")
	state.Code = "mutated"

	fresh, _ := s.Snapshot("r")
	if fresh.Code != "original" {
		t.Errorf("Snapshot mutation leaked into store: %q", fresh.Code)
	}
}
