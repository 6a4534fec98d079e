package registry

import (
	"testing"
	"time"

	"geopulse-relay-svc/src/internal/models"
)

func newSession(socketID, userID, name string) models.Session {
	return models.Session{
		SocketID: socketID,
		UserID:   userID,
		Name:     name,
		LastSeen: time.Now().UTC(),
	}
}

func TestPutGetRemove(t *testing.T) {
	reg := New()

	reg.Put("sock-1", newSession("sock-1", "u1", "Alice"))

	session, ok := reg.Get("sock-1")
	if !ok {
		t.Fatal("expected session for sock-1")
	}
	if session.UserID != "u1" || session.Name != "Alice" {
		t.Errorf("unexpected session %+v", session)
	}

	reg.Remove("sock-1")
	if _, ok := reg.Get("sock-1"); ok {
		t.Error("expected session to be removed")
	}
}

func TestGetUnknownSocket(t *testing.T) {
	reg := New()
	if _, ok := reg.Get("nope"); ok {
		t.Error("expected no session for unknown socket")
	}
}

func TestPutOverwritesSameSocket(t *testing.T) {
	reg := New()
	reg.Put("sock-1", newSession("sock-1", "u1", "Alice"))
	reg.Put("sock-1", newSession("sock-1", "u2", "Bob"))

	if reg.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", reg.Len())
	}
	session, _ := reg.Get("sock-1")
	if session.UserID != "u2" {
		t.Errorf("expected overwrite to win, got %s", session.UserID)
	}
}

// Two connections may claim the same userId; the registry keys strictly by
// socket and performs no dedup.
func TestDuplicateUserIDsAllowed(t *testing.T) {
	reg := New()
	reg.Put("sock-1", newSession("sock-1", "u1", "Alice"))
	reg.Put("sock-2", newSession("sock-2", "u1", "Alice"))

	if reg.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Len())
	}

	seen := 0
	for _, session := range reg.Values() {
		if session.UserID == "u1" {
			seen++
		}
	}
	if seen != 2 {
		t.Errorf("expected u1 twice in values, got %d", seen)
	}
}

func TestRemoveLeavesOthersUntouched(t *testing.T) {
	reg := New()
	reg.Put("sock-1", newSession("sock-1", "u1", "Alice"))
	reg.Put("sock-2", newSession("sock-2", "u2", "Bob"))

	reg.Remove("sock-1")

	if reg.Len() != 1 {
		t.Fatalf("expected 1 session left, got %d", reg.Len())
	}
	session, ok := reg.Get("sock-2")
	if !ok || session.UserID != "u2" {
		t.Errorf("sock-2 should be unchanged, got %+v ok=%v", session, ok)
	}
}

func TestValuesIsSnapshot(t *testing.T) {
	reg := New()
	reg.Put("sock-1", newSession("sock-1", "u1", "Alice"))

	values := reg.Values()
	reg.Remove("sock-1")

	if len(values) != 1 {
		t.Errorf("snapshot should be unaffected by later mutation, got %d", len(values))
	}
}
