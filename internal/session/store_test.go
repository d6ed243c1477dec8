package session

import (
	"context"
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)

	session, err := store.Create(Identity{UserID: 1, Name: "Dana", Role: "designer"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" {
		t.Error("session.ID is empty")
	}

	got, ok := store.Get(session.ID)
	if !ok {
		t.Fatal("Get() returned false, want true")
	}
	if got.Identity.UserID != 1 {
		t.Errorf("UserID = %d, want 1", got.Identity.UserID)
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	store := NewStore(time.Hour)
	seen := map[string]bool{}
	for range 100 {
		s, err := store.Create(Identity{UserID: 1})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate session id %q", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestStore_GetExpired(t *testing.T) {
	store := NewStore(time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	session, _ := store.Create(Identity{UserID: 1})
	now = now.Add(2 * time.Minute)

	if _, ok := store.Get(session.ID); ok {
		t.Error("Get() returned true for expired session")
	}

	store.cleanup()
	if store.Len() != 0 {
		t.Errorf("Len() = %d after cleanup, want 0", store.Len())
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(time.Hour)

	session, _ := store.Create(Identity{UserID: 1})
	store.Delete(session.ID)

	if _, ok := store.Get(session.ID); ok {
		t.Error("Get() returned true after Delete()")
	}

	// Deleting again is harmless.
	store.Delete(session.ID)
}

func TestStore_DeleteUser(t *testing.T) {
	store := NewStore(time.Hour)

	a, _ := store.Create(Identity{UserID: 1})
	b, _ := store.Create(Identity{UserID: 1})
	c, _ := store.Create(Identity{UserID: 2})

	store.DeleteUser(1)

	for _, id := range []string{a.ID, b.ID} {
		if _, ok := store.Get(id); ok {
			t.Errorf("session %s of user 1 should be gone", id)
		}
	}
	if _, ok := store.Get(c.ID); !ok {
		t.Error("session of user 2 should remain")
	}
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	store := NewStore(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = store.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
