package registry

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRegistry_AddAndGet(t *testing.T) {
	r := New()

	if err := r.Add("conn_1", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	stats, ok := r.Get("conn_1")
	if !ok {
		t.Fatal("Get returned false for registered id")
	}
	if stats.ID != "conn_1" {
		t.Errorf("ID = %q, want %q", stats.ID, "conn_1")
	}
	if stats.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0", stats.MessageCount)
	}
	if stats.ConnectedAt.IsZero() {
		t.Error("ConnectedAt is zero")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_AddDuplicate(t *testing.T) {
	r := New()

	if err := r.Add("conn_1", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := r.Add("conn_1", nil)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("second Add error = %v, want ErrDuplicateID", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := New()

	// Removing an unknown id must not panic or error.
	r.Remove("never_added")

	if err := r.Add("conn_1", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	r.Remove("conn_1")
	r.Remove("conn_1")

	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if _, ok := r.Get("conn_1"); ok {
		t.Error("Get returned true after Remove")
	}
}

func TestRegistry_TouchCounts(t *testing.T) {
	r := New()

	if err := r.Add("conn_1", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	var stats Stats
	var ok bool
	for i := 0; i < 3; i++ {
		stats, ok = r.Touch("conn_1")
		if !ok {
			t.Fatalf("Touch %d returned false", i+1)
		}
	}

	if stats.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", stats.MessageCount)
	}
	if stats.LastActivity.Before(stats.ConnectedAt) {
		t.Error("LastActivity is before ConnectedAt")
	}
}

func TestRegistry_TouchAbsent(t *testing.T) {
	r := New()

	if _, ok := r.Touch("gone"); ok {
		t.Error("Touch returned true for absent id")
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := New()

	if err := r.Add("conn_a", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add("conn_b", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	r.Touch("conn_b")

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}

	counts := make(map[string]int64, len(snap))
	for _, s := range snap {
		counts[s.ID] = s.MessageCount
	}
	if counts["conn_a"] != 0 {
		t.Errorf("conn_a count = %d, want 0", counts["conn_a"])
	}
	if counts["conn_b"] != 1 {
		t.Errorf("conn_b count = %d, want 1", counts["conn_b"])
	}

	r.Remove("conn_a")
	snap = r.Snapshot()
	if len(snap) != 1 || snap[0].ID != "conn_b" {
		t.Errorf("Snapshot after Remove = %+v, want only conn_b", snap)
	}
}

func TestRegistry_ConcurrentTouch(t *testing.T) {
	r := New()

	const perConn = 500
	ids := []string{"conn_x", "conn_y", "conn_z"}
	for _, id := range ids {
		if err := r.Add(id, nil); err != nil {
			t.Fatalf("Add %s failed: %v", id, err)
		}
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perConn; i++ {
				r.Touch(id)
			}
		}(id)
	}
	wg.Wait()

	// Counts must never be attributed to the wrong connection.
	for _, id := range ids {
		stats, ok := r.Get(id)
		if !ok {
			t.Fatalf("Get %s returned false", id)
		}
		if stats.MessageCount != perConn {
			t.Errorf("%s count = %d, want %d", id, stats.MessageCount, perConn)
		}
	}
}

func TestNewConnID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewConnID()
		if !strings.HasPrefix(id, "conn_") {
			t.Fatalf("id %q missing conn_ prefix", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestRegistry_ConnectedAtImmutable(t *testing.T) {
	r := New()

	if err := r.Add("conn_1", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	before, _ := r.Get("conn_1")

	time.Sleep(5 * time.Millisecond)
	r.Touch("conn_1")

	after, _ := r.Get("conn_1")
	if !after.ConnectedAt.Equal(before.ConnectedAt) {
		t.Errorf("ConnectedAt changed: %v -> %v", before.ConnectedAt, after.ConnectedAt)
	}
	if !after.LastActivity.After(before.LastActivity) {
		t.Errorf("LastActivity did not advance: %v -> %v", before.LastActivity, after.LastActivity)
	}
}
