package application

import (
	"errors"
	"reflect"
	"testing"

	"asanaid/internal/domain"
)

func TestAllocateRootSequence(t *testing.T) {
	cache := domain.NewCacheRoot()
	alloc := NewAllocator(cache)

	want := []string{"PRJ-1", "PRJ-2", "PRJ-3"}
	for i, w := range want {
		if got := alloc.AllocateRoot("PRJ"); got != w {
			t.Fatalf("allocation %d = %q, want %q", i+1, got, w)
		}
	}
	if got := cache.Counters("PRJ").LastRoot; got != 3 {
		t.Errorf("LastRoot = %d, want 3", got)
	}
}

func TestAllocateChild(t *testing.T) {
	cache := domain.NewCacheRoot()
	alloc := NewAllocator(cache)

	tests := []struct {
		parentID string
		want     string
	}{
		{parentID: "PRJ-5", want: "PRJ-5-1"},
		{parentID: "PRJ-5", want: "PRJ-5-2"},
		{parentID: "PRJ-7", want: "PRJ-7-1"},
		{parentID: "PRJ-5-2", want: "PRJ-5-2-1"},
	}
	for _, tt := range tests {
		got, err := alloc.AllocateChild(tt.parentID, "PRJ")
		if err != nil {
			t.Fatalf("AllocateChild(%q): %v", tt.parentID, err)
		}
		if got != tt.want {
			t.Errorf("AllocateChild(%q) = %q, want %q", tt.parentID, got, tt.want)
		}
	}

	if _, err := alloc.AllocateChild("not-an-id", "PRJ"); err == nil {
		t.Error("expected error for invalid parent ID")
	}
}

func TestReconcileConflictFails(t *testing.T) {
	cache := domain.NewCacheRoot()
	cache.Counters("PRJ").LastRoot = 5
	alloc := NewAllocator(cache)

	_, err := alloc.Reconcile("PRJ", []string{"PRJ-3", "PRJ-10"}, false)
	var rerr *ReconciliationError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ReconciliationError, got %v", err)
	}
	if rerr.Code != "PRJ" || len(rerr.Conflicts) != 1 {
		t.Errorf("error = %+v, want one conflict for PRJ", rerr)
	}
	if got := cache.Counters("PRJ").LastRoot; got != 5 {
		t.Errorf("LastRoot changed to %d on failed reconcile, want untouched 5", got)
	}
}

func TestReconcileIgnoreAdvancesCounters(t *testing.T) {
	cache := domain.NewCacheRoot()
	cache.Counters("PRJ").LastRoot = 5
	alloc := NewAllocator(cache)

	observed := []string{"PRJ-3", "PRJ-10", "PRJ-10-4", "PRJ-2-1"}
	conflicts, err := alloc.Reconcile("PRJ", observed, true)
	if err != nil {
		t.Fatalf("Reconcile with ignore: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(conflicts))
	}

	pc := cache.Counters("PRJ")
	if pc.LastRoot != 10 {
		t.Errorf("LastRoot = %d, want 10", pc.LastRoot)
	}
	if pc.Subtasks["10"] != 4 {
		t.Errorf("Subtasks[\"10\"] = %d, want 4", pc.Subtasks["10"])
	}
	if pc.Subtasks["2"] != 1 {
		t.Errorf("Subtasks[\"2\"] = %d, want 1", pc.Subtasks["2"])
	}
}

func TestReconcileNeverMovesBackwards(t *testing.T) {
	cache := domain.NewCacheRoot()
	cache.Counters("PRJ").LastRoot = 20
	cache.Counters("PRJ").Subtasks["10"] = 9
	alloc := NewAllocator(cache)

	// Duplicate forces the ignore path; the observed numbers are all
	// behind the cache and must not regress it.
	observed := []string{"PRJ-3", "PRJ-3", "PRJ-10-4"}
	if _, err := alloc.Reconcile("PRJ", observed, true); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	pc := cache.Counters("PRJ")
	if pc.LastRoot != 20 {
		t.Errorf("LastRoot regressed to %d, want 20", pc.LastRoot)
	}
	if pc.Subtasks["10"] != 9 {
		t.Errorf("Subtasks[\"10\"] regressed to %d, want 9", pc.Subtasks["10"])
	}
}

func TestReconcileNoConflictsPrimesEmptyCache(t *testing.T) {
	cache := domain.NewCacheRoot()
	alloc := NewAllocator(cache)

	conflicts, err := alloc.Reconcile("PRJ", []string{"PRJ-3", "PRJ-7"}, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("got %d conflicts on first scan, want 0", len(conflicts))
	}
	if got := cache.Counters("PRJ").LastRoot; got != 7 {
		t.Errorf("LastRoot = %d, want 7", got)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	cache := domain.NewCacheRoot()
	cache.Counters("PRJ").LastRoot = 5
	alloc := NewAllocator(cache)

	observed := []string{"PRJ-10", "PRJ-10-4"}
	if _, err := alloc.Reconcile("PRJ", observed, true); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	snapshot := cache.Clone()

	if _, err := alloc.Reconcile("PRJ", observed, true); err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if !reflect.DeepEqual(cache.Projects["PRJ"], snapshot.Projects["PRJ"]) {
		t.Errorf("second reconcile changed the cache: %+v vs %+v",
			cache.Projects["PRJ"], snapshot.Projects["PRJ"])
	}
}
