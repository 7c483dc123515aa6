package application

import (
	"fmt"

	"asanaid/internal/domain"
)

// Allocator hands out task IDs against a counter cache. Allocations
// commit into the cache immediately, so the next sibling or recursive
// call always sees the advanced counter. Allocation is the collision
// avoidance mechanism and must stay strictly sequential; only the
// remote application of renames may run concurrently.
type Allocator struct {
	cache *domain.CacheRoot
}

// NewAllocator creates an allocator over the given cache.
func NewAllocator(cache *domain.CacheRoot) *Allocator {
	return &Allocator{cache: cache}
}

// Extract returns the canonical ID at the start of a task name, if any.
func (a *Allocator) Extract(name, code string) (string, bool) {
	return domain.ExtractID(name, code)
}

// HasID reports whether a task name already carries an ID for the code.
func (a *Allocator) HasID(name, code string) bool {
	return domain.HasID(name, code)
}

// AllocateRoot assigns and commits the next root ID for a code.
func (a *Allocator) AllocateRoot(code string) string {
	seq := []int{a.cache.NextRoot(code)}
	a.cache.RecordAssignment(code, seq)
	return domain.FormatID(code, seq)
}

// AllocateChild assigns and commits the next child ID under a parent
// ID such as "PRJ-5" or "PRJ-5-2".
func (a *Allocator) AllocateChild(parentID, code string) (string, error) {
	parent, ok := domain.ParseID(parentID, code)
	if !ok {
		return "", fmt.Errorf("invalid parent ID %q for code %s", parentID, code)
	}
	seq := append(append([]int{}, parent...), a.cache.NextChild(code, parent))
	a.cache.RecordAssignment(code, seq)
	return domain.FormatID(code, seq), nil
}

// Reconcile checks observed remote IDs against the cache and brings the
// cache up to date with remote reality.
//
// With conflicts and ignoreConflicts false it returns a
// ReconciliationError carrying the full conflict list and leaves the
// cache untouched. With ignoreConflicts true it advances LastRoot to
// the observed maximum (never backwards) and raises each subtask
// counter to the highest observed child number. Numbers skipped by
// deleted tasks stay skipped; the counters track a safe upper bound,
// not the exact assigned set. Without conflicts it still advances
// LastRoot opportunistically so a first scan primes an empty cache.
func (a *Allocator) Reconcile(code string, observed []string, ignoreConflicts bool) ([]domain.Conflict, error) {
	conflicts := a.cache.DetectConflicts(code, observed)
	if len(conflicts) > 0 && !ignoreConflicts {
		return conflicts, &ReconciliationError{Code: code, Conflicts: conflicts}
	}

	pc := a.cache.Counters(code)
	if max := domain.MaxRootObserved(code, observed); max > pc.LastRoot {
		pc.LastRoot = max
	}

	if len(conflicts) > 0 {
		// Conflicts were explicitly ignored: absorb observed child
		// numbers as well so future allocations clear them.
		for _, id := range observed {
			seq, ok := domain.ParseID(id, code)
			if !ok || len(seq) < 2 {
				continue
			}
			parent := domain.NumericPath(seq[:len(seq)-1])
			if n := seq[len(seq)-1]; n > pc.Subtasks[parent] {
				pc.Subtasks[parent] = n
			}
		}
	}

	return conflicts, nil
}
