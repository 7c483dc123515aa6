package domain

import (
	"fmt"
	"sort"
)

// ConflictKind distinguishes the two inconsistencies a scan can find.
type ConflictKind int

const (
	// ConflictDuplicate means the same ID was observed on more than one task.
	ConflictDuplicate ConflictKind = iota
	// ConflictDrift means an observed root ID is ahead of the cached counter.
	ConflictDrift
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictDuplicate:
		return "duplicate"
	case ConflictDrift:
		return "drift"
	default:
		return "unknown"
	}
}

// Conflict describes a mismatch between the counter cache and the IDs
// observed on remote tasks, or between two observed IDs.
type Conflict struct {
	Kind   ConflictKind
	ID     string
	Detail string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s (%s)", c.Kind, c.ID, c.Detail)
}

// MaxRootObserved returns the highest root number among observed IDs
// that are root-only (exactly one numeric segment) for the code, or 0.
func MaxRootObserved(code string, observed []string) int {
	max := 0
	for _, id := range observed {
		seq, ok := ParseID(id, code)
		if !ok || len(seq) != 1 {
			continue
		}
		if seq[0] > max {
			max = seq[0]
		}
	}
	return max
}

// DetectConflicts checks observed IDs against the cached counters.
//
// A duplicate is any ID seen more than once in the observed set (one
// conflict per duplicated ID). Drift is a root-only observed ID whose
// number exceeds the cached LastRoot; with no cache entry for the code
// there is nothing to drift from, so only duplicates are reported.
func (c *CacheRoot) DetectConflicts(code string, observed []string) []Conflict {
	var conflicts []Conflict

	seen := make(map[string]int)
	for _, id := range observed {
		seen[id]++
	}
	dups := make([]string, 0)
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	for _, id := range dups {
		conflicts = append(conflicts, Conflict{
			Kind:   ConflictDuplicate,
			ID:     id,
			Detail: fmt.Sprintf("observed %d times", seen[id]),
		})
	}

	pc, ok := c.Projects[code]
	if !ok {
		return conflicts
	}
	drifted := make([]string, 0)
	driftNums := make(map[string]int)
	for id := range seen {
		seq, parsed := ParseID(id, code)
		if !parsed || len(seq) != 1 {
			continue
		}
		if seq[0] > pc.LastRoot {
			drifted = append(drifted, id)
			driftNums[id] = seq[0]
		}
	}
	sort.Strings(drifted)
	for _, id := range drifted {
		conflicts = append(conflicts, Conflict{
			Kind:   ConflictDrift,
			ID:     id,
			Detail: fmt.Sprintf("root %d is ahead of cached last_root %d", driftNums[id], pc.LastRoot),
		})
	}

	return conflicts
}
