package application

import (
	"errors"
	"fmt"
	"strings"

	"asanaid/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrProjectNotFound = errors.New("project not found in configuration")
)

// ReconciliationError is returned when a scan finds conflicts between
// the counter cache and the IDs observed remotely, and the caller did
// not ask to ignore them. The run aborts before any allocation.
type ReconciliationError struct {
	Code      string
	Conflicts []domain.Conflict
}

func (e *ReconciliationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "conflicts detected in project %s:\n", e.Code)
	for _, c := range e.Conflicts {
		fmt.Fprintf(&sb, "  - %s\n", c)
	}
	sb.WriteString("use --ignore-conflicts to advance the cache and continue")
	return sb.String()
}
