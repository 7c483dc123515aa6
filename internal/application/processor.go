package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"asanaid/internal/domain"
	"asanaid/internal/ports"
)

// applyConcurrency caps in-flight rename requests during the apply phase.
const applyConcurrency = 15

// ProcessResult describes what one project run did.
type ProcessResult struct {
	Code        string
	Assignments []domain.Assignment
	Skipped     int
	Errors      []string
}

// TotalProcessed is the number of tasks visited: assigned plus skipped.
func (r *ProcessResult) TotalProcessed() int {
	return len(r.Assignments) + r.Skipped
}

// Processor walks a project's task tree and assigns IDs to unlabeled
// tasks. Processing is two-phase: a strictly sequential collect pass
// that allocates IDs and commits counters, then a bounded concurrent
// apply pass that issues the renames. Numbering therefore never depends
// on remote write latency or partial apply failure.
type Processor struct {
	service ports.TaskService
	alloc   *Allocator
	logger  *slog.Logger
}

// NewProcessor creates a processor over a task service and allocator.
func NewProcessor(service ports.TaskService, alloc *Allocator, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{service: service, alloc: alloc, logger: logger}
}

// frame is one pending traversal step: a task and the ID of its parent
// (empty for roots).
type frame struct {
	task   domain.Task
	anchor string
}

// ProcessProject assigns IDs to every unlabeled task in a project.
// With dryRun the collect pass runs in full (against whatever cache the
// allocator wraps) but no renames are issued.
func (p *Processor) ProcessProject(ctx context.Context, projectGID, code string, dryRun bool) (*ProcessResult, error) {
	tasks, err := p.service.ListProjectTasks(ctx, projectGID)
	if err != nil {
		return nil, fmt.Errorf("list tasks for %s: %w", code, err)
	}
	p.logger.Info("processing project", "code", code, "tasks", len(tasks))

	result := &ProcessResult{Code: code}

	// Collect phase. An explicit worklist instead of recursion keeps
	// arbitrarily deep trees off the call stack; children are pushed in
	// reverse so they pop in ascending creation order, depth-first.
	var stack []frame
	for i := len(tasks) - 1; i >= 0; i-- {
		if tasks[i].ParentGID != "" {
			continue // reached through its parent
		}
		stack = append(stack, frame{task: tasks[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		anchor, ok := p.alloc.Extract(f.task.Name, code)
		if ok {
			result.Skipped++
			p.logger.Debug("task already labeled", "id", anchor, "name", f.task.Name)
		} else {
			var id string
			if f.anchor == "" {
				id = p.alloc.AllocateRoot(code)
			} else {
				id, err = p.alloc.AllocateChild(f.anchor, code)
				if err != nil {
					return nil, err
				}
			}
			result.Assignments = append(result.Assignments, domain.Assignment{
				TaskGID:    f.task.GID,
				OldName:    f.task.Name,
				NewName:    id + " " + f.task.Name,
				AssignedID: id,
			})
			p.logger.Info("assigning", "id", id, "name", f.task.Name, "dry_run", dryRun)
			anchor = id
		}

		if f.task.NumSubtasks > 0 {
			subs, err := p.service.ListSubtasks(ctx, f.task.GID)
			if err != nil {
				return nil, fmt.Errorf("list subtasks of %s: %w", f.task.GID, err)
			}
			for i := len(subs) - 1; i >= 0; i-- {
				stack = append(stack, frame{task: subs[i], anchor: anchor})
			}
		}
	}

	if dryRun || len(result.Assignments) == 0 {
		return result, nil
	}

	// Apply phase. Counters are already committed; a failed rename is
	// reported per task and the gap is tolerated, since renumbering on
	// retry could collide.
	p.logger.Info("applying renames", "code", code, "count", len(result.Assignments), "max_concurrent", applyConcurrency)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(applyConcurrency)
	for _, as := range result.Assignments {
		g.Go(func() error {
			if err := p.service.RenameTask(ctx, as.TaskGID, as.NewName); err != nil {
				p.logger.Error("rename failed", "task", as.TaskGID, "id", as.AssignedID, "error", err)
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("rename %s to %s: %v", as.TaskGID, as.AssignedID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return result, nil
}
