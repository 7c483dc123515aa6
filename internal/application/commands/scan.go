package commands

import (
	"context"
	"fmt"
	"log/slog"

	"asanaid/internal/application"
	"asanaid/internal/config"
	"asanaid/internal/domain"
	"asanaid/internal/ports"
)

// ScanResult summarizes the reconciliation of one project.
type ScanResult struct {
	Code         string
	TotalTasks   int
	TasksWithIDs int
	Conflicts    []domain.Conflict
}

// ScanCommand reconciles the counter cache with the IDs observed on
// remote tasks, for one configured project or all of them.
type ScanCommand struct {
	Service         ports.TaskService
	Store           ports.CacheStore
	Config          *config.Config
	Project         string // optional code filter; empty scans all
	IgnoreConflicts bool
	Logger          *slog.Logger
}

// Validate checks that the requested project is configured.
func (c *ScanCommand) Validate() error {
	_, err := selectProjects(c.Config, c.Project)
	return err
}

// Execute runs the scan. On success the reconciled cache is persisted.
// On a reconciliation conflict the persisted cache is left untouched.
func (c *ScanCommand) Execute(ctx context.Context) ([]ScanResult, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	projects, err := selectProjects(c.Config, c.Project)
	if err != nil {
		return nil, err
	}

	cache, err := c.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	alloc := application.NewAllocator(cache)

	results, err := scanProjects(ctx, c.Service, alloc, projects, c.IgnoreConflicts, logger)
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted mid-scan: flush what was reconciled so far.
			if saveErr := c.Store.Save(cache); saveErr != nil {
				logger.Error("cache flush on interrupt failed", "error", saveErr)
			} else {
				logger.Warn("interrupted, cache flushed")
			}
		}
		return nil, err
	}

	if err := c.Store.Save(cache); err != nil {
		return nil, fmt.Errorf("save cache: %w", err)
	}
	return results, nil
}

// selectProjects resolves the project filter against the configuration.
func selectProjects(cfg *config.Config, code string) ([]config.Project, error) {
	if code == "" {
		return cfg.Projects, nil
	}
	p, ok := cfg.FindProject(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", application.ErrProjectNotFound, code)
	}
	return []config.Project{p}, nil
}

// scanProjects reconciles each project in turn. Reconciliation mutates
// the shared cache, so scanning stays sequential.
func scanProjects(ctx context.Context, svc ports.TaskService, alloc *application.Allocator, projects []config.Project, ignoreConflicts bool, logger *slog.Logger) ([]ScanResult, error) {
	results := make([]ScanResult, 0, len(projects))
	for _, p := range projects {
		r, err := scanOne(ctx, svc, alloc, p, ignoreConflicts, logger)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func scanOne(ctx context.Context, svc ports.TaskService, alloc *application.Allocator, p config.Project, ignoreConflicts bool, logger *slog.Logger) (ScanResult, error) {
	logger.Info("scanning project", "code", p.Code)

	tasks, err := svc.ListProjectTasks(ctx, p.AsanaID)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan %s: %w", p.Code, err)
	}

	var observed []string
	for _, t := range tasks {
		if id, ok := alloc.Extract(t.Name, p.Code); ok {
			observed = append(observed, id)
		}
	}
	logger.Info("scan found IDs", "code", p.Code, "tasks", len(tasks), "with_ids", len(observed))

	conflicts, err := alloc.Reconcile(p.Code, observed, ignoreConflicts)
	if err != nil {
		return ScanResult{}, err
	}
	if len(conflicts) > 0 {
		logger.Warn("conflicts resolved by advancing cache", "code", p.Code, "conflicts", len(conflicts))
	}

	return ScanResult{
		Code:         p.Code,
		TotalTasks:   len(tasks),
		TasksWithIDs: len(observed),
		Conflicts:    conflicts,
	}, nil
}
