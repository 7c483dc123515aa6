package commands

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"asanaid/internal/application"
	"asanaid/internal/config"
	"asanaid/internal/ports"
)

// UpdateResult carries the scan summary and the per-project processing
// results of one update run.
type UpdateResult struct {
	Scan    []ScanResult
	Results []*application.ProcessResult
}

// UpdateCommand assigns IDs to unlabeled tasks. It always scans first;
// unresolved conflicts abort the run before any allocation. In dry-run
// mode all work happens against a deep copy of the cache and nothing is
// persisted or renamed remotely.
type UpdateCommand struct {
	Service         ports.TaskService
	Store           ports.CacheStore
	Config          *config.Config
	Project         string // optional code filter; empty updates all
	DryRun          bool
	IgnoreConflicts bool
	Logger          *slog.Logger
}

// Validate checks that the requested project is configured.
func (c *UpdateCommand) Validate() error {
	_, err := selectProjects(c.Config, c.Project)
	return err
}

// Execute runs the update. The command owns the one writable cache
// handle: it persists the cache after the run and flushes it
// best-effort when the run is interrupted, unless this is a dry run.
func (c *UpdateCommand) Execute(ctx context.Context) (*UpdateResult, error) {
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
	if c.DryRun {
		cache = cache.Clone()
		logger.Info("dry run: working on an isolated cache copy")
	}
	alloc := application.NewAllocator(cache)

	scanResults, err := scanProjects(ctx, c.Service, alloc, projects, c.IgnoreConflicts, logger)
	if err != nil {
		if ctx.Err() != nil && !c.DryRun {
			// Interrupted mid-scan: flush what was reconciled so far.
			if saveErr := c.Store.Save(cache); saveErr != nil {
				logger.Error("cache flush on interrupt failed", "error", saveErr)
			} else {
				logger.Warn("interrupted, cache flushed")
			}
		}
		return nil, fmt.Errorf("scan before update failed: %w", err)
	}
	if !c.DryRun {
		// Persist the reconciled counters before allocating, so an
		// aborted apply phase never loses what the scan learned.
		if err := c.Store.Save(cache); err != nil {
			return nil, fmt.Errorf("save cache: %w", err)
		}
	}

	// Pre-create counter entries: concurrent project runs then touch
	// only their own per-code state, never the shared map.
	for _, p := range projects {
		cache.Counters(p.Code)
	}

	results := make([]*application.ProcessResult, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range projects {
		g.Go(func() error {
			proc := application.NewProcessor(c.Service, alloc, logger)
			r, err := proc.ProcessProject(gctx, p.AsanaID, p.Code, c.DryRun)
			if err != nil {
				return fmt.Errorf("update %s: %w", p.Code, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !c.DryRun {
			// Counters committed before the failure stay committed;
			// flush them so an interrupted run never reuses a number.
			if saveErr := c.Store.Save(cache); saveErr != nil {
				logger.Error("cache flush after failed update", "error", saveErr)
			} else {
				logger.Warn("run aborted, cache flushed")
			}
		}
		return nil, err
	}

	if !c.DryRun {
		if err := c.Store.Save(cache); err != nil {
			return nil, fmt.Errorf("save cache: %w", err)
		}
	}

	return &UpdateResult{Scan: scanResults, Results: results}, nil
}
