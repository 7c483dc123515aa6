package setup

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"asanaid/internal/domain"
	"asanaid/internal/ports"
)

// fetchConcurrency caps concurrent project listings during setup. This
// is a lighter read-only path than bulk updates, so the cap is lower.
const fetchConcurrency = 5

// FetchProjects lists every active project across all workspaces the
// token can see, for the init flow to write into the configuration.
func FetchProjects(ctx context.Context, dir ports.ProjectDirectory, logger *slog.Logger) ([]domain.Project, error) {
	if logger == nil {
		logger = slog.Default()
	}

	workspaces, err := dir.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("fetched workspaces", "count", len(workspaces))

	sem := semaphore.NewWeighted(fetchConcurrency)
	perWorkspace := make([][]domain.Project, len(workspaces))

	g, gctx := errgroup.WithContext(ctx)
	for i, ws := range workspaces {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			projects, err := dir.ListProjects(gctx, ws.GID)
			if err != nil {
				return err
			}
			perWorkspace[i] = projects
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Project
	for _, projects := range perWorkspace {
		all = append(all, projects...)
	}
	logger.Info("fetched projects", "count", len(all))
	return all, nil
}
