package ports

import (
	"context"

	"asanaid/internal/domain"
)

// TaskService is the remote task-tree capability. Implementations own
// transport concerns (auth, pagination, retries on rate limits and
// transient failures); callers see eventual success or a terminal error.
type TaskService interface {
	// ListProjectTasks returns every task in a project, ascending by
	// creation time.
	ListProjectTasks(ctx context.Context, projectGID string) ([]domain.Task, error)

	// ListSubtasks returns the direct children of a task, ascending by
	// creation time.
	ListSubtasks(ctx context.Context, taskGID string) ([]domain.Task, error)

	// RenameTask sets a task's name. Re-issuing the same rename with the
	// same name is safe.
	RenameTask(ctx context.Context, taskGID, newName string) error
}

// ProjectDirectory lists workspaces and projects during setup.
type ProjectDirectory interface {
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	ListProjects(ctx context.Context, workspaceGID string) ([]domain.Project, error)
}
