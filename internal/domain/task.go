package domain

import "time"

// Task is a remote task node as seen by the tree processor.
type Task struct {
	GID         string
	Name        string
	ParentGID   string // empty for root tasks
	NumSubtasks int
	CreatedAt   time.Time
}

// Assignment records one ID given to a previously unlabeled task during
// a processing run. NewName is the ID, a single space, then the
// original name.
type Assignment struct {
	TaskGID    string
	OldName    string
	NewName    string
	AssignedID string
}

// Workspace is a remote workspace, used during interactive setup.
type Workspace struct {
	GID  string
	Name string
}

// Project is a remote project reference, used during interactive setup.
type Project struct {
	GID  string
	Name string
}
