package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"asanaid/internal/domain"
)

// fakeTaskService serves a fixed task tree and records renames.
type fakeTaskService struct {
	mu       sync.Mutex
	roots    []domain.Task
	subtasks map[string][]domain.Task
	renames  map[string]string
	failGIDs map[string]bool
}

func (f *fakeTaskService) ListProjectTasks(_ context.Context, _ string) ([]domain.Task, error) {
	return f.roots, nil
}

func (f *fakeTaskService) ListSubtasks(_ context.Context, taskGID string) ([]domain.Task, error) {
	return f.subtasks[taskGID], nil
}

func (f *fakeTaskService) RenameTask(_ context.Context, taskGID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGIDs[taskGID] {
		return errors.New("simulated rename failure")
	}
	if f.renames == nil {
		f.renames = make(map[string]string)
	}
	f.renames[taskGID] = name
	return nil
}

func newProcessorUnderTest(svc *fakeTaskService) (*Processor, *domain.CacheRoot) {
	cache := domain.NewCacheRoot()
	return NewProcessor(svc, NewAllocator(cache), nil), cache
}

func TestProcessProjectAssignsTree(t *testing.T) {
	svc := &fakeTaskService{
		roots: []domain.Task{
			{GID: "r1", Name: "Write spec", NumSubtasks: 2},
		},
		subtasks: map[string][]domain.Task{
			"r1": {
				{GID: "s1", Name: "Draft", ParentGID: "r1"},
				{GID: "s2", Name: "Review", ParentGID: "r1"},
			},
		},
	}
	proc, cache := newProcessorUnderTest(svc)

	result, err := proc.ProcessProject(context.Background(), "proj", "AT", false)
	if err != nil {
		t.Fatalf("ProcessProject: %v", err)
	}

	wantRenames := map[string]string{
		"r1": "AT-1 Write spec",
		"s1": "AT-1-1 Draft",
		"s2": "AT-1-2 Review",
	}
	if len(result.Assignments) != len(wantRenames) {
		t.Fatalf("got %d assignments, want %d", len(result.Assignments), len(wantRenames))
	}
	for gid, want := range wantRenames {
		if got := svc.renames[gid]; got != want {
			t.Errorf("rename of %s = %q, want %q", gid, got, want)
		}
	}

	pc := cache.Counters("AT")
	if pc.LastRoot != 1 {
		t.Errorf("LastRoot = %d, want 1", pc.LastRoot)
	}
	if pc.Subtasks["1"] != 2 {
		t.Errorf("Subtasks[\"1\"] = %d, want 2", pc.Subtasks["1"])
	}
}

func TestProcessProjectNumbersRootsInOrder(t *testing.T) {
	svc := &fakeTaskService{
		roots: []domain.Task{
			{GID: "r1", Name: "First"},
			{GID: "r2", Name: "Second"},
			{GID: "r3", Name: "Third"},
		},
	}
	proc, _ := newProcessorUnderTest(svc)

	result, err := proc.ProcessProject(context.Background(), "proj", "AT", false)
	if err != nil {
		t.Fatalf("ProcessProject: %v", err)
	}

	want := []string{"AT-1", "AT-2", "AT-3"}
	for i, as := range result.Assignments {
		if as.AssignedID != want[i] {
			t.Errorf("assignment %d = %s, want %s", i, as.AssignedID, want[i])
		}
	}
}

func TestProcessProjectSkipsLabeledAndNumbersUnderExistingID(t *testing.T) {
	svc := &fakeTaskService{
		roots: []domain.Task{
			{GID: "r1", Name: "AT-9 Existing", NumSubtasks: 1},
		},
		subtasks: map[string][]domain.Task{
			"r1": {
				{GID: "s1", Name: "New child", ParentGID: "r1"},
			},
		},
	}
	proc, cache := newProcessorUnderTest(svc)

	result, err := proc.ProcessProject(context.Background(), "proj", "AT", false)
	if err != nil {
		t.Fatalf("ProcessProject: %v", err)
	}

	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if len(result.Assignments) != 1 || result.Assignments[0].AssignedID != "AT-9-1" {
		t.Fatalf("assignments = %+v, want one AT-9-1", result.Assignments)
	}
	if _, renamed := svc.renames["r1"]; renamed {
		t.Error("labeled task was renamed")
	}
	if got := cache.Counters("AT").Subtasks["9"]; got != 1 {
		t.Errorf("Subtasks[\"9\"] = %d, want 1", got)
	}
}

func TestProcessProjectDeepNesting(t *testing.T) {
	svc := &fakeTaskService{
		roots: []domain.Task{
			{GID: "r1", Name: "Top", NumSubtasks: 1},
		},
		subtasks: map[string][]domain.Task{
			"r1": {{GID: "s1", Name: "Middle", ParentGID: "r1", NumSubtasks: 1}},
			"s1": {{GID: "s2", Name: "Bottom", ParentGID: "s1"}},
		},
	}
	proc, _ := newProcessorUnderTest(svc)

	result, err := proc.ProcessProject(context.Background(), "proj", "AT", false)
	if err != nil {
		t.Fatalf("ProcessProject: %v", err)
	}

	ids := make(map[string]string)
	for _, as := range result.Assignments {
		ids[as.TaskGID] = as.AssignedID
	}
	if ids["s2"] != "AT-1-1-1" {
		t.Errorf("grandchild ID = %s, want AT-1-1-1", ids["s2"])
	}
}

func TestProcessProjectDryRunIssuesNoRenames(t *testing.T) {
	svc := &fakeTaskService{
		roots: []domain.Task{
			{GID: "r1", Name: "Write spec"},
		},
	}
	proc, _ := newProcessorUnderTest(svc)

	result, err := proc.ProcessProject(context.Background(), "proj", "AT", true)
	if err != nil {
		t.Fatalf("ProcessProject: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("got %d assignments, want 1", len(result.Assignments))
	}
	if len(svc.renames) != 0 {
		t.Errorf("dry run issued %d renames", len(svc.renames))
	}
}

func TestProcessProjectToleratesRenameFailure(t *testing.T) {
	svc := &fakeTaskService{
		roots: []domain.Task{
			{GID: "r1", Name: "First"},
			{GID: "r2", Name: "Second"},
		},
		failGIDs: map[string]bool{"r1": true},
	}
	proc, cache := newProcessorUnderTest(svc)

	result, err := proc.ProcessProject(context.Background(), "proj", "AT", false)
	if err != nil {
		t.Fatalf("ProcessProject returned error despite tolerated failure: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(result.Errors), result.Errors)
	}
	if got := svc.renames["r2"]; got != "AT-2 Second" {
		t.Errorf("surviving rename = %q, want AT-2 Second", got)
	}
	// The failed task keeps its number reserved; retrying must not reuse it.
	if got := cache.Counters("AT").LastRoot; got != 2 {
		t.Errorf("LastRoot = %d, want 2", got)
	}
}
