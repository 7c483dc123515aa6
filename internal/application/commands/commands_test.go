package commands

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"asanaid/internal/application"
	"asanaid/internal/config"
	"asanaid/internal/domain"
)

// fakeTaskService serves fixed task trees keyed by project GID and
// records renames.
type fakeTaskService struct {
	mu       sync.Mutex
	projects map[string][]domain.Task
	subtasks map[string][]domain.Task
	renames  map[string]string
}

func (f *fakeTaskService) ListProjectTasks(_ context.Context, projectGID string) ([]domain.Task, error) {
	return f.projects[projectGID], nil
}

func (f *fakeTaskService) ListSubtasks(_ context.Context, taskGID string) ([]domain.Task, error) {
	return f.subtasks[taskGID], nil
}

func (f *fakeTaskService) RenameTask(_ context.Context, taskGID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renames == nil {
		f.renames = make(map[string]string)
	}
	f.renames[taskGID] = name
	return nil
}

// fakeStore mimics the file store: every Load returns an independent
// copy and every Save captures a snapshot.
type fakeStore struct {
	cache *domain.CacheRoot
	saved []*domain.CacheRoot
}

func (s *fakeStore) Load() (*domain.CacheRoot, error) {
	if s.cache == nil {
		return domain.NewCacheRoot(), nil
	}
	return s.cache.Clone(), nil
}

func (s *fakeStore) Save(cache *domain.CacheRoot) error {
	snapshot := cache.Clone()
	s.cache = snapshot
	s.saved = append(s.saved, snapshot)
	return nil
}

// interruptingTaskService cancels the run context when a given project
// is listed, as if the user hit ctrl-c between projects.
type interruptingTaskService struct {
	fakeTaskService
	cancel    context.CancelFunc
	cancelGID string
}

func (f *interruptingTaskService) ListProjectTasks(ctx context.Context, projectGID string) ([]domain.Task, error) {
	if projectGID == f.cancelGID {
		f.cancel()
		return nil, ctx.Err()
	}
	return f.fakeTaskService.ListProjectTasks(ctx, projectGID)
}

func testConfig() *config.Config {
	return &config.Config{
		AsanaToken: "token",
		Projects: []config.Project{
			{Code: "PRJ", AsanaID: "p1"},
		},
	}
}

func TestScanPersistsReconciledCache(t *testing.T) {
	svc := &fakeTaskService{
		projects: map[string][]domain.Task{
			"p1": {
				{GID: "r1", Name: "PRJ-3 Done task"},
				{GID: "r2", Name: "PRJ-7 Other task"},
				{GID: "r3", Name: "Unlabeled"},
			},
		},
	}
	store := &fakeStore{}
	cmd := &ScanCommand{Service: svc, Store: store, Config: testConfig()}

	results, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.TotalTasks != 3 || r.TasksWithIDs != 2 || len(r.Conflicts) != 0 {
		t.Errorf("result = %+v, want 3 tasks, 2 with IDs, no conflicts", r)
	}

	if len(store.saved) != 1 {
		t.Fatalf("got %d saves, want 1", len(store.saved))
	}
	if got := store.saved[0].Counters("PRJ").LastRoot; got != 7 {
		t.Errorf("persisted LastRoot = %d, want 7", got)
	}
}

func TestScanConflictLeavesStoreUntouched(t *testing.T) {
	seed := domain.NewCacheRoot()
	seed.Counters("PRJ").LastRoot = 5

	svc := &fakeTaskService{
		projects: map[string][]domain.Task{
			"p1": {{GID: "r1", Name: "PRJ-10 Drifted"}},
		},
	}
	store := &fakeStore{cache: seed}
	cmd := &ScanCommand{Service: svc, Store: store, Config: testConfig()}

	_, err := cmd.Execute(context.Background())
	var rerr *application.ReconciliationError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ReconciliationError, got %v", err)
	}

	if len(store.saved) != 0 {
		t.Errorf("conflicting scan saved the cache %d times", len(store.saved))
	}
	after, _ := store.Load()
	if got := after.Counters("PRJ").LastRoot; got != 5 {
		t.Errorf("stored LastRoot = %d, want untouched 5", got)
	}
}

func TestScanUnknownProjectFails(t *testing.T) {
	cmd := &ScanCommand{Config: testConfig(), Project: "NOPE"}
	if err := cmd.Validate(); !errors.Is(err, application.ErrProjectNotFound) {
		t.Errorf("Validate = %v, want ErrProjectNotFound", err)
	}
}

func TestUpdateAssignsAndPersists(t *testing.T) {
	svc := &fakeTaskService{
		projects: map[string][]domain.Task{
			"p1": {{GID: "r1", Name: "Write spec", NumSubtasks: 1}},
		},
		subtasks: map[string][]domain.Task{
			"r1": {{GID: "s1", Name: "Draft", ParentGID: "r1"}},
		},
	}
	store := &fakeStore{}
	cmd := &UpdateCommand{Service: svc, Store: store, Config: testConfig()}

	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Results) != 1 || len(result.Results[0].Assignments) != 2 {
		t.Fatalf("results = %+v, want 2 assignments for one project", result.Results)
	}

	wantRenames := map[string]string{
		"r1": "PRJ-1 Write spec",
		"s1": "PRJ-1-1 Draft",
	}
	if !reflect.DeepEqual(svc.renames, wantRenames) {
		t.Errorf("renames = %v, want %v", svc.renames, wantRenames)
	}

	if store.cache == nil {
		t.Fatal("nothing persisted")
	}
	pc := store.cache.Counters("PRJ")
	if pc.LastRoot != 1 || pc.Subtasks["1"] != 1 {
		t.Errorf("persisted counters = %+v, want last_root 1 and subtasks[1]=1", pc)
	}
}

func TestUpdateDryRunPersistsNothing(t *testing.T) {
	seed := domain.NewCacheRoot()
	seed.Counters("PRJ").LastRoot = 2

	svc := &fakeTaskService{
		projects: map[string][]domain.Task{
			"p1": {{GID: "r1", Name: "New task"}},
		},
	}
	store := &fakeStore{cache: seed}
	cmd := &UpdateCommand{Service: svc, Store: store, Config: testConfig(), DryRun: true}

	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// The preview reflects what a real run would assign.
	if got := result.Results[0].Assignments[0].AssignedID; got != "PRJ-3" {
		t.Errorf("previewed ID = %s, want PRJ-3", got)
	}

	if len(svc.renames) != 0 {
		t.Errorf("dry run renamed %d tasks", len(svc.renames))
	}
	if len(store.saved) != 0 {
		t.Errorf("dry run saved the cache %d times", len(store.saved))
	}
	after, _ := store.Load()
	if got := after.Counters("PRJ").LastRoot; got != 2 {
		t.Errorf("stored LastRoot = %d after dry run, want 2", got)
	}
}

func TestUpdateAbortsOnScanConflict(t *testing.T) {
	seed := domain.NewCacheRoot()
	seed.Counters("PRJ").LastRoot = 5

	svc := &fakeTaskService{
		projects: map[string][]domain.Task{
			"p1": {
				{GID: "r1", Name: "PRJ-10 Drifted"},
				{GID: "r2", Name: "Unlabeled"},
			},
		},
	}
	store := &fakeStore{cache: seed}
	cmd := &UpdateCommand{Service: svc, Store: store, Config: testConfig()}

	if _, err := cmd.Execute(context.Background()); err == nil {
		t.Fatal("expected conflict error")
	}
	if len(svc.renames) != 0 {
		t.Errorf("aborted update renamed %d tasks", len(svc.renames))
	}
	if len(store.saved) != 0 {
		t.Errorf("aborted update saved the cache %d times", len(store.saved))
	}
}

func twoProjectConfig() *config.Config {
	return &config.Config{
		AsanaToken: "token",
		Projects: []config.Project{
			{Code: "PRJ", AsanaID: "p1"},
			{Code: "ABC", AsanaID: "p2"},
		},
	}
}

func TestScanFlushesCacheOnInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &interruptingTaskService{
		fakeTaskService: fakeTaskService{
			projects: map[string][]domain.Task{
				"p1": {{GID: "r1", Name: "PRJ-7 Done task"}},
			},
		},
		cancel:    cancel,
		cancelGID: "p2",
	}
	store := &fakeStore{}
	cmd := &ScanCommand{Service: svc, Store: store, Config: twoProjectConfig()}

	if _, err := cmd.Execute(ctx); err == nil {
		t.Fatal("expected error from interrupted scan")
	}

	if len(store.saved) != 1 {
		t.Fatalf("interrupted scan flushed the cache %d times, want 1", len(store.saved))
	}
	if got := store.saved[0].Counters("PRJ").LastRoot; got != 7 {
		t.Errorf("flushed LastRoot = %d, want 7 learned before the interrupt", got)
	}
}

func TestUpdateFlushesCacheWhenScanInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &interruptingTaskService{
		fakeTaskService: fakeTaskService{
			projects: map[string][]domain.Task{
				"p1": {{GID: "r1", Name: "PRJ-7 Done task"}},
			},
		},
		cancel:    cancel,
		cancelGID: "p2",
	}
	store := &fakeStore{}
	cmd := &UpdateCommand{Service: svc, Store: store, Config: twoProjectConfig()}

	if _, err := cmd.Execute(ctx); err == nil {
		t.Fatal("expected error from interrupted update")
	}

	if len(store.saved) != 1 {
		t.Fatalf("interrupted update flushed the cache %d times, want 1", len(store.saved))
	}
	if got := store.saved[0].Counters("PRJ").LastRoot; got != 7 {
		t.Errorf("flushed LastRoot = %d, want 7 learned before the interrupt", got)
	}
}

func TestUpdateDryRunInterruptSavesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &interruptingTaskService{
		fakeTaskService: fakeTaskService{
			projects: map[string][]domain.Task{
				"p1": {{GID: "r1", Name: "PRJ-7 Done task"}},
			},
		},
		cancel:    cancel,
		cancelGID: "p2",
	}
	store := &fakeStore{}
	cmd := &UpdateCommand{Service: svc, Store: store, Config: twoProjectConfig(), DryRun: true}

	if _, err := cmd.Execute(ctx); err == nil {
		t.Fatal("expected error from interrupted dry run")
	}
	if len(store.saved) != 0 {
		t.Errorf("interrupted dry run saved the cache %d times", len(store.saved))
	}
}

func TestUpdateIgnoreConflictsContinuesPastDrift(t *testing.T) {
	seed := domain.NewCacheRoot()
	seed.Counters("PRJ").LastRoot = 5

	svc := &fakeTaskService{
		projects: map[string][]domain.Task{
			"p1": {
				{GID: "r1", Name: "PRJ-10 Drifted"},
				{GID: "r2", Name: "Unlabeled"},
			},
		},
	}
	store := &fakeStore{cache: seed}
	cmd := &UpdateCommand{Service: svc, Store: store, Config: testConfig(), IgnoreConflicts: true}

	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Scan[0].Conflicts) != 1 {
		t.Fatalf("scan conflicts = %v, want 1 reported", result.Scan[0].Conflicts)
	}
	// Numbering continues past the drifted maximum.
	if got := svc.renames["r2"]; got != "PRJ-11 Unlabeled" {
		t.Errorf("rename = %q, want PRJ-11 Unlabeled", got)
	}
}
