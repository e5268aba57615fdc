package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/boardproxy/cache"
	"github.com/jonwraymond/boardproxy/fetch"
	"github.com/jonwraymond/boardproxy/upstream"
)

// fakeFetcher serves canned payloads by path and counts lookups.
type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string]string
	calls map[string]int
}

func newFakeFetcher(data map[string]string) *fakeFetcher {
	return &fakeFetcher{data: data, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string, opts ...fetch.Option) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	d, ok := f.data[path]
	if !ok {
		return nil, &upstream.StatusError{Code: 404, Path: path}
	}
	return []byte(d), nil
}

func (f *fakeFetcher) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// testConfig matches the fixture below: two projects, one per team, with a
// bug-tagged task and a section header in project 1.
func testConfig() Config {
	return Config{
		WorkspaceID:         99,
		CurrentTeamID:       100,
		PlannedTeamID:       200,
		BugsAndChoresTeamID: 300,
		MilestoneTagID:      30,
		BugTagID:            10,
		ChoreTagID:          20,
	}
}

func testFixture() map[string]string {
	return map[string]string{
		"/workspaces/99/projects": `[{"id":1,"name":"A"},{"id":2,"name":"B"}]`,
		"/projects/1":             `{"id":1,"name":"A","notes":"alpha","team":{"id":100,"name":"Current"}}`,
		"/projects/2":             `{"id":2,"name":"B","notes":"beta","team":{"id":200,"name":"Planned"}}`,
		"/projects/1/tasks":       `[{"id":1,"name":"Design"},{"id":2,"name":"Section:"}]`,
		"/projects/2/tasks":       `[{"id":3,"name":"Plan"}]`,
		"/tasks/1":                `{"id":1,"name":"Design","completed":false,"due_on":"2026-09-15","assignee":{"id":7,"name":"Sam"},"tags":[{"id":10,"name":"bug"}]}`,
		"/tasks/3":                `{"id":3,"name":"Plan","completed":true,"assignee":{"id":8,"name":"Alex"},"tags":[{"id":20,"name":"chore"}]}`,
		"/workspaces/99/users":    `[{"id":7,"name":"Sam"},{"id":8,"name":"Alex"}]`,
		"/workspaces/99/teams":    `[{"id":100,"name":"Current"},{"id":200,"name":"Planned"}]`,
		"/users/me":               `{"id":7,"name":"Sam"}`,
	}
}

func newTestService(t *testing.T, f Fetcher, cfg Config) *Service {
	t.Helper()
	s, err := New(f, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_RequiresFetcher(t *testing.T) {
	if _, err := New(nil, Config{}); !errors.Is(err, ErrNilFetcher) {
		t.Errorf("New(nil) error = %v, want %v", err, ErrNilFetcher)
	}
}

func TestProjects(t *testing.T) {
	f := newFakeFetcher(testFixture())
	s := newTestService(t, f, testConfig())

	projects, err := s.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("Projects() len = %d, want 2", len(projects))
	}
	// Source order preserved.
	if projects[0].Name != "A" || projects[1].Name != "B" {
		t.Errorf("Projects() order = [%s, %s], want [A, B]", projects[0].Name, projects[1].Name)
	}
}

func TestProjectsForTeam(t *testing.T) {
	f := newFakeFetcher(testFixture())
	s := newTestService(t, f, testConfig())
	ctx := context.Background()

	current, err := s.CurrentProjects(ctx)
	if err != nil {
		t.Fatalf("CurrentProjects() error = %v", err)
	}
	if len(current) != 1 || current[0].Name != "A" {
		t.Errorf("CurrentProjects() = %+v, want exactly [A]", current)
	}

	planned, err := s.PlannedProjects(ctx)
	if err != nil {
		t.Fatalf("PlannedProjects() error = %v", err)
	}
	if len(planned) != 1 || planned[0].Name != "B" {
		t.Errorf("PlannedProjects() = %+v, want exactly [B]", planned)
	}

	// No projects live under the bugs-and-chores team in this fixture.
	none, err := s.BugsAndChoresProjects(ctx)
	if err != nil {
		t.Fatalf("BugsAndChoresProjects() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("BugsAndChoresProjects() = %+v, want empty", none)
	}
}

// TestTasksForProject_ExcludesSectionHeaders: "Section:" is dropped before
// the detail fan-out, so its detail path is never fetched.
func TestTasksForProject_ExcludesSectionHeaders(t *testing.T) {
	f := newFakeFetcher(testFixture())
	s := newTestService(t, f, testConfig())

	tasks, err := s.TasksForProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("TasksForProject() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "Design" {
		t.Fatalf("TasksForProject() = %+v, want exactly [Design]", tasks)
	}
	if got := f.callCount("/tasks/2"); got != 0 {
		t.Errorf("section header detail fetched %d times, want 0", got)
	}
}

func TestTaggedTasksForProject(t *testing.T) {
	fixture := testFixture()
	fixture["/projects/1/tasks"] = `[{"id":1,"name":"Design"},{"id":4,"name":"Polish"}]`
	fixture["/tasks/4"] = `{"id":4,"name":"Polish","tags":[{"id":20,"name":"chore"}]}`

	f := newFakeFetcher(fixture)
	s := newTestService(t, f, testConfig())
	ctx := context.Background()

	bugs, err := s.BugTasksForProject(ctx, 1)
	if err != nil {
		t.Fatalf("BugTasksForProject() error = %v", err)
	}
	if len(bugs) != 1 || bugs[0].ID != 1 {
		t.Errorf("BugTasksForProject() = %+v, want exactly [task 1]", bugs)
	}

	chores, err := s.ChoreTasksForProject(ctx, 1)
	if err != nil {
		t.Fatalf("ChoreTasksForProject() error = %v", err)
	}
	if len(chores) != 1 || chores[0].ID != 4 {
		t.Errorf("ChoreTasksForProject() = %+v, want exactly [task 4]", chores)
	}

	milestones, err := s.MilestoneTasksForProject(ctx, 1)
	if err != nil {
		t.Fatalf("MilestoneTasksForProject() error = %v", err)
	}
	if len(milestones) != 0 {
		t.Errorf("MilestoneTasksForProject() = %+v, want empty", milestones)
	}
}

func TestTasksByCompletion(t *testing.T) {
	f := newFakeFetcher(testFixture())
	s := newTestService(t, f, testConfig())
	ctx := context.Background()

	open, err := s.UncompletedTasksForProject(ctx, 1)
	if err != nil {
		t.Fatalf("UncompletedTasksForProject() error = %v", err)
	}
	if len(open) != 1 || open[0].Name != "Design" {
		t.Errorf("UncompletedTasksForProject() = %+v, want [Design]", open)
	}

	closed, err := s.CompletedTasksForProject(ctx, 2)
	if err != nil {
		t.Fatalf("CompletedTasksForProject() error = %v", err)
	}
	if len(closed) != 1 || closed[0].Name != "Plan" {
		t.Errorf("CompletedTasksForProject() = %+v, want [Plan]", closed)
	}
}

func TestTasksForAssignee(t *testing.T) {
	f := newFakeFetcher(testFixture())
	s := newTestService(t, f, testConfig())

	tasks, err := s.TasksForAssignee(context.Background(), 7)
	if err != nil {
		t.Fatalf("TasksForAssignee() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "Design" {
		t.Errorf("TasksForAssignee(7) = %+v, want [Design]", tasks)
	}
}

func TestUsersTeamsMe(t *testing.T) {
	f := newFakeFetcher(testFixture())
	s := newTestService(t, f, testConfig())
	ctx := context.Background()

	users, err := s.Users(ctx)
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Users() len = %d, want 2", len(users))
	}

	teams, err := s.Teams(ctx)
	if err != nil {
		t.Fatalf("Teams() error = %v", err)
	}
	if len(teams) != 2 {
		t.Errorf("Teams() len = %d, want 2", len(teams))
	}

	me, err := s.Me(ctx)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.Name != "Sam" {
		t.Errorf("Me().Name = %q, want Sam", me.Name)
	}
}

// TestFanOut_AbortsOnError: a missing detail record fails the whole
// aggregate, with no partial result.
func TestFanOut_AbortsOnError(t *testing.T) {
	fixture := testFixture()
	delete(fixture, "/projects/2")

	f := newFakeFetcher(fixture)
	s := newTestService(t, f, testConfig())

	projects, err := s.Projects(context.Background())
	var se *upstream.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Projects() error = %v, want *upstream.StatusError", err)
	}
	if projects != nil {
		t.Errorf("Projects() = %+v, want nil on aggregate failure", projects)
	}
}

// TestConcurrentFanOut_PreservesOrder: parallel detail fetches still return
// results in source order.
func TestConcurrentFanOut_PreservesOrder(t *testing.T) {
	fixture := map[string]string{
		"/workspaces/99/projects": `[{"id":1,"name":"A"},{"id":2,"name":"B"},{"id":3,"name":"C"},{"id":4,"name":"D"}]`,
		"/projects/1":             `{"id":1,"name":"A","team":{"id":100}}`,
		"/projects/2":             `{"id":2,"name":"B","team":{"id":100}}`,
		"/projects/3":             `{"id":3,"name":"C","team":{"id":100}}`,
		"/projects/4":             `{"id":4,"name":"D","team":{"id":100}}`,
	}

	cfg := testConfig()
	cfg.Concurrency = 4
	f := newFakeFetcher(fixture)
	s := newTestService(t, f, cfg)

	projects, err := s.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	want := []string{"A", "B", "C", "D"}
	for i, p := range projects {
		if p.Name != want[i] {
			t.Errorf("Projects()[%d] = %s, want %s", i, p.Name, want[i])
		}
	}
}

func TestPredicates(t *testing.T) {
	s := newTestService(t, newFakeFetcher(nil), testConfig())

	bug := Task{Tags: []Ref{{ID: 10}}}
	chore := Task{Tags: []Ref{{ID: 20}}}
	milestone := Task{Tags: []Ref{{ID: 30}}}
	untagged := Task{}

	if !s.IsBug(bug) || s.IsBug(chore) || s.IsBug(untagged) {
		t.Error("IsBug misclassified")
	}
	if !s.IsChore(chore) || s.IsChore(bug) || s.IsChore(untagged) {
		t.Error("IsChore misclassified")
	}
	if !s.IsMilestone(milestone) || s.IsMilestone(bug) {
		t.Error("IsMilestone misclassified")
	}
}

// TestEndToEnd_WithRealFetcher runs the aggregator over a real fetcher and
// memory store to confirm the composed cache behavior: a repeated aggregate
// costs zero extra remote reads.
func TestEndToEnd_WithRealFetcher(t *testing.T) {
	remote := &countingRemote{data: testFixture()}
	f, err := fetch.New(fetch.Config{
		Store:  cache.NewMemoryStore(),
		Client: remote,
		Policy: cache.Policy{DefaultTTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("fetch.New() error = %v", err)
	}
	s := newTestService(t, f, testConfig())
	ctx := context.Background()

	first, err := s.CurrentProjects(ctx)
	if err != nil {
		t.Fatalf("CurrentProjects() error = %v", err)
	}
	callsAfterFirst := remote.calls()

	second, err := s.CurrentProjects(ctx)
	if err != nil {
		t.Fatalf("CurrentProjects() second error = %v", err)
	}
	if remote.calls() != callsAfterFirst {
		t.Errorf("second aggregate made %d extra remote calls, want 0", remote.calls()-callsAfterFirst)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Errorf("aggregates differ: %+v vs %+v", first, second)
	}
}

type countingRemote struct {
	mu   sync.Mutex
	n    int
	data map[string]string
}

func (c *countingRemote) Get(ctx context.Context, path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	d, ok := c.data[path]
	if !ok {
		return nil, &upstream.StatusError{Code: 404, Path: path}
	}
	return []byte(d), nil
}

func (c *countingRemote) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
