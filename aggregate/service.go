package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/boardproxy/fetch"
)

// Sentinel errors for aggregate operations.
var (
	ErrNilFetcher = errors.New("aggregate: fetcher is nil")
)

// Fetcher is the cached-fetch surface the aggregator consumes.
// *fetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, path string, opts ...fetch.Option) ([]byte, error)
}

// Config carries the workspace layout: which workspace to read and which
// team and tag ids give projects and tasks their meaning.
type Config struct {
	WorkspaceID int64

	CurrentTeamID          int64
	PlannedTeamID          int64
	BugsAndChoresTeamID    int64
	FeaturesAndIdeasTeamID int64

	MilestoneTagID int64
	BugTagID       int64
	ChoreTagID     int64

	// Concurrency caps in-flight fetches per fan-out. Values below 1 run
	// fan-outs sequentially, matching the order-sensitive original behavior
	// exactly; higher values parallelize while keeping source order in the
	// results.
	Concurrency int
}

// Service exposes composed read operations over the cached fetcher.
//
// Contract:
// - Concurrency: safe for concurrent use; holds no request state.
// - Context: cancellation aborts every outstanding child fetch of a fan-out.
// - Errors: any fetch failure aborts the whole aggregate, no partial results.
type Service struct {
	fetcher Fetcher
	cfg     Config
}

// New creates an aggregator over the given fetcher.
func New(fetcher Fetcher, cfg Config) (*Service, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Service{fetcher: fetcher, cfg: cfg}, nil
}

// Config returns the workspace configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// fetchJSON fetches path and decodes the data payload into T.
func fetchJSON[T any](ctx context.Context, f Fetcher, path string, opts ...fetch.Option) (T, error) {
	var v T
	data, err := f.Fetch(ctx, path, opts...)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("aggregate: decode %s: %w", path, err)
	}
	return v, nil
}

// fanOut fetches one value per ref, capped at the configured concurrency.
// Results keep source order; the first error cancels the siblings and aborts.
func fanOut[T any](ctx context.Context, limit int, refs []Ref, fn func(context.Context, Ref) (T, error)) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	out := make([]T, len(refs))
	for i, ref := range refs {
		g.Go(func() error {
			v, err := fn(ctx, ref)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ProjectRefs returns the workspace's project reference list.
func (s *Service) ProjectRefs(ctx context.Context) ([]Ref, error) {
	return fetchJSON[[]Ref](ctx, s.fetcher, fmt.Sprintf("/workspaces/%d/projects", s.cfg.WorkspaceID))
}

// Project returns the full record for one project.
func (s *Service) Project(ctx context.Context, id int64) (Project, error) {
	return fetchJSON[Project](ctx, s.fetcher, fmt.Sprintf("/projects/%d", id))
}

// Task returns the full record for one task.
func (s *Service) Task(ctx context.Context, id int64) (Task, error) {
	return fetchJSON[Task](ctx, s.fetcher, fmt.Sprintf("/tasks/%d", id))
}

// Projects returns the full record of every project in the workspace. One
// fetch for the reference list, then one per project.
func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	refs, err := s.ProjectRefs(ctx)
	if err != nil {
		return nil, err
	}
	return fanOut(ctx, s.cfg.Concurrency, refs, func(ctx context.Context, ref Ref) (Project, error) {
		return s.Project(ctx, ref.ID)
	})
}

// ProjectsForTeam returns the workspace's projects owned by the given team.
// Matching is exact on the team id.
func (s *Service) ProjectsForTeam(ctx context.Context, teamID int64) ([]Project, error) {
	projects, err := s.Projects(ctx)
	if err != nil {
		return nil, err
	}

	var matched []Project
	for _, p := range projects {
		if p.Team.ID == teamID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// CurrentProjects returns the projects under the current team.
func (s *Service) CurrentProjects(ctx context.Context) ([]Project, error) {
	return s.ProjectsForTeam(ctx, s.cfg.CurrentTeamID)
}

// PlannedProjects returns the projects under the planned team.
func (s *Service) PlannedProjects(ctx context.Context) ([]Project, error) {
	return s.ProjectsForTeam(ctx, s.cfg.PlannedTeamID)
}

// BugsAndChoresProjects returns the projects under the bugs-and-chores team.
func (s *Service) BugsAndChoresProjects(ctx context.Context) ([]Project, error) {
	return s.ProjectsForTeam(ctx, s.cfg.BugsAndChoresTeamID)
}

// FeaturesAndIdeasProjects returns the projects under the features-and-ideas team.
func (s *Service) FeaturesAndIdeasProjects(ctx context.Context) ([]Project, error) {
	return s.ProjectsForTeam(ctx, s.cfg.FeaturesAndIdeasTeamID)
}

// TasksForProject returns the full record of every real task in the project.
// Section headers (see IsSectionHeader) are dropped from the reference list
// before the detail fan-out, so they cost no fetches.
func (s *Service) TasksForProject(ctx context.Context, projectID int64) ([]Task, error) {
	refs, err := fetchJSON[[]Ref](ctx, s.fetcher, fmt.Sprintf("/projects/%d/tasks", projectID))
	if err != nil {
		return nil, err
	}

	var real []Ref
	for _, ref := range refs {
		if IsSectionHeader(ref.Name) {
			continue
		}
		real = append(real, ref)
	}

	return fanOut(ctx, s.cfg.Concurrency, real, func(ctx context.Context, ref Ref) (Task, error) {
		return s.Task(ctx, ref.ID)
	})
}

// TaggedTasksForProject returns the project's tasks carrying the given tag,
// in source order.
func (s *Service) TaggedTasksForProject(ctx context.Context, projectID, tagID int64) ([]Task, error) {
	tasks, err := s.TasksForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var tagged []Task
	for _, t := range tasks {
		if t.HasTag(tagID) {
			tagged = append(tagged, t)
		}
	}
	return tagged, nil
}

// MilestoneTasksForProject returns the project's milestone-tagged tasks.
func (s *Service) MilestoneTasksForProject(ctx context.Context, projectID int64) ([]Task, error) {
	return s.TaggedTasksForProject(ctx, projectID, s.cfg.MilestoneTagID)
}

// BugTasksForProject returns the project's bug-tagged tasks.
func (s *Service) BugTasksForProject(ctx context.Context, projectID int64) ([]Task, error) {
	return s.TaggedTasksForProject(ctx, projectID, s.cfg.BugTagID)
}

// ChoreTasksForProject returns the project's chore-tagged tasks.
func (s *Service) ChoreTasksForProject(ctx context.Context, projectID int64) ([]Task, error) {
	return s.TaggedTasksForProject(ctx, projectID, s.cfg.ChoreTagID)
}

// CompletedTasksForProject returns the project's completed tasks.
func (s *Service) CompletedTasksForProject(ctx context.Context, projectID int64) ([]Task, error) {
	return s.tasksByCompletion(ctx, projectID, true)
}

// UncompletedTasksForProject returns the project's open tasks.
func (s *Service) UncompletedTasksForProject(ctx context.Context, projectID int64) ([]Task, error) {
	return s.tasksByCompletion(ctx, projectID, false)
}

func (s *Service) tasksByCompletion(ctx context.Context, projectID int64, completed bool) ([]Task, error) {
	tasks, err := s.TasksForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var matched []Task
	for _, t := range tasks {
		if t.Completed == completed {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// TasksForAssignee returns every task in the workspace assigned to the given
// user. This walks projects times tasks-per-project reads and is by far the
// most expensive operation; the cache carries it.
func (s *Service) TasksForAssignee(ctx context.Context, assigneeID int64) ([]Task, error) {
	all, err := s.WorkspaceTasks(ctx)
	if err != nil {
		return nil, err
	}

	var matched []Task
	for _, t := range all {
		if t.Assignee != nil && t.Assignee.ID == assigneeID {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// WorkspaceTasks returns every task of every project in the workspace, in
// project order then task order.
func (s *Service) WorkspaceTasks(ctx context.Context) ([]Task, error) {
	refs, err := s.ProjectRefs(ctx)
	if err != nil {
		return nil, err
	}

	perProject, err := fanOut(ctx, s.cfg.Concurrency, refs, func(ctx context.Context, ref Ref) ([]Task, error) {
		return s.TasksForProject(ctx, ref.ID)
	})
	if err != nil {
		return nil, err
	}

	var all []Task
	for _, tasks := range perProject {
		all = append(all, tasks...)
	}
	return all, nil
}

// Users returns the workspace's members.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	return fetchJSON[[]User](ctx, s.fetcher, fmt.Sprintf("/workspaces/%d/users", s.cfg.WorkspaceID))
}

// Teams returns the workspace's teams.
func (s *Service) Teams(ctx context.Context) ([]Ref, error) {
	return fetchJSON[[]Ref](ctx, s.fetcher, fmt.Sprintf("/workspaces/%d/teams", s.cfg.WorkspaceID))
}

// Me returns the user record behind the configured credential.
func (s *Service) Me(ctx context.Context) (User, error) {
	return fetchJSON[User](ctx, s.fetcher, "/users/me")
}

// IsBug reports whether the task carries the configured bug tag.
func (s *Service) IsBug(t Task) bool {
	return t.HasTag(s.cfg.BugTagID)
}

// IsChore reports whether the task carries the configured chore tag.
func (s *Service) IsChore(t Task) bool {
	return t.HasTag(s.cfg.ChoreTagID)
}

// IsMilestone reports whether the task carries the configured milestone tag.
func (s *Service) IsMilestone(t Task) bool {
	return t.HasTag(s.cfg.MilestoneTagID)
}
