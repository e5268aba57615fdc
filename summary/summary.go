package summary

import (
	"context"
	"errors"

	"github.com/jonwraymond/boardproxy/aggregate"
)

// ErrNilAggregator indicates the builder was constructed without an aggregator.
var ErrNilAggregator = errors.New("summary: aggregator is nil")

// Member is a static directory entry for a team member.
type Member struct {
	Name  string `yaml:"name" json:"name"`
	Photo string `yaml:"photo" json:"photo,omitempty"`
}

// Directory maps member ids to their static records. It is configuration
// data, never fetched remotely.
type Directory map[int64]Member

// Milestone is one milestone row of a project summary.
type Milestone struct {
	Name     string `json:"name"`
	Due      string `json:"due"`
	Notes    string `json:"notes,omitempty"`
	Assignee string `json:"assignee,omitempty"`
}

// ProjectSummary is one row of the current/planned projects endpoints.
type ProjectSummary struct {
	Name            string      `json:"name"`
	Notes           string      `json:"notes,omitempty"`
	OpenTaskCount   int         `json:"open_task_count"`
	ClosedTaskCount int         `json:"closed_task_count"`
	Milestones      []Milestone `json:"milestones"`
	Assignee        string      `json:"assignee,omitempty"`
}

// ProductSummary is one row of the products endpoint.
type ProductSummary struct {
	Name        string `json:"name"`
	BugsCount   int    `json:"bugs_count"`
	ChoresCount int    `json:"chores_count"`
}

// MemberSummary is one row of the team-members endpoint.
type MemberSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Photo       string `json:"photo,omitempty"`
	BugsCount   int    `json:"bugs_count"`
	ChoresCount int    `json:"chores_count"`
}

// MeSummary is the connectivity-probe payload.
type MeSummary struct {
	Name string `json:"name"`
}

// Aggregator is the read surface the builder consumes.
// *aggregate.Service satisfies it.
type Aggregator interface {
	CurrentProjects(ctx context.Context) ([]aggregate.Project, error)
	PlannedProjects(ctx context.Context) ([]aggregate.Project, error)
	BugsAndChoresProjects(ctx context.Context) ([]aggregate.Project, error)
	TasksForProject(ctx context.Context, projectID int64) ([]aggregate.Task, error)
	MilestoneTasksForProject(ctx context.Context, projectID int64) ([]aggregate.Task, error)
	WorkspaceTasks(ctx context.Context) ([]aggregate.Task, error)
	Users(ctx context.Context) ([]aggregate.User, error)
	Me(ctx context.Context) (aggregate.User, error)
	IsBug(t aggregate.Task) bool
	IsChore(t aggregate.Task) bool
}

// Builder computes endpoint summaries from an aggregator and a member
// directory.
type Builder struct {
	agg       Aggregator
	directory Directory
}

// New creates a Builder. A nil directory is valid: enrichment is simply
// skipped for every member.
func New(agg Aggregator, directory Directory) (*Builder, error) {
	if agg == nil {
		return nil, ErrNilAggregator
	}
	return &Builder{agg: agg, directory: directory}, nil
}

// CurrentProjects summarizes the current team's projects.
func (b *Builder) CurrentProjects(ctx context.Context) ([]ProjectSummary, error) {
	projects, err := b.agg.CurrentProjects(ctx)
	if err != nil {
		return nil, err
	}
	return b.projectSummaries(ctx, projects)
}

// PlannedProjects summarizes the planned team's projects.
func (b *Builder) PlannedProjects(ctx context.Context) ([]ProjectSummary, error) {
	projects, err := b.agg.PlannedProjects(ctx)
	if err != nil {
		return nil, err
	}
	return b.projectSummaries(ctx, projects)
}

func (b *Builder) projectSummaries(ctx context.Context, projects []aggregate.Project) ([]ProjectSummary, error) {
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		tasks, err := b.agg.TasksForProject(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		milestones, err := b.agg.MilestoneTasksForProject(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		s := ProjectSummary{
			Name:       p.Name,
			Notes:      p.Notes,
			Milestones: make([]Milestone, 0, len(milestones)),
		}
		for _, t := range tasks {
			if t.Completed {
				s.ClosedTaskCount++
			} else {
				s.OpenTaskCount++
			}
		}
		for _, m := range milestones {
			s.Milestones = append(s.Milestones, Milestone{
				Name:     m.Name,
				Due:      m.DueOn,
				Notes:    m.Notes,
				Assignee: b.displayName(m.Assignee),
			})
		}
		// The project owner is whoever holds the first open milestone.
		for _, m := range milestones {
			if !m.Completed && m.Assignee != nil {
				s.Assignee = b.displayName(m.Assignee)
				break
			}
		}

		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Products summarizes bug and chore counts per product.
func (b *Builder) Products(ctx context.Context) ([]ProductSummary, error) {
	projects, err := b.agg.BugsAndChoresProjects(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ProductSummary, 0, len(projects))
	for _, p := range projects {
		tasks, err := b.agg.TasksForProject(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		s := ProductSummary{Name: p.Name}
		for _, t := range tasks {
			if b.agg.IsBug(t) {
				s.BugsCount++
			}
			if b.agg.IsChore(t) {
				s.ChoresCount++
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// TeamMembers summarizes per-member bug and chore load across the
// workspace. Members without a directory entry keep their remote name and
// get no photo; the join never fails.
func (b *Builder) TeamMembers(ctx context.Context) ([]MemberSummary, error) {
	users, err := b.agg.Users(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := b.agg.WorkspaceTasks(ctx)
	if err != nil {
		return nil, err
	}

	type load struct{ bugs, chores int }
	loads := make(map[int64]load, len(users))
	for _, t := range tasks {
		if t.Assignee == nil {
			continue
		}
		l := loads[t.Assignee.ID]
		if b.agg.IsBug(t) {
			l.bugs++
		}
		if b.agg.IsChore(t) {
			l.chores++
		}
		loads[t.Assignee.ID] = l
	}

	summaries := make([]MemberSummary, 0, len(users))
	for _, u := range users {
		s := MemberSummary{
			ID:          u.ID,
			Name:        u.Name,
			BugsCount:   loads[u.ID].bugs,
			ChoresCount: loads[u.ID].chores,
		}
		if entry, ok := b.directory[u.ID]; ok {
			if entry.Name != "" {
				s.Name = entry.Name
			}
			s.Photo = entry.Photo
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Me returns the connectivity probe payload.
func (b *Builder) Me(ctx context.Context) (MeSummary, error) {
	me, err := b.agg.Me(ctx)
	if err != nil {
		return MeSummary{}, err
	}
	return MeSummary{Name: me.Name}, nil
}

// displayName resolves an assignee ref against the directory, preferring
// the directory name, then the remote name.
func (b *Builder) displayName(ref *aggregate.Ref) string {
	if ref == nil {
		return ""
	}
	if entry, ok := b.directory[ref.ID]; ok && entry.Name != "" {
		return entry.Name
	}
	return ref.Name
}
