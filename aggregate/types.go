package aggregate

// Ref is a shallow reference to a remote entity, as returned by the
// collection endpoints.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Project is the full remote project record.
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Notes    string `json:"notes"`
	Archived bool   `json:"archived"`
	Team     Ref    `json:"team"`
}

// Task is the full remote task record. Assignee is nil for unassigned tasks.
type Task struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
	DueOn     string `json:"due_on"`
	Assignee  *Ref   `json:"assignee"`
	Tags      []Ref  `json:"tags"`
}

// User is a workspace member record.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HasTag reports whether the task carries the given tag id. A task without
// tags carries nothing.
func (t Task) HasTag(tagID int64) bool {
	for _, tag := range t.Tags {
		if tag.ID == tagID {
			return true
		}
	}
	return false
}
