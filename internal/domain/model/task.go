//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTaskTitleLen = 200
	maxTaskTags     = 20
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusBacklog    TaskStatus = "backlog"
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCanceled   TaskStatus = "canceled"
)

// Valid reports whether the status is supported.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusBacklog, TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// ParseTaskStatus normalizes a status string and reports whether it is supported.
func ParseTaskStatus(v string) (TaskStatus, bool) {
	s := TaskStatus(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

// TaskPriority is a task's urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is supported.
func (p TaskPriority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities by urgency (high=3, medium=2, low=1, unknown=0).
// Stores sort on the rank so that "high" precedes "medium" precedes "low".
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityHigh:
		return 3
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 1
	default:
		return 0
	}
}

// ParseTaskPriority normalizes a priority string and reports whether it is supported.
func ParseTaskPriority(v string) (TaskPriority, bool) {
	p := TaskPriority(strings.ToLower(strings.TrimSpace(v)))
	return p, p.Valid()
}

// Task is a unit of team work.
type Task struct {
	ID            string       `json:"id"                       db:"id"             bson:"_id"`
	Title         string       `json:"title"                    db:"title"          bson:"title"`
	Description   string       `json:"description"              db:"description"    bson:"description"`
	Status        TaskStatus   `json:"status"                   db:"status"         bson:"status"`
	Priority      TaskPriority `json:"priority"                 db:"priority"       bson:"priority"`
	AssigneeID    *string      `json:"assignee_id,omitempty"    db:"assignee_id"    bson:"assignee_id,omitempty"`
	AssigneeName  *string      `json:"assignee_name,omitempty"  db:"assignee_name"  bson:"assignee_name,omitempty"`
	AssigneePhoto *string      `json:"assignee_photo,omitempty" db:"assignee_photo" bson:"assignee_photo,omitempty"`
	DueDate       *time.Time   `json:"due_date,omitempty"       db:"due_date"       bson:"due_date,omitempty"`
	Tags          []string     `json:"tags"                     db:"tags"           bson:"tags"`
	CreatedBy     string       `json:"created_by"               db:"created_by"     bson:"created_by"`
	CreatedAt     time.Time    `json:"created_at"               db:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"               db:"updated_at"     bson:"updated_at"`
}

// CreateTaskRequest represents parameters to create a Task.
type CreateTaskRequest struct {
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Status        TaskStatus   `json:"status,omitempty"`
	Priority      TaskPriority `json:"priority,omitempty"`
	AssigneeID    *string      `json:"assignee_id,omitempty"`
	AssigneeName  *string      `json:"assignee_name,omitempty"`
	AssigneePhoto *string      `json:"assignee_photo,omitempty"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	CreatedBy     string       `json:"-"`
}

// Validate normalizes and validates CreateTaskRequest.
// Status defaults to todo and priority to medium.
func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Title) > maxTaskTitleLen {
		return errors.New("title cannot exceed 200 characters")
	}
	if r.Status == "" {
		r.Status = TaskStatusTodo
	}
	if !r.Status.Valid() {
		return errors.New("invalid status")
	}
	if r.Priority == "" {
		r.Priority = TaskPriorityMedium
	}
	if !r.Priority.Valid() {
		return errors.New("invalid priority")
	}
	if strings.TrimSpace(r.CreatedBy) == "" {
		return errors.New("created_by is required")
	}
	r.AssigneeID = trimOptional(r.AssigneeID)
	tags, err := normalizeTags(r.Tags)
	if err != nil {
		return err
	}
	r.Tags = tags
	return nil
}

// UpdateTaskRequest represents a partial task update. An empty AssigneeID unassigns the task.
type UpdateTaskRequest struct {
	Title         *string       `json:"title,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Status        *TaskStatus   `json:"status,omitempty"`
	Priority      *TaskPriority `json:"priority,omitempty"`
	AssigneeID    *string       `json:"assignee_id,omitempty"`
	AssigneeName  *string       `json:"assignee_name,omitempty"`
	AssigneePhoto *string       `json:"assignee_photo,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Tags          *[]string     `json:"tags,omitempty"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateTaskRequest) HasUpdates() bool {
	return r.Title != nil || r.Description != nil || r.Status != nil || r.Priority != nil ||
		r.AssigneeID != nil || r.AssigneeName != nil || r.AssigneePhoto != nil ||
		r.DueDate != nil || r.Tags != nil
}

// Validate validates UpdateTaskRequest, ensuring at least one field is set and values are sane.
func (r *UpdateTaskRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			return errors.New("title cannot be empty")
		}
		if utf8.RuneCountInString(t) > maxTaskTitleLen {
			return errors.New("title cannot exceed 200 characters")
		}
		*r.Title = t
	}
	if r.Status != nil {
		s, ok := ParseTaskStatus(string(*r.Status))
		if !ok {
			return errors.New("invalid status")
		}
		*r.Status = s
	}
	if r.Priority != nil {
		p, ok := ParseTaskPriority(string(*r.Priority))
		if !ok {
			return errors.New("invalid priority")
		}
		*r.Priority = p
	}
	if r.AssigneeID != nil {
		*r.AssigneeID = strings.TrimSpace(*r.AssigneeID)
	}
	if r.Tags != nil {
		tags, err := normalizeTags(*r.Tags)
		if err != nil {
			return err
		}
		*r.Tags = tags
	}
	return nil
}

// Apply copies the set fields of r onto t. It does not touch timestamps.
func (r *UpdateTaskRequest) Apply(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.AssigneeID != nil && *r.AssigneeID == "" {
		t.AssigneeID, t.AssigneeName, t.AssigneePhoto = nil, nil, nil
	} else {
		if r.AssigneeID != nil {
			id := *r.AssigneeID
			t.AssigneeID = &id
		}
		if r.AssigneeName != nil {
			t.AssigneeName = r.AssigneeName
		}
		if r.AssigneePhoto != nil {
			t.AssigneePhoto = r.AssigneePhoto
		}
	}
	if r.DueDate != nil {
		d := *r.DueDate
		t.DueDate = &d
	}
	if r.Tags != nil {
		t.Tags = append([]string(nil), (*r.Tags)...)
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTaskTags {
		return nil, errors.New("a task cannot have more than 20 tags")
	}
	return out, nil
}

// SortTasksByPriority orders tasks by priority rank descending, then UpdatedAt descending.
func SortTasksByPriority(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
}

// SortTasksByDueDate orders tasks by due date ascending; tasks without a due date go last.
func SortTasksByDueDate(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
}

// TaskBoard groups tasks into the console's board columns.
type TaskBoard struct {
	Todo       []*Task `json:"todo"`
	InProgress []*Task `json:"in_progress"`
	Done       []*Task `json:"done"`
}

// BuildTaskBoard splits tasks into columns, keeping their input order.
// Backlog tasks share the todo column; canceled tasks are not shown.
func BuildTaskBoard(tasks []*Task) TaskBoard {
	b := TaskBoard{Todo: []*Task{}, InProgress: []*Task{}, Done: []*Task{}}
	for _, t := range tasks {
		switch t.Status {
		case TaskStatusTodo, TaskStatusBacklog:
			b.Todo = append(b.Todo, t)
		case TaskStatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case TaskStatusDone:
			b.Done = append(b.Done, t)
		}
	}
	return b
}
