package service

import (
	"context"

	"github.com/target/admin-console/internal/core"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
)

// TaskServiceOptions groups dependencies for TaskService.
type TaskServiceOptions struct {
	Repo     core.TaskRepository
	Profiles core.ProfileRepository
}

// TaskService manages the task board.
type TaskService struct {
	repo     core.TaskRepository
	profiles core.ProfileRepository
}

// NewTaskService constructs a new TaskService.
func NewTaskService(opts TaskServiceOptions) *TaskService {
	if opts.Repo == nil {
		panic("TaskRepository is required")
	}
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	return &TaskService{repo: opts.Repo, profiles: opts.Profiles}
}

// Board is the column view of every task plus the flat, priority-ordered list.
type Board struct {
	Columns model.TaskBoard `json:"columns"`
	Tasks   []*model.Task   `json:"tasks"`
}

// Create stores a new task created by creatorUID. When an assignee is given,
// their username is copied onto the task.
func (s *TaskService) Create(ctx context.Context, creatorUID string, req *model.CreateTaskRequest) (*model.Task, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	req.CreatedBy = creatorUID
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if req.AssigneeID != nil {
		name, err := s.assigneeName(ctx, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
		req.AssigneeName = &name
	}
	return s.repo.Create(ctx, req)
}

// Get returns the task with id or a NotFound error.
func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperrors.NotFoundf("task %s not found", id)
	}
	return t, nil
}

// List returns every task ordered by priority, then most recently updated.
func (s *TaskService) List(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	model.SortTasksByPriority(tasks)
	return tasks, nil
}

// Board groups every task into todo, in progress and done columns.
func (s *TaskService) Board(ctx context.Context) (*Board, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Board{Columns: model.BuildTaskBoard(tasks), Tasks: tasks}, nil
}

// ListByAssignee returns the tasks assigned to uid ordered by due date.
func (s *TaskService) ListByAssignee(ctx context.Context, uid string) ([]*model.Task, error) {
	if uid == "" {
		return nil, apperrors.ValidationField("uid", "uid is required")
	}
	return s.repo.ListByAssignee(ctx, uid)
}

// Update applies a partial update. Reassigning refreshes the denormalized assignee name.
func (s *TaskService) Update(ctx context.Context, id string, req model.UpdateTaskRequest) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if req.AssigneeID != nil && *req.AssigneeID != "" && req.AssigneeName == nil {
		name, err := s.assigneeName(ctx, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
		req.AssigneeName = &name
	}
	return s.repo.Update(ctx, id, req)
}

// Move changes only the status of a task.
func (s *TaskService) Move(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	return s.Update(ctx, id, model.UpdateTaskRequest{Status: &status})
}

// Delete removes the task. Deleting a missing task is not an error.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ValidationField("id", "id is required")
	}
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) assigneeName(ctx context.Context, uid string) (string, error) {
	p, err := s.profiles.GetByUID(ctx, uid)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", apperrors.ValidationField("assignee_id", "assignee not found")
	}
	return p.Username, nil
}
