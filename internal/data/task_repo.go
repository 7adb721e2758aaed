package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/target/admin-console/internal/data/pgxutil"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
)

const taskColumns = `id::text AS id, title, description, status, priority, assignee_id, assignee_name,
	assignee_photo, due_date, tags, created_by, created_at, updated_at`

// SQL query constants for static task queries. Ordering by priority uses the generated
// priority_rank column so that high > medium > low regardless of spelling.
const (
	taskGetByIDQuery = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	taskListQuery    = `SELECT ` + taskColumns + ` FROM tasks ORDER BY priority_rank DESC, updated_at DESC`
	taskByAssignee   = `SELECT ` + taskColumns + ` FROM tasks WHERE assignee_id = $1 ORDER BY due_date ASC NULLS LAST, created_at ASC`
	taskInsertQuery  = `
		INSERT INTO tasks (
			title, description, status, priority, assignee_id, assignee_name, assignee_photo,
			due_date, tags, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + taskColumns
)

// TaskRepo stores tasks in PostgreSQL.
type TaskRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTaskRepo creates a new TaskRepo with real time provider.
func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewTaskRepoWithTimeProvider creates a new TaskRepo with a custom time provider (useful for tests).
func NewTaskRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *TaskRepo {
	return &TaskRepo{DB: db, timeProvider: tp}
}

// Create inserts a task and stamps created_at/updated_at.
func (r *TaskRepo) Create(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
	if req == nil {
		return nil, errNilRequest
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}
	now := r.timeProvider.Now().UTC()
	t, err := pgxutil.QueryOne[model.Task](ctx, r.DB, taskInsertQuery,
		req.Title, req.Description, req.Status, req.Priority, req.AssigneeID, req.AssigneeName,
		req.AssigneePhoto, req.DueDate, req.Tags, req.CreatedBy, now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return t, nil
}

// List returns every task ordered by priority rank then most recently updated.
func (r *TaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	out, err := pgxutil.QueryAll[model.Task](ctx, r.DB, taskListQuery)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID returns the task, or nil when absent or when id is not a valid task id.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return absentOrErr(pgxutil.QueryOne[model.Task](ctx, r.DB, taskGetByIDQuery, id))
}

// ListByAssignee returns tasks assigned to uid, soonest due date first; undated tasks last.
func (r *TaskRepo) ListByAssignee(ctx context.Context, uid string) ([]*model.Task, error) {
	out, err := pgxutil.QueryAll[model.Task](ctx, r.DB, taskByAssignee, uid)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Update applies a partial update and stamps updated_at.
func (r *TaskRepo) Update(ctx context.Context, id string, req model.UpdateTaskRequest) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("task not found")
	}

	setClause, args := r.buildUpdateClause(req)
	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d RETURNING %s", setClause, len(args), taskColumns)
	t, err := pgxutil.QueryOne[model.Task](ctx, r.DB, query, args...)
	if err != nil {
		return nil, notFoundOr(err, "task not found")
	}
	return t, nil
}

// buildUpdateClause builds the SQL SET clause and args for a partial task update.
func (r *TaskRepo) buildUpdateClause(req model.UpdateTaskRequest) (string, []any) {
	setParts := make([]string, 0, 10)
	args := make([]any, 0, 11)
	add := func(col string, v any) {
		args = append(args, v)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if req.Priority != nil {
		add("priority", *req.Priority)
	}
	unassign := req.AssigneeID != nil && *req.AssigneeID == ""
	switch {
	case unassign:
		setParts = append(setParts, "assignee_id = NULL", "assignee_name = NULL", "assignee_photo = NULL")
	case req.AssigneeID != nil:
		add("assignee_id", *req.AssigneeID)
	}
	if req.AssigneeName != nil && !unassign {
		add("assignee_name", *req.AssigneeName)
	}
	if req.AssigneePhoto != nil && !unassign {
		add("assignee_photo", *req.AssigneePhoto)
	}
	if req.DueDate != nil {
		add("due_date", req.DueDate.UTC())
	}
	if req.Tags != nil {
		add("tags", *req.Tags)
	}
	add("updated_at", r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// Delete removes the task. Deleting a missing task is not an error.
func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := pgxutil.Exec(ctx, r.DB, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
