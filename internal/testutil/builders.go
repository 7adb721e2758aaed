// Package testutil provides testing utilities and helpers for the admin console.
package testutil

import (
	"time"

	"github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
)

// TaskRequestBuilder provides a fluent interface for building CreateTaskRequest objects for testing.
type TaskRequestBuilder struct {
	req *model.CreateTaskRequest
}

// NewTaskRequest creates a new TaskRequestBuilder with sensible defaults.
func NewTaskRequest() *TaskRequestBuilder {
	return &TaskRequestBuilder{
		req: &model.CreateTaskRequest{
			Title:     "Calibrate star tracker",
			Status:    model.TaskStatusTodo,
			Priority:  model.TaskPriorityMedium,
			CreatedBy: "uid-admin",
		},
	}
}

// WithTitle sets the task title.
func (b *TaskRequestBuilder) WithTitle(title string) *TaskRequestBuilder {
	b.req.Title = title
	return b
}

// WithPriority sets the task priority.
func (b *TaskRequestBuilder) WithPriority(p model.TaskPriority) *TaskRequestBuilder {
	b.req.Priority = p
	return b
}

// WithStatus sets the task status.
func (b *TaskRequestBuilder) WithStatus(s model.TaskStatus) *TaskRequestBuilder {
	b.req.Status = s
	return b
}

// WithAssignee sets the assignee id.
func (b *TaskRequestBuilder) WithAssignee(uid string) *TaskRequestBuilder {
	b.req.AssigneeID = &uid
	return b
}

// WithDueDate sets the due date.
func (b *TaskRequestBuilder) WithDueDate(d time.Time) *TaskRequestBuilder {
	b.req.DueDate = &d
	return b
}

// WithCreatedBy sets the creator uid.
func (b *TaskRequestBuilder) WithCreatedBy(uid string) *TaskRequestBuilder {
	b.req.CreatedBy = uid
	return b
}

// Build returns a copy of the request.
func (b *TaskRequestBuilder) Build() *model.CreateTaskRequest {
	out := *b.req
	return &out
}

// NewProfileRequest returns a CreateProfileRequest for the given identity.
func NewProfileRequest(username, email string, role auth.Role) *model.CreateProfileRequest {
	return &model.CreateProfileRequest{Username: username, Email: email, Role: role}
}
