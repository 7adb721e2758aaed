package core

import (
	"context"

	"github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and the document store.
// Lookups return (nil, nil) when the record is absent; Update returns a NotFound AppError
// for a missing record; Delete of a missing record is not an error.

// ProfileRepository defines the profile store operations.
type ProfileRepository interface {
	// Create stores a profile keyed by uid and assigns the next display id.
	Create(ctx context.Context, uid string, req *model.CreateProfileRequest) (*model.Profile, error)
	// List returns every profile ordered by display id ascending.
	List(ctx context.Context) ([]*model.Profile, error)
	// ListByRole returns profiles with the role ordered by display id ascending.
	ListByRole(ctx context.Context, role auth.Role) ([]*model.Profile, error)
	GetByUID(ctx context.Context, uid string) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	Update(ctx context.Context, uid string, req model.UpdateProfileRequest) (*model.Profile, error)
	Delete(ctx context.Context, uid string) error
}

// TaskRepository defines the task store operations.
type TaskRepository interface {
	Create(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error)
	// List returns every task ordered by priority rank descending, then UpdatedAt descending.
	List(ctx context.Context) ([]*model.Task, error)
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, id string, req model.UpdateTaskRequest) (*model.Task, error)
	Delete(ctx context.Context, id string) error
	// ListByAssignee returns the assignee's tasks ordered by due date ascending, undated last.
	ListByAssignee(ctx context.Context, uid string) ([]*model.Task, error)
}

// AccountRepository persists the self-hosted identity accounts.
type AccountRepository interface {
	Create(ctx context.Context, acc *model.Account) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	// BumpTokenVersion invalidates every token issued for the account so far.
	BumpTokenVersion(ctx context.Context, id string) (int, error)
}
