// Package mocks provides gomock implementations of the store and identity ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	profiles := mocks.NewMockProfileRepository(ctrl)
//	profiles.EXPECT().GetByEmail(gomock.Any(), "nova@spaceborn.io").Return(profile, nil)
package mocks

// Create, List, ListByRole, GetByUID, GetByEmail, Update, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_repository_mock.go github.com/target/admin-console/internal/core ProfileRepository

// Create, List, GetByID, Update, Delete, ListByAssignee
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=task_repository_mock.go github.com/target/admin-console/internal/core TaskRepository

// Create, GetByEmail, GetByID, BumpTokenVersion
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=account_repository_mock.go github.com/target/admin-console/internal/core AccountRepository

// SignIn, Register, SignOut, Refresh
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_provider_mock.go github.com/target/admin-console/internal/ports IdentityProvider

// Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/admin-console/internal/ports SessionStore
