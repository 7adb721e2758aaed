package devseed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/admin-console/internal/domain/model"
	"github.com/target/admin-console/internal/mocks"
	mocksauth "github.com/target/admin-console/internal/mocks/auth"
	"github.com/target/admin-console/internal/service"
	"go.uber.org/mock/gomock"
)

type seedFixture struct {
	svcs     Services
	profiles *mocks.MockProfileRepository
	tasks    *mocks.MockTaskRepository
	idp      *mocksauth.MockIdentityProvider
}

func newSeedFixture(t *testing.T) *seedFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &seedFixture{
		profiles: mocks.NewMockProfileRepository(ctrl),
		tasks:    mocks.NewMockTaskRepository(ctrl),
		idp:      mocksauth.NewMockIdentityProvider(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svcs = Services{
		Profiles: f.profiles,
		Team:     service.NewProfileService(service.ProfileServiceOptions{Repo: f.profiles, Provider: f.idp}),
		Tasks:    service.NewTaskService(service.TaskServiceOptions{Repo: f.tasks, Profiles: f.profiles}),
		Setup:    service.NewSetupService(service.SetupServiceOptions{Provider: f.idp, Profiles: f.profiles, Logger: logger}),
	}
	return f
}

var testAdmin = Admin{Email: "admin@spaceborn.io", Username: "Admin", Password: "Admin@123456"}

func TestRun_SeedsEmptyStores(t *testing.T) {
	f := newSeedFixture(t)
	created := map[string]*model.Profile{}

	f.profiles.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.profiles.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, uid string, req *model.CreateProfileRequest) (*model.Profile, error) {
			p := &model.Profile{UID: uid, Username: req.Username, Email: req.Email, Role: req.Role}
			created[uid] = p
			return p, nil
		}).Times(1 + len(defaultTeam()))
	f.profiles.EXPECT().GetByUID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, uid string) (*model.Profile, error) { return created[uid], nil }).AnyTimes()

	var titles []string
	f.tasks.EXPECT().List(gomock.Any()).Return(nil, nil)
	f.tasks.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
			titles = append(titles, req.Title)
			if req.AssigneeID != nil {
				require.NotNil(t, req.AssigneeName)
				assert.Equal(t, created[*req.AssigneeID].Username, *req.AssigneeName)
			}
			return &model.Task{ID: "t-" + req.Title, Title: req.Title}, nil
		}).Times(len(defaultTasks()))

	require.NoError(t, Run(context.Background(), f.svcs, testAdmin, nil))
	assert.Len(t, titles, len(defaultTasks()))
	assert.Equal(t, 1+len(defaultTeam()), f.idp.CallCount("Register"))
}

func TestRun_IsIdempotent(t *testing.T) {
	f := newSeedFixture(t)

	f.profiles.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, email string) (*model.Profile, error) {
			return &model.Profile{UID: "uid-" + email, Email: email}, nil
		}).AnyTimes()
	f.tasks.EXPECT().List(gomock.Any()).Return([]*model.Task{{ID: "existing"}}, nil)

	require.NoError(t, Run(context.Background(), f.svcs, testAdmin, nil))
	// Only the bootstrap admin touches the identity provider.
	assert.Equal(t, 1, f.idp.CallCount("Register"))
}

func TestRun_RequiresAdminPassword(t *testing.T) {
	f := newSeedFixture(t)

	err := Run(context.Background(), f.svcs, Admin{Email: "admin@spaceborn.io"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap admin")
}
