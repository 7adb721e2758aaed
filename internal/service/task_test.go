package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/mocks"
	"go.uber.org/mock/gomock"
)

type taskFixture struct {
	svc      *TaskService
	tasks    *mocks.MockTaskRepository
	profiles *mocks.MockProfileRepository
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &taskFixture{
		tasks:    mocks.NewMockTaskRepository(ctrl),
		profiles: mocks.NewMockProfileRepository(ctrl),
	}
	f.svc = NewTaskService(TaskServiceOptions{Repo: f.tasks, Profiles: f.profiles})
	return f
}

func strptr(s string) *string { return &s }

func TestTaskService_Create_Defaults(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	f.tasks.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
			assert.Equal(t, "creator", req.CreatedBy)
			assert.Equal(t, model.TaskStatusTodo, req.Status)
			assert.Equal(t, model.TaskPriorityMedium, req.Priority)
			assert.Nil(t, req.AssigneeName)
			return &model.Task{ID: "t1", Title: req.Title, Status: req.Status, Priority: req.Priority, CreatedBy: req.CreatedBy}, nil
		})

	task, err := f.svc.Create(ctx, "creator", &model.CreateTaskRequest{Title: " Calibrate thrusters "})
	require.NoError(t, err)
	assert.Equal(t, "Calibrate thrusters", task.Title)
}

func TestTaskService_Create_DenormalizesAssignee(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	f.profiles.EXPECT().GetByUID(ctx, "u2").Return(&model.Profile{UID: "u2", Username: "Nova", Role: domainauth.RoleCore}, nil)
	f.tasks.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
			require.NotNil(t, req.AssigneeName)
			assert.Equal(t, "Nova", *req.AssigneeName)
			return &model.Task{ID: "t1", AssigneeID: req.AssigneeID, AssigneeName: req.AssigneeName}, nil
		})

	task, err := f.svc.Create(ctx, "creator", &model.CreateTaskRequest{Title: "Dock", AssigneeID: strptr("u2")})
	require.NoError(t, err)
	assert.Equal(t, "Nova", *task.AssigneeName)
}

func TestTaskService_Create_UnknownAssignee(t *testing.T) {
	f := newTaskFixture(t)
	f.profiles.EXPECT().GetByUID(gomock.Any(), "ghost").Return(nil, nil)

	_, err := f.svc.Create(context.Background(), "creator", &model.CreateTaskRequest{Title: "Dock", AssigneeID: strptr("ghost")})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "assignee_id", apperrors.GetField(err))
}

func TestTaskService_Create_Invalid(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), "creator", &model.CreateTaskRequest{Title: "   "})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Create(context.Background(), "", &model.CreateTaskRequest{Title: "Dock"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskService_Board(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	tasks := []*model.Task{
		{ID: "a", Status: model.TaskStatusInProgress, Priority: model.TaskPriorityHigh},
		{ID: "b", Status: model.TaskStatusBacklog, Priority: model.TaskPriorityMedium},
		{ID: "c", Status: model.TaskStatusTodo, Priority: model.TaskPriorityLow},
		{ID: "d", Status: model.TaskStatusDone, Priority: model.TaskPriorityLow},
	}
	f.tasks.EXPECT().List(ctx).Return(tasks, nil)

	board, err := f.svc.Board(ctx)
	require.NoError(t, err)
	assert.Len(t, board.Columns.Todo, 2)
	assert.Len(t, board.Columns.InProgress, 1)
	assert.Len(t, board.Columns.Done, 1)
	assert.Equal(t, tasks, board.Tasks)
}

func TestTaskService_List_PriorityBeforeRecency(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	t1 := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	a := &model.Task{ID: "A", Status: model.TaskStatusTodo, Priority: model.TaskPriorityHigh, CreatedAt: t1, UpdatedAt: t1}
	b := &model.Task{ID: "B", Status: model.TaskStatusTodo, Priority: model.TaskPriorityMedium, CreatedAt: t1.Add(time.Second), UpdatedAt: t1.Add(time.Second)}

	// The store hands tasks back newest update first.
	f.tasks.EXPECT().List(ctx).DoAndReturn(func(context.Context) ([]*model.Task, error) {
		out := []*model.Task{a, b}
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
		return out, nil
	}).Times(2)
	f.tasks.EXPECT().Update(ctx, "B", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req model.UpdateTaskRequest) (*model.Task, error) {
			b.Status = *req.Status
			b.UpdatedAt = t1.Add(time.Hour)
			return b, nil
		})

	ids := func(tasks []*model.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	tasks, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(tasks))

	_, err = f.svc.Move(ctx, "B", model.TaskStatusDone)
	require.NoError(t, err)

	board, err := f.svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(board.Tasks))
	assert.Equal(t, []string{"B"}, ids(board.Columns.Done))
}

func TestTaskService_Move(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	f.tasks.EXPECT().Update(ctx, "t1", gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, req model.UpdateTaskRequest) (*model.Task, error) {
			require.NotNil(t, req.Status)
			return &model.Task{ID: id, Status: *req.Status}, nil
		})

	task, err := f.svc.Move(ctx, "t1", model.TaskStatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, task.Status)

	_, err = f.svc.Move(ctx, "t1", model.TaskStatus("archived"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskService_Update_Reassign(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	f.profiles.EXPECT().GetByUID(ctx, "u3").Return(&model.Profile{UID: "u3", Username: "Orion"}, nil)
	f.tasks.EXPECT().Update(ctx, "t1", gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, req model.UpdateTaskRequest) (*model.Task, error) {
			assert.Equal(t, "Orion", *req.AssigneeName)
			return &model.Task{ID: id, AssigneeID: req.AssigneeID, AssigneeName: req.AssigneeName}, nil
		})

	_, err := f.svc.Update(ctx, "t1", model.UpdateTaskRequest{AssigneeID: strptr("u3")})
	require.NoError(t, err)
}

func TestTaskService_Update_Unassign(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	f.tasks.EXPECT().Update(ctx, "t1", gomock.Any()).Return(&model.Task{ID: "t1"}, nil)

	_, err := f.svc.Update(ctx, "t1", model.UpdateTaskRequest{AssigneeID: strptr("")})
	require.NoError(t, err)
}

func TestTaskService_ListByAssignee(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	f.tasks.EXPECT().ListByAssignee(ctx, "u2").Return([]*model.Task{{ID: "t1"}}, nil)

	got, err := f.svc.ListByAssignee(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.ListByAssignee(ctx, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskService_GetAndDelete(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	f.tasks.EXPECT().GetByID(ctx, "gone").Return(nil, nil)
	_, err := f.svc.Get(ctx, "gone")
	assert.True(t, apperrors.IsNotFound(err))

	f.tasks.EXPECT().Delete(ctx, "gone").Return(nil)
	assert.NoError(t, f.svc.Delete(ctx, "gone"))
}
