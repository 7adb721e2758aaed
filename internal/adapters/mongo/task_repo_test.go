package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/testutil"
)

func TestBuildTaskUpdate(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	prio := model.TaskPriorityHigh
	title := "Dock"
	update := buildTaskUpdate(model.UpdateTaskRequest{Title: &title, Priority: &prio}, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, now, set["updated_at"])
	assert.Equal(t, "Dock", set["title"])
	assert.Equal(t, 3, set["priority_rank"])
	assert.NotContains(t, update, "$unset")

	empty := ""
	name := "ignored"
	update = buildTaskUpdate(model.UpdateTaskRequest{AssigneeID: &empty, AssigneeName: &name}, now)
	unset, ok := update["$unset"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, unset, "assignee_id")
	assert.Contains(t, unset, "assignee_name")
	assert.NotContains(t, update["$set"].(bson.M), "assignee_name")
}

func TestMapErr(t *testing.T) {
	assert.Nil(t, mapErr(nil, "x"))
	assert.True(t, apperrors.IsNotFound(mapErr(mongo.ErrNoDocuments, "task not found")))
	assert.True(t, apperrors.IsTimeout(mapErr(context.DeadlineExceeded, "x")))
	assert.True(t, apperrors.IsStore(mapErr(errors.New("server selection timeout"), "x")))
}

func setupTestMongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Connect(ctx, uri)
	if err != nil {
		t.Skip("Test mongo not available:", err)
	}
	db := client.Database("console_test")
	require.NoError(t, db.Drop(ctx))
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestMongoStores_Integration(t *testing.T) {
	db := setupTestMongo(t)
	ctx := context.Background()

	profiles := NewProfileRepo(db)
	a, err := profiles.Create(ctx, "uid-a", testutil.NewProfileRequest("Ada", "Ada@spaceborn.io", auth.RoleAdmin))
	require.NoError(t, err)
	b, err := profiles.Create(ctx, "uid-b", testutil.NewProfileRequest("Bo", "bo@spaceborn.io", auth.RoleIntern))
	require.NoError(t, err)
	assert.Equal(t, a.DisplayID+1, b.DisplayID)

	got, err := profiles.GetByEmail(ctx, "ADA@spaceborn.io")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "uid-a", got.UID)

	none, err := profiles.GetByUID(ctx, "uid-none")
	require.NoError(t, err)
	assert.Nil(t, none)

	role := auth.RoleCore
	_, err = profiles.Update(ctx, "uid-none", model.UpdateProfileRequest{Role: &role})
	assert.True(t, apperrors.IsNotFound(err))
	require.NoError(t, profiles.Delete(ctx, "uid-none"))

	tasks := NewTaskRepo(db)
	_, err = tasks.Create(ctx, testutil.NewTaskRequest().WithTitle("low").WithPriority(model.TaskPriorityLow).Build())
	require.NoError(t, err)
	_, err = tasks.Create(ctx, testutil.NewTaskRequest().WithTitle("high").WithPriority(model.TaskPriorityHigh).Build())
	require.NoError(t, err)
	_, err = tasks.Create(ctx, testutil.NewTaskRequest().WithTitle("medium").WithPriority(model.TaskPriorityMedium).Build())
	require.NoError(t, err)

	list, err := tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"high", "medium", "low"}, []string{list[0].Title, list[1].Title, list[2].Title})
}

func TestTaskRepo_ListKeepsPriorityOrderAfterMove(t *testing.T) {
	db := setupTestMongo(t)
	ctx := context.Background()
	clock := testutil.TestTime()
	tasks := NewTaskRepo(db)
	tasks.now = func() time.Time { return clock }

	a, err := tasks.Create(ctx, testutil.NewTaskRequest().WithTitle("A").WithPriority(model.TaskPriorityHigh).Build())
	require.NoError(t, err)
	clock = clock.Add(time.Second)
	b, err := tasks.Create(ctx, testutil.NewTaskRequest().WithTitle("B").WithPriority(model.TaskPriorityMedium).Build())
	require.NoError(t, err)

	listIDs := func() []string {
		list, err := tasks.List(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(list))
		for _, task := range list {
			ids = append(ids, task.ID)
		}
		return ids
	}
	assert.Equal(t, []string{a.ID, b.ID}, listIDs())

	clock = clock.Add(time.Minute)
	done := model.TaskStatusDone
	moved, err := tasks.Update(ctx, b.ID, model.UpdateTaskRequest{Status: &done})
	require.NoError(t, err)
	require.True(t, moved.UpdatedAt.After(a.UpdatedAt))

	assert.Equal(t, []string{a.ID, b.ID}, listIDs())
}
