package data

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/testutil"
)

func TestProfileRepo_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	tp := NewFixedTimeProvider(testutil.TestTime())
	repo := NewProfileRepoWithTimeProvider(db, tp)

	admin, err := repo.Create(ctx, "uid-admin", testutil.NewProfileRequest("Admin", "Admin@Spaceborn.io", auth.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, "admin@spaceborn.io", admin.Email)
	assert.Equal(t, testutil.TestTime(), admin.CreatedAt.UTC())

	intern, err := repo.Create(ctx, "uid-intern", testutil.NewProfileRequest("Intern", "intern@spaceborn.io", auth.RoleIntern))
	require.NoError(t, err)
	assert.Greater(t, intern.DisplayID, admin.DisplayID)

	// lookups
	got, err := repo.GetByEmail(ctx, "ADMIN@spaceborn.io")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "uid-admin", got.UID)

	missing, err := repo.GetByEmail(ctx, "nobody@spaceborn.io")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.GetByUID(ctx, "uid-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// ordering
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "uid-admin", all[0].UID)

	interns, err := repo.ListByRole(ctx, auth.RoleIntern)
	require.NoError(t, err)
	require.Len(t, interns, 1)
	assert.Equal(t, "uid-intern", interns[0].UID)

	// update stamps updated_at
	tp.AddTime(time.Hour)
	role := auth.RoleEmployee
	updated, err := repo.Update(ctx, "uid-intern", model.UpdateProfileRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleEmployee, updated.Role)
	assert.Equal(t, testutil.TestTime().Add(time.Hour), updated.UpdatedAt.UTC())
	assert.Equal(t, intern.CreatedAt, updated.CreatedAt)

	_, err = repo.Update(ctx, "uid-missing", model.UpdateProfileRequest{Role: &role})
	assert.True(t, apperrors.IsNotFound(err))

	// duplicate uid
	_, err = repo.Create(ctx, "uid-admin", testutil.NewProfileRequest("Again", "again@spaceborn.io", auth.RoleCore))
	assert.True(t, apperrors.IsConflict(err))

	// delete is idempotent
	require.NoError(t, repo.Delete(ctx, "uid-intern"))
	require.NoError(t, repo.Delete(ctx, "uid-intern"))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProfileRepo_ConcurrentCreateAssignsDistinctDisplayIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewProfileRepo(db)

	const n = 8
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := repo.Create(ctx, "uid-"+string(rune('a'+i)), testutil.NewProfileRequest("user", "u@spaceborn.io", auth.RoleIntern))
			if assert.NoError(t, err) {
				ids[i] = p.DisplayID
			}
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate display id %d", id)
		seen[id] = true
	}
}
