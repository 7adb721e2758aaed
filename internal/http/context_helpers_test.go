package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/admin-console/internal/domain/auth"
)

func TestGetUserSessionFromContext(t *testing.T) {
	// No session
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}
	assert.Empty(t, currentUID(context.Background()))

	sess := &domainauth.Session{ID: "abc", UserID: "uid-1", Role: domainauth.RoleCore}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
	assert.Equal(t, "uid-1", currentUID(ctx))

	assert.Equal(t, context.Background(), SetSessionInContext(context.Background(), nil))
}
