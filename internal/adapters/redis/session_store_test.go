package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/ports"
	"github.com/target/admin-console/internal/testutil"
)

func testSession(id string, ttl time.Duration) domainauth.Session {
	return domainauth.Session{
		ID:        id,
		Token:     "token-" + id,
		UserID:    "uid-123",
		DisplayID: 7,
		Username:  "Nova",
		Email:     "nova@spaceborn.io",
		Role:      domainauth.RoleCore,
		ExpiresAt: time.Now().Add(ttl),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()

	sess := testSession("save-get", 30*time.Minute)
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "save-get")
	require.NoError(t, err)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.DisplayID, got.DisplayID)
	assert.Equal(t, sess.Role, got.Role)
	assert.True(t, got.HasProfile())
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)

	ttl := client.TTL(ctx, "test:session:save-get").Val()
	assert.Greater(t, ttl, 29*time.Minute)
}

func TestSessionStore_GetMissing(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()

	_, err := store.Get(ctx, "does-not-exist")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)

	_, err = store.Get(ctx, "")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("delete-me", time.Minute)))
	require.NoError(t, store.Delete(ctx, "delete-me"))
	require.NoError(t, store.Delete(ctx, "delete-me"))

	_, err := store.Get(ctx, "delete-me")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("short", 100*time.Millisecond)))
	time.Sleep(200 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_SaveRejectsInvalid(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	err := store.Save(ctx, testSession("", time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")

	err = store.Save(ctx, testSession("expired", -time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is expired")
}

func TestNewSessionStoreWithPrefix_DefaultsEmptyPrefix(t *testing.T) {
	store := NewSessionStoreWithPrefix(nil, "")
	assert.Equal(t, DefaultKeyPrefix+"abc", store.key("abc"))
}
