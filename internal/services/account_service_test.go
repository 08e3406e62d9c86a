package services

import (
	"context"
	"testing"
	"time"

	"tradejournal/internal/core"
	applog "tradejournal/internal/log"
	"tradejournal/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testLogger() *applog.Logger {
	return applog.New(applog.DefaultConfig())
}

func TestAccountRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newTestRepo(t), testLogger(), time.Hour)

	user, err := svc.Register(ctx, core.Registration{
		Email:    "trader@example.com",
		Username: "trader",
		Password: "hunter2!",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, int64(0), user.ActiveBalance.Cents)
	assert.NotEqual(t, "hunter2!", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "trader", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "trader", "wrong")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.Authenticate(ctx, "nobody", "hunter2!")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAccountRegisterConflicts(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newTestRepo(t), testLogger(), time.Hour)

	_, err := svc.Register(ctx, core.Registration{
		Email: "a@example.com", Username: "alpha", Password: "pw",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, core.Registration{
		Email: "a@example.com", Username: "beta", Password: "pw",
	})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.Register(ctx, core.Registration{
		Email: "b@example.com", Username: "alpha", Password: "pw",
	})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.Register(ctx, core.Registration{
		Email: "", Username: "gamma", Password: "pw",
	})
	assert.ErrorIs(t, err, core.ErrEmptyEmail)
}

func TestAccountSessions(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newTestRepo(t), testLogger(), time.Hour)

	user, err := svc.Register(ctx, core.Registration{
		Email: "s@example.com", Username: "sess", Password: "pw",
	})
	require.NoError(t, err)

	token, err := svc.StartSession(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := svc.ResolveSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	require.NoError(t, svc.EndSession(ctx, token))
	_, err = svc.ResolveSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
