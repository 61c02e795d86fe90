package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)
	return NewService(NewLocalUserStore(), zaptest.NewLogger(t), "admin", time.Hour, opts...)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.EnsureDefaultAdmin(ctx, "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureDefaultAdmin(ctx, "other")
	require.NoError(t, err)
	assert.False(t, created, "only created on first run")

	role, err := svc.Verify(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.AddUser(ctx, "ana", "secret", "cashier")
	require.NoError(t, err)

	role, err := svc.Verify(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, role)

	_, err = svc.Verify(ctx, "ana", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Verify(ctx, "nobody", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAddUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	user, err := svc.AddUser(ctx, "ana", "secret", "cashier")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", user.PasswordHash)

	_, err = svc.AddUser(ctx, "ana", "other", "admin")
	require.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.AddUser(ctx, "bob", "secret", "manager")
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.AddUser(ctx, " ", "secret", "cashier")
	require.ErrorIs(t, err, ErrInvalidInput)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.EnsureDefaultAdmin(ctx, "admin123")
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, "ana", "secret", "cashier")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "ana", "secret")
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteUser(ctx, "admin"), ErrProtectedUser)
	require.NoError(t, svc.DeleteUser(ctx, "ana"))
	require.ErrorIs(t, svc.DeleteUser(ctx, "ana"), ErrUserNotFound)

	_, err = svc.Authenticate(session.Token)
	require.ErrorIs(t, err, ErrInvalidSession, "sessions of deleted users are revoked")
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return now }))
	_, err := svc.AddUser(ctx, "ana", "secret", "cashier")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.Login(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, session.Role)
	assert.NotEmpty(t, session.Token)

	got, err := svc.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)

	now = now.Add(2 * time.Hour)
	_, err = svc.Authenticate(session.Token)
	require.ErrorIs(t, err, ErrInvalidSession)

	now = now.Add(-2 * time.Hour)
	session, err = svc.Login(ctx, "ana", "secret")
	require.NoError(t, err)
	svc.Logout(session.Token)
	_, err = svc.Authenticate(session.Token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessions_ExpiredAreSweptOnLogin(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return now }))
	_, err := svc.AddUser(ctx, "ana", "secret", "cashier")
	require.NoError(t, err)

	for range 3 {
		_, err := svc.Login(ctx, "ana", "secret")
		require.NoError(t, err)
	}
	assert.Len(t, svc.sessions.m, 3)

	now = now.Add(2 * time.Hour)
	fresh, err := svc.Login(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.Len(t, svc.sessions.m, 1, "abandoned sessions are dropped")
	assert.Contains(t, svc.sessions.m, fresh.Token)
}

func TestRoleAllows(t *testing.T) {
	assert.True(t, RoleAdmin.Allows(RoleAdmin))
	assert.True(t, RoleAdmin.Allows(RoleCashier))
	assert.True(t, RoleCashier.Allows(RoleCashier))
	assert.False(t, RoleCashier.Allows(RoleAdmin))

	_, err := ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
