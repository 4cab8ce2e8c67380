package service

import (
	"testing"
	"time"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository/memstore"
	"go-ecom-api/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (AuthService, *memstore.Store, *jwt.Manager) {
	t.Helper()
	store := memstore.New()
	tokens := jwt.NewManager("test-secret", time.Hour)
	return NewAuthService(store.Users(), tokens), store, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, tokens := newAuthService(t)
	ctx := t.Context()

	user, err := svc.Register(ctx, &RegisterRequest{Name: "Ada", Email: " Ada@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)

	_, err = svc.Register(ctx, &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	resp, err := svc.Login(ctx, &LoginRequest{Email: "ADA@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, policy.Actions(model.RoleUser), resp.Privileges)

	claims, err := tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc, store, _ := newAuthService(t)

	_, err := svc.Register(t.Context(), &RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "password123"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Register(t.Context(), &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "short"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 0, store.Count("users"))
}

func TestLoginFailures(t *testing.T) {
	svc, store, _ := newAuthService(t)
	ctx := t.Context()
	_, err := svc.Register(ctx, &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, ErrInvalidCredentials.Error(), apperror.Message(err))

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, ErrInvalidCredentials.Error(), apperror.Message(err))

	u, err := store.Users().FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, store.Users().Update(ctx, u))

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, ErrUserInactive.Error(), apperror.Message(err))
}

func TestChangeAndResetPassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := t.Context()
	user, err := svc.Register(ctx, &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	p := policy.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}

	err = svc.ChangePassword(ctx, p, &ChangePasswordRequest{CurrentPassword: "nope-nope", NewPassword: "password456"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, p, &ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "password456"}))
	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "password456"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "ADA@example.com", "password789"))
	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "password789"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "ada@example.com", "short"), apperror.ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "ghost@example.com", "password789"), apperror.ErrNotFound)
}

func TestSeedAdminRunsOnce(t *testing.T) {
	svc, store, _ := newAuthService(t)
	ctx := t.Context()

	created, err := svc.SeedAdmin(ctx, "Admin@Shop.test", "admin-password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedAdmin(ctx, "admin@shop.test", "other-password")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, store.Count("users"))

	resp, err := svc.Login(ctx, &LoginRequest{Email: "admin@shop.test", Password: "admin-password"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}
