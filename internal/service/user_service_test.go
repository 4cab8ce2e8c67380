package service

import (
	"testing"
	"time"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	f := newFixture(t)

	profile, err := f.users.GetProfile(f.ctx, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, "buyer@shop.test", profile.Email)

	name, phone := "Buyer Name", "+15550100"
	updated, err := f.users.UpdateProfile(f.ctx, f.buyer, &UpdateProfileRequest{Name: &name, PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, phone, updated.PhoneNumber)
	assert.Equal(t, "buyer@shop.test", updated.Email)
}

func TestListUsersIsAdminOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.ListUsers(f.ctx, f.seller)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	users, err := f.users.ListUsers(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	sellers, err := f.users.ListSellers(f.ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	assert.Equal(t, f.seller.UserID, sellers[0].ID)
}

func TestChangeRole(t *testing.T) {
	f := newFixture(t)
	otherAdmin := f.addUser("root@shop.test", model.RoleAdmin)

	promoted, err := f.users.ChangeRole(f.ctx, f.admin, f.buyer.UserID, &ChangeRoleRequest{Role: model.RoleSeller})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSeller, promoted.Role)

	_, err = f.users.ChangeRole(f.ctx, f.admin, otherAdmin.UserID, &ChangeRoleRequest{Role: model.RoleUser})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.users.ChangeRole(f.ctx, f.admin, f.buyer.UserID, &ChangeRoleRequest{Role: "owner"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.users.ChangeRole(f.ctx, f.admin, uuid.New(), &ChangeRoleRequest{Role: model.RoleSeller})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.users.ChangeRole(f.ctx, f.seller, f.buyer.UserID, &ChangeRoleRequest{Role: model.RoleAdmin})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestRegistrationStats(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	stats, err := f.users.RegistrationStats(f.ctx, f.admin, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ThisYear)
	assert.Equal(t, int64(0), stats.LastYear)
	assert.Equal(t, "N/A", stats.PercentageChange)

	for _, email := range []string{"old1@shop.test", "old2@shop.test"} {
		u := &model.User{Email: email, Name: "old", Role: model.RoleUser, Password: "x"}
		u.CreatedAt = time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
		require.NoError(t, f.store.Users().Create(f.ctx, u))
	}

	stats, err = f.users.RegistrationStats(f.ctx, f.admin, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.LastYear)
	assert.Equal(t, 50.0, stats.PercentageChange)

	_, err = f.users.RegistrationStats(f.ctx, f.buyer, now)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
