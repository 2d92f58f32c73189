package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository/repotest"
	"github.com/GTDGit/storefront_api/internal/utils"
)

func TestAdminLogin(t *testing.T) {
	utils.InitJWT("test-secret", time.Hour)
	store := repotest.NewStore()
	svc := NewAdminAuthService(store.AdminUsers)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, " Owner@Studio.Example ", "correct horse", "Owner")
	require.NoError(t, err)
	assert.Equal(t, "owner@studio.example", admin.Email)
	assert.NotEqual(t, "correct horse", admin.PasswordHash)

	res, err := svc.Login(ctx, "owner@studio.example", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, time.Minute)

	claims, err := utils.ValidateJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)

	_, err = svc.Login(ctx, "owner@studio.example", "wrong")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@studio.example", "correct horse")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestAdminLoginDisabledAccount(t *testing.T) {
	utils.InitJWT("test-secret", time.Hour)
	store := repotest.NewStore()
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NoError(t, store.AdminUsers.Create(context.Background(), &models.AdminUser{
		Email:        "former@studio.example",
		PasswordHash: hash,
		IsActive:     false,
	}))

	_, err = NewAdminAuthService(store.AdminUsers).Login(context.Background(), "former@studio.example", "correct horse")
	assert.ErrorIs(t, err, utils.ErrAccountDisabled)
}

func TestCreateAdminValidation(t *testing.T) {
	store := repotest.NewStore()
	svc := NewAdminAuthService(store.AdminUsers)
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, "a@studio.example", "short", "A")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = svc.CreateAdmin(ctx, "a@studio.example", "long enough", "A")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "A@studio.example", "long enough", "A")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}
