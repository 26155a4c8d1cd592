package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/cocktail-api/internal/dto"
	"github.com/flicky/cocktail-api/internal/model"
)

func TestUserService_CreateDefaults(t *testing.T) {
	svc := NewUserService(newMockUserRepo())

	resp, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Name: "Bea", Email: "bea@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleGuest, resp.Role)
	assert.True(t, resp.Active)
}

func TestUserService_CreateAdminInactive(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)
	inactive := false

	resp, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Name: "Root", Email: "root@example.com", Password: "password123",
		Role: model.RoleAdmin, Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.Role)
	assert.False(t, resp.Active)
	assert.Equal(t, model.RoleIDAdmin, repo.byID[resp.ID].RoleID)

	_, err = svc.Create(context.Background(), dto.CreateUserRequest{
		Name: "Root", Email: "root@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUserService_Update(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)
	user := repo.add(&model.User{Name: "Bea", Email: "bea@example.com", Role: model.RoleGuest, RoleID: model.RoleIDGuest})
	repo.add(&model.User{Name: "Cid", Email: "cid@example.com"})

	resp, err := svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{
		Name: "Beatriz", Email: "beatriz@example.com", Role: model.RoleAdmin, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Beatriz", resp.Name)
	assert.Equal(t, model.RoleAdmin, resp.Role)

	_, err = svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{Name: "B", Email: "cid@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Update(context.Background(), 999, dto.UpdateUserRequest{Name: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Delete(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)
	admin := repo.add(&model.User{Email: "admin@example.com", Role: model.RoleAdmin})
	buyer := repo.add(&model.User{Email: "buyer@example.com"})
	idle := repo.add(&model.User{Email: "idle@example.com"})
	repo.hasOrders[buyer.ID] = true
	caller := Principal{UserID: admin.ID, Role: model.RoleAdmin}

	assert.ErrorIs(t, svc.Delete(context.Background(), caller, admin.ID), ErrSelfDelete)
	assert.ErrorIs(t, svc.Delete(context.Background(), caller, buyer.ID), ErrUserHasOrders)
	assert.ErrorIs(t, svc.Delete(context.Background(), caller, 999), ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), caller, idle.ID))

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
