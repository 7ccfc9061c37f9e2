package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

func TestUpdateMe_NonAdminCannotChangeRole(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, zerolog.Nop())
	ctx := context.Background()
	actor := &authz.Actor{ID: "u1", Username: "alice", Role: models.RoleUser}

	users.On("FindByID", ctx, "u1").Return(&models.User{ID: "u1", Username: "alice", Role: models.RoleUser}, nil)

	_, err := svc.UpdateMe(ctx, actor, dto.UpdateUserRequest{Bio: ptr("hi"), Role: ptr("admin")})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateMe_SameRoleIsAccepted(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, zerolog.Nop())
	ctx := context.Background()
	actor := &authz.Actor{ID: "u1", Username: "alice", Role: models.RoleUser}

	users.On("FindByID", ctx, "u1").Return(&models.User{ID: "u1", Username: "alice", Role: models.RoleUser}, nil)
	users.On("Update", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Bio == "hi" && u.Role == models.RoleUser
	})).Return(nil)

	resp, err := svc.UpdateMe(ctx, actor, dto.UpdateUserRequest{Bio: ptr("hi"), Role: ptr("user")})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Bio)
	assert.Equal(t, models.RoleUser, resp.Role)
}

func TestUpdateMe_AdminMayChangeOwnRole(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, zerolog.Nop())
	ctx := context.Background()
	actor := &authz.Actor{ID: "a1", Username: "root", Role: models.RoleAdmin}

	users.On("FindByID", ctx, "a1").Return(&models.User{ID: "a1", Username: "root", Role: models.RoleAdmin}, nil)
	users.On("Update", ctx, mock.Anything).Return(nil)

	resp, err := svc.UpdateMe(ctx, actor, dto.UpdateUserRequest{Role: ptr("moderator")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, resp.Role)
}

func TestAdminUpdate_ChangesRole(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, zerolog.Nop())
	ctx := context.Background()
	admin := &authz.Actor{ID: "a1", Username: "root", Role: models.RoleAdmin}

	users.On("FindByUsername", ctx, "bob").Return(&models.User{ID: "b1", Username: "bob", Email: "bob@example.com", Role: models.RoleUser}, nil)
	users.On("Update", ctx, mock.Anything).Return(nil)

	resp, err := svc.Update(ctx, admin, "bob", dto.UpdateUserRequest{Role: ptr("moderator")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, resp.Role)
}

func TestAdminUpdate_UsernameTaken(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, zerolog.Nop())
	ctx := context.Background()
	admin := &authz.Actor{ID: "a1", Role: models.RoleAdmin}

	users.On("FindByUsername", ctx, "bob").Return(&models.User{ID: "b1", Username: "bob", Email: "bob@example.com"}, nil)
	users.On("FindByUsernameOrEmail", ctx, "carol", "bob@example.com").Return([]models.User{
		{ID: "b1", Username: "bob", Email: "bob@example.com"},
		{ID: "c1", Username: "carol", Email: "carol@example.com"},
	}, nil)

	_, err := svc.Update(ctx, admin, "bob", dto.UpdateUserRequest{Username: ptr("carol")})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "username")
	assert.NotContains(t, ve.Fields, "email")
}

func TestAdminCreate(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateUserRequest{Username: "Me", Email: "me@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	users.On("FindByUsernameOrEmail", ctx, "dan", "dan@example.com").Return([]models.User{}, nil)
	users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleModerator
	})).Return(nil)

	resp, err := svc.Create(ctx, dto.CreateUserRequest{Username: "dan", Email: "dan@example.com", Role: "moderator"})
	require.NoError(t, err)
	assert.Equal(t, "dan", resp.Username)
	users.AssertExpectations(t)
}

func TestUserGetDelete_NotFound(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, zerolog.Nop())
	ctx := context.Background()

	users.On("FindByUsername", ctx, "ghost").Return(nil, repository.ErrNotFound)

	_, err := svc.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "ghost"), ErrNotFound)
}

func TestMe_Anonymous(t *testing.T) {
	svc := NewUserService(new(MockUserRepository), zerolog.Nop())

	_, err := svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
