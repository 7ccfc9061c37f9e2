package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type UserService interface {
	List(ctx context.Context, q dto.PageQuery) ([]dto.UserResponse, int64, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, username string) (*dto.UserResponse, error)
	Update(ctx context.Context, actor *authz.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error

	Me(ctx context.Context, actor *authz.Actor) (*dto.UserResponse, error)
	// UpdateMe edits the actor's own record. A role that differs from the
	// stored one is rejected unless the actor is an admin.
	UpdateMe(ctx context.Context, actor *authz.Actor, req dto.UpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	users repository.UserRepository
	log   zerolog.Logger
}

func NewUserService(users repository.UserRepository, log zerolog.Logger) UserService {
	return &userService{users: users, log: log.With().Str("service", "users").Logger()}
}

func (s *userService) List(ctx context.Context, q dto.PageQuery) ([]dto.UserResponse, int64, error) {
	q = q.Normalize()
	list, total, err := s.users.List(ctx, repository.ListOptions{Limit: q.Limit, Offset: q.Offset, Search: q.Search})
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.UserResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromModelToUserResponse(&list[i]))
	}
	return out, total, nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	user := req.ToModel()
	if !user.Role.Valid() {
		return nil, NewValidationError("role", fmt.Sprintf("unknown role %q", user.Role))
	}
	if err := s.checkIdentity(ctx, "", user.Username, user.Email); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", "a user with this username or email already exists")
		}
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user created by admin")
	resp := dto.FromModelToUserResponse(&user)
	return &resp, nil
}

func (s *userService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user")
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, actor *authz.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return s.apply(ctx, actor, user, req)
}

func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return notFound(err, "user")
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return notFound(err, "user")
	}
	s.log.Info().Str("user_id", user.ID).Msg("user deleted")
	return nil
}

func (s *userService) Me(ctx context.Context, actor *authz.Actor) (*dto.UserResponse, error) {
	if actor == nil {
		return nil, newPublicError(ErrUnauthenticated, "authentication required")
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateMe(ctx context.Context, actor *authz.Actor, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if actor == nil {
		return nil, newPublicError(ErrUnauthenticated, "authentication required")
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return s.apply(ctx, actor, user, req)
}

// apply validates and saves req onto user on behalf of actor.
func (s *userService) apply(ctx context.Context, actor *authz.Actor, user *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if req.Role != nil {
		role := models.Role(*req.Role)
		if !role.Valid() {
			return nil, NewValidationError("role", fmt.Sprintf("unknown role %q", role))
		}
		if role != user.Role && (actor == nil || actor.Role != models.RoleAdmin) {
			return nil, newPublicError(ErrPermissionDenied, "only an admin can change roles")
		}
	}

	username, email := user.Username, user.Email
	if req.Username != nil {
		username = *req.Username
	}
	if req.Email != nil {
		email = *req.Email
	}
	if username != user.Username || email != user.Email {
		if err := s.checkIdentity(ctx, user.ID, username, email); err != nil {
			return nil, err
		}
	}

	previousRole := user.Role
	req.ApplyTo(user)
	if req.Role != nil {
		user.Role = models.Role(*req.Role)
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", "a user with this username or email already exists")
		}
		return nil, err
	}
	if user.Role != previousRole {
		s.log.Info().
			Str("user_id", user.ID).
			Str("from", string(previousRole)).
			Str("to", string(user.Role)).
			Str("by", actor.ID).
			Msg("user role changed")
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// checkIdentity enforces the reserved name and username/email uniqueness,
// ignoring the record with id self.
func (s *userService) checkIdentity(ctx context.Context, self, username, email string) error {
	if strings.EqualFold(username, ReservedUsername) {
		return NewValidationError("username", fmt.Sprintf("%q cannot be used as a username", ReservedUsername))
	}
	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return err
	}
	ve := &ValidationError{}
	for _, u := range existing {
		if u.ID == self {
			continue
		}
		if u.Username == username {
			ve.Add("username", "a user with this username already exists")
		}
		if u.Email == email {
			ve.Add("email", "a user with this email already exists")
		}
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
