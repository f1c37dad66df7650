package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskmaster/internal/apperr"
	"taskmaster/internal/auth"
	"taskmaster/internal/model"
	"taskmaster/internal/policy"
	"taskmaster/internal/repository"
)

// Credentials is what a client sends to register or log in.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ProfilePatch lists the user fields to change. Nil fields stay as they
// are.
type ProfilePatch struct {
	Username        *string     `json:"username" validate:"omitempty,min=3,max=50"`
	CurrentPassword *string     `json:"current_password"`
	NewPassword     *string     `json:"new_password" validate:"omitempty,min=6,max=72"`
	Role            *model.Role `json:"role" validate:"omitempty,oneof=Admin User"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type UserService struct {
	users  repository.UserRepositoryInterface
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

func NewUserService(users repository.UserRepositoryInterface, tokens *auth.TokenIssuer, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, tokens: tokens, logger: logger}
}

// Register creates a User-role account. The role cannot be chosen here.
func (s *UserService) Register(ctx context.Context, creds Credentials) (*model.User, error) {
	if err := validateStruct(creds); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrUsernameTaken
	}
	return s.create(ctx, creds, model.RoleUser)
}

// create stores a new account. The unique index on username backs up the
// lookup callers do first.
func (s *UserService) create(ctx context.Context, creds Credentials, role model.Role) (*model.User, error) {
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:             uuid.New(),
		Username:       creds.Username,
		HashedPassword: hash,
		Role:           role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", role)
	return user, nil
}

// Authenticate checks the credentials and issues a token. An unknown
// username and a wrong password fail the same way.
func (s *UserService) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	user, err := s.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, creds.Password) {
		s.logger.WarnContext(ctx, "login failed", "username", creds.Username)
		return nil, apperr.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadUser(actor, user.ID) {
		return nil, s.deny(ctx, actor, "read", id)
	}
	return user, nil
}

// List returns all users to an admin and only the actor otherwise.
func (s *UserService) List(ctx context.Context, actor policy.Actor) ([]model.User, error) {
	users, err := s.users.List(ctx, policy.ListScope(actor))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies patch to the user with id. Changing the password
// needs the current one; changing the role needs an admin actor.
func (s *UserService) UpdateProfile(ctx context.Context, actor policy.Actor, id uuid.UUID, patch ProfilePatch) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateUser(actor, user.ID) {
		return nil, s.deny(ctx, actor, "update", id)
	}
	if patch.Role != nil && !policy.CanSetRole(actor) {
		return nil, s.deny(ctx, actor, "set role of", id)
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	if patch.Username != nil && *patch.Username != user.Username {
		existing, err := s.users.FindByUsername(ctx, *patch.Username)
		if err != nil {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		if existing != nil {
			return nil, repository.ErrUsernameTaken
		}
		user.Username = *patch.Username
	}

	if patch.NewPassword != nil {
		if patch.CurrentPassword == nil || !auth.CheckPassword(user.HashedPassword, *patch.CurrentPassword) {
			return nil, fmt.Errorf("current password: %w", apperr.ErrInvalidCredentials)
		}
		hash, err := auth.HashPassword(*patch.NewPassword)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = hash
	}

	if patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes a user. Only admins may delete, so the role is checked
// before the lookup.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if !policy.CanDeleteUser(actor) {
		return s.deny(ctx, actor, "delete", id)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

// EnsureAdmin creates an Admin account named username unless a user with
// that name already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	creds := Credentials{Username: username, Password: password}
	if err := validateStruct(creds); err != nil {
		return fmt.Errorf("admin credentials: %w", err)
	}
	if _, err := s.create(ctx, creds, model.RoleAdmin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func (s *UserService) deny(ctx context.Context, actor policy.Actor, action string, target uuid.UUID) error {
	s.logger.WarnContext(ctx, "user access denied",
		"action", action, "target_id", target, "actor_id", actor.ID, "role", actor.Role)
	return fmt.Errorf("%s user %s: %w", action, target, apperr.ErrUnauthorized)
}
