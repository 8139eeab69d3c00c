// Package service contains the application's business logic, sitting between
// the HTTP handlers and the repositories.
package service

import (
	"context"
	"strings"

	"memehub/internal/config"
	"memehub/internal/middleware"
	"memehub/internal/models"
	"memehub/internal/repository"
)

// RegisterInput carries the fields a self-service signup may set.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// CreateUserInput is the admin-facing variant; it may also set scopes and
// the disabled flag.
type CreateUserInput struct {
	RegisterInput
	Scopes   []string `json:"scopes"`
	Disabled bool     `json:"disabled"`
}

// UpdateUserInput uses pointers so absent fields are left untouched.
type UpdateUserInput struct {
	Email    *string   `json:"email"`
	FullName *string   `json:"full_name"`
	Password *string   `json:"password"`
	Disabled *bool     `json:"disabled"`
	Scopes   *[]string `json:"scopes"`
}

// UserService implements account management on top of the user repository.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func validateCredentials(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.NewValidationError("username is required")
	}
	if len(username) > 64 {
		return models.NewValidationError("username must be at most 64 characters")
	}
	if len(password) < 8 {
		return models.NewValidationError("password must be at least 8 characters")
	}
	return nil
}

// Register creates an account with the default scope bundle. Anyone may call
// it; scope and disabled flags are not caller-controlled here.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if err := validateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hash,
		Scopes:       models.DefaultUserScopes(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user registered", "username", user.Username)
	return user, nil
}

// CreateUser is the privileged variant of Register: the caller chooses the
// scope bundle and initial disabled state. Route guards restrict it to
// holders of the user.create scope.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := validateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	scopes := models.ScopeList(input.Scopes)
	if len(scopes) == 0 {
		scopes = models.DefaultUserScopes()
	}
	user := &models.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hash,
		Scopes:       scopes,
		Disabled:     input.Disabled,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns the named account. Non-admin callers may only fetch
// themselves; the same forbidden error is returned whether or not the
// target exists, so the endpoint cannot be used to probe usernames.
func (s *UserService) GetUser(ctx context.Context, principal models.Principal, username string) (*models.User, error) {
	if !principal.IsAdmin() && !principal.Owns(username) {
		return nil, models.NewForbiddenError("not enough permissions")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", username)
	}
	return user, nil
}

// UpdateUser applies a partial update to the named account. Non-admin
// callers may only update themselves, and only admins may touch the
// disabled flag or the scope list.
func (s *UserService) UpdateUser(ctx context.Context, principal models.Principal, username string, input UpdateUserInput) (*models.User, error) {
	if !principal.IsAdmin() && !principal.Owns(username) {
		return nil, models.NewForbiddenError("not enough permissions")
	}
	if (input.Disabled != nil || input.Scopes != nil) && !principal.IsAdmin() {
		return nil, models.NewForbiddenError("not enough permissions")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", username)
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, models.NewValidationError("password must be at least 8 characters")
		}
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if input.Disabled != nil {
		user.Disabled = *input.Disabled
	}
	if input.Scopes != nil {
		user.Scopes = models.ScopeList(*input.Scopes)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the named account. Admins delete the record outright;
// a user deleting themselves is soft-disabled so their memes and like
// history keep a valid owner.
func (s *UserService) DeleteUser(ctx context.Context, principal models.Principal, username string) error {
	switch {
	case principal.IsAdmin():
		removed, err := s.users.Delete(ctx, username)
		if err != nil {
			return models.NewInternalError(err)
		}
		if !removed {
			return models.NewNotFoundError("user", username)
		}
		middleware.Logger.InfoContext(ctx, "user deleted", "target", username)
		return nil
	case principal.Owns(username):
		disabled, err := s.users.Disable(ctx, username)
		if err != nil {
			return models.NewInternalError(err)
		}
		if !disabled {
			return models.NewNotFoundError("user", username)
		}
		middleware.Logger.InfoContext(ctx, "user disabled own account", "target", username)
		return nil
	default:
		return models.NewForbiddenError("not enough permissions")
	}
}

// ListUsers pages through all accounts. Route guards restrict it to
// holders of the user.all scope.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// EnsureAdmin creates the bootstrap admin account on startup when it is
// configured and does not exist yet. Idempotent across restarts.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	existing, err := s.users.GetByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Scopes:       models.AdminScopes(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	middleware.Logger.Info("bootstrap admin account created", "username", cfg.AdminUsername)
	return nil
}
