package service

import (
	"context"
	"testing"

	"memehub/internal/config"
	"memehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminPrincipal() models.Principal {
	return models.Principal{Subject: "root", Scopes: models.AdminScopes()}
}

func userPrincipal(username string) models.Principal {
	return models.Principal{Subject: username, Scopes: models.DefaultUserScopes()}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("grants default scopes", func(t *testing.T) {
		var created *models.User
		repo := &stubUserRepo{
			createFn: func(_ context.Context, user *models.User) error {
				created = user
				return nil
			},
		}
		svc := NewUserService(repo)

		user, err := svc.Register(context.Background(), RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "hunter2hunter2",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, []string(models.DefaultUserScopes()), []string(user.Scopes))
		assert.False(t, user.Disabled)
		assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
		assert.True(t, VerifyPassword(user.PasswordHash, "hunter2hunter2"))
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc := NewUserService(&stubUserRepo{})
		_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "short"})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
	})

	t.Run("rejects blank username", func(t *testing.T) {
		svc := NewUserService(&stubUserRepo{})
		_, err := svc.Register(context.Background(), RegisterInput{Username: "   ", Password: "hunter2hunter2"})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
	})

	t.Run("propagates duplicate conflict", func(t *testing.T) {
		repo := &stubUserRepo{
			createFn: func(_ context.Context, _ *models.User) error {
				return models.NewConflictError("username already taken")
			},
		}
		svc := NewUserService(repo)
		_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "hunter2hunter2"})
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", err.(*models.AppError).Code)
	})
}

func TestGetUser(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if username == "alice" {
				return &models.User{Username: "alice"}, nil
			}
			return nil, nil
		},
	}
	svc := NewUserService(repo)
	ctx := context.Background()

	t.Run("owner reads self", func(t *testing.T) {
		user, err := svc.GetUser(ctx, userPrincipal("alice"), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("admin reads anyone", func(t *testing.T) {
		user, err := svc.GetUser(ctx, adminPrincipal(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("non-owner forbidden even when target exists", func(t *testing.T) {
		_, err := svc.GetUser(ctx, userPrincipal("bob"), "alice")
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})

	t.Run("non-owner forbidden when target missing", func(t *testing.T) {
		// Same error either way; existence is not leaked.
		_, err := svc.GetUser(ctx, userPrincipal("bob"), "ghost")
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})

	t.Run("admin gets not found for missing target", func(t *testing.T) {
		_, err := svc.GetUser(ctx, adminPrincipal(), "ghost")
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", err.(*models.AppError).Code)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()
	newRepo := func() *stubUserRepo {
		return &stubUserRepo{
			getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
				if username == "alice" {
					return &models.User{Username: "alice", Scopes: models.DefaultUserScopes()}, nil
				}
				return nil, nil
			},
		}
	}
	ctx := context.Background()
	str := func(s string) *string { return &s }

	t.Run("owner updates own profile", func(t *testing.T) {
		svc := NewUserService(newRepo())
		user, err := svc.UpdateUser(ctx, userPrincipal("alice"), "alice", UpdateUserInput{
			FullName: str("Alice A."),
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice A.", user.FullName)
	})

	t.Run("password change is rehashed", func(t *testing.T) {
		svc := NewUserService(newRepo())
		user, err := svc.UpdateUser(ctx, userPrincipal("alice"), "alice", UpdateUserInput{
			Password: str("newpassword1"),
		})
		require.NoError(t, err)
		assert.True(t, VerifyPassword(user.PasswordHash, "newpassword1"))
	})

	t.Run("non-admin cannot touch disabled flag", func(t *testing.T) {
		svc := NewUserService(newRepo())
		disabled := true
		_, err := svc.UpdateUser(ctx, userPrincipal("alice"), "alice", UpdateUserInput{
			Disabled: &disabled,
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})

	t.Run("non-admin cannot touch scopes", func(t *testing.T) {
		svc := NewUserService(newRepo())
		scopes := []string{models.ScopeAdmin}
		_, err := svc.UpdateUser(ctx, userPrincipal("alice"), "alice", UpdateUserInput{
			Scopes: &scopes,
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})

	t.Run("admin sets scopes and disabled", func(t *testing.T) {
		svc := NewUserService(newRepo())
		disabled := true
		scopes := []string{models.ScopeUserMe}
		user, err := svc.UpdateUser(ctx, adminPrincipal(), "alice", UpdateUserInput{
			Disabled: &disabled,
			Scopes:   &scopes,
		})
		require.NoError(t, err)
		assert.True(t, user.Disabled)
		assert.Equal(t, models.ScopeList{models.ScopeUserMe}, user.Scopes)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		svc := NewUserService(newRepo())
		_, err := svc.UpdateUser(ctx, userPrincipal("bob"), "alice", UpdateUserInput{FullName: str("x")})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admin hard deletes", func(t *testing.T) {
		var deleted, disabled bool
		repo := &stubUserRepo{
			deleteFn:  func(_ context.Context, _ string) (bool, error) { deleted = true; return true, nil },
			disableFn: func(_ context.Context, _ string) (bool, error) { disabled = true; return true, nil },
		}
		svc := NewUserService(repo)
		require.NoError(t, svc.DeleteUser(ctx, adminPrincipal(), "alice"))
		assert.True(t, deleted)
		assert.False(t, disabled)
	})

	t.Run("admin delete of missing user is not found", func(t *testing.T) {
		repo := &stubUserRepo{
			deleteFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		}
		svc := NewUserService(repo)
		err := svc.DeleteUser(ctx, adminPrincipal(), "ghost")
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", err.(*models.AppError).Code)
	})

	t.Run("self delete soft disables", func(t *testing.T) {
		var deleted, disabled bool
		repo := &stubUserRepo{
			deleteFn:  func(_ context.Context, _ string) (bool, error) { deleted = true; return true, nil },
			disableFn: func(_ context.Context, _ string) (bool, error) { disabled = true; return true, nil },
		}
		svc := NewUserService(repo)
		require.NoError(t, svc.DeleteUser(ctx, userPrincipal("alice"), "alice"))
		assert.False(t, deleted)
		assert.True(t, disabled)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		svc := NewUserService(&stubUserRepo{})
		err := svc.DeleteUser(ctx, userPrincipal("bob"), "alice")
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	})
}

func TestEnsureAdmin(t *testing.T) {
	t.Parallel()

	t.Run("creates missing admin", func(t *testing.T) {
		var created *models.User
		repo := &stubUserRepo{
			createFn: func(_ context.Context, user *models.User) error {
				created = user
				return nil
			},
		}
		svc := NewUserService(repo)
		cfg := &config.Config{AdminUsername: "root", AdminPassword: "rootpassword1"}
		require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))
		require.NotNil(t, created)
		assert.True(t, created.Scopes.Contains(models.ScopeAdmin))
	})

	t.Run("existing admin left alone", func(t *testing.T) {
		repo := &stubUserRepo{
			getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) {
				return &models.User{Username: "root"}, nil
			},
			createFn: func(_ context.Context, _ *models.User) error {
				t.Fatal("create should not be called")
				return nil
			},
		}
		svc := NewUserService(repo)
		cfg := &config.Config{AdminUsername: "root", AdminPassword: "rootpassword1"}
		require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))
	})

	t.Run("no-op when unconfigured", func(t *testing.T) {
		svc := NewUserService(&stubUserRepo{})
		require.NoError(t, svc.EnsureAdmin(context.Background(), &config.Config{}))
	})
}
