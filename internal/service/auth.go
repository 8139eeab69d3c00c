package service

import (
	"context"
	"fmt"
	"time"

	"memehub/internal/config"
	"memehub/internal/models"
	"memehub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token is the body of a successful token grant.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Expires     int    `json:"expires"`
}

// AuthService verifies credentials and mints/validates access tokens.
type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTLMinutes) * time.Minute,
	}
}

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate checks a username/password pair against the store. Unknown
// users, wrong passwords and disabled accounts all return the same
// unauthorized error so callers cannot probe which part failed.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil || !VerifyPassword(user.PasswordHash, password) || user.Disabled {
		return nil, models.NewUnauthorizedError("incorrect username or password")
	}
	return user, nil
}

// IssueToken mints a signed token for the user. The requested scope list is
// intersected with what the user has been granted; an empty request means
// the full granted set. Scopes the user does not hold are silently dropped,
// never escalated.
func (s *AuthService) IssueToken(user *models.User, requested []string) (*Token, error) {
	scopes := user.Scopes
	if len(requested) > 0 {
		narrowed := models.ScopeList{}
		for _, scope := range requested {
			if user.Scopes.Contains(scope) {
				narrowed = append(narrowed, scope)
			}
		}
		scopes = narrowed
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    user.Username,
		"scopes": []string(scopes),
		"iat":    now.Unix(),
		"exp":    now.Add(s.ttl).Unix(),
		"jti":    uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("sign token: %w", err))
	}

	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		Expires:     int(s.ttl.Seconds()),
	}, nil
}

// VerifyToken parses and validates a signed token and returns the principal
// it carries. Verification is stateless; a token stays valid until expiry
// even if the account was disabled after issuance.
func (s *AuthService) VerifyToken(tokenString string) (*models.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("could not validate credentials")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("could not validate credentials")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, models.NewUnauthorizedError("could not validate credentials")
	}

	principal := &models.Principal{Subject: sub}
	if raw, ok := claims["scopes"].([]interface{}); ok {
		for _, item := range raw {
			if scope, ok := item.(string); ok {
				principal.Scopes = append(principal.Scopes, scope)
			}
		}
	}
	return principal, nil
}
