// Package service holds the marketplace business rules between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/auth"
	"marketplace/internal/cache"
	"marketplace/internal/models"
	"marketplace/internal/observability"
	"marketplace/internal/repository"
	"marketplace/internal/validation"
)

// Auth failure details. Login never reveals whether the identifier exists.
const (
	msgBadCredentials    = "Incorrect username or password"
	msgInvalidToken      = "Could not validate credentials"
	msgAlreadyRegistered = "Username or email already registered"
)

// dummyHash is compared against when the identifier is unknown so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = auth.HashPassword("timing-equalizer-password")

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72,bcryptlen"`
}

// LoginInput is the body of POST /auth/login. Username is accepted as an
// alias of Identifier.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	cache  cache.Cache
	ttls   cache.TTLs
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, c cache.Cache, ttls cache.TTLs) *AuthService {
	return &AuthService{users: users, tokens: tokens, cache: c, ttls: ttls}
}

// Register creates an account. A taken username or email is a 400.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = validation.NormalizeText(in.Username)
	in.Email = validation.NormalizeText(in.Email)
	if err := validation.Struct(in, "body"); err != nil {
		return nil, err
	}

	taken, err := s.users.Taken(ctx, in.Username, in.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewBadRequestError(msgAlreadyRegistered)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			return nil, models.NewBadRequestError(msgAlreadyRegistered)
		}
		return nil, err
	}

	observability.AuthEvents.WithLabelValues("register").Inc()
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(in.Username)
	}
	if identifier == "" || in.Password == "" {
		fields := []models.FieldError{}
		if identifier == "" {
			fields = append(fields, models.FieldError{Loc: []string{"body", "identifier"}, Msg: "identifier is required", Type: "value_error.required"})
		}
		if in.Password == "" {
			fields = append(fields, models.FieldError{Loc: []string{"body", "password"}, Msg: "password is required", Type: "value_error.required"})
		}
		return nil, models.NewValidationError("Validation failed", fields...)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		auth.CheckPassword(dummyHash, in.Password)
		observability.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, models.NewUnauthorizedError(msgBadCredentials)
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		observability.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, models.NewUnauthorizedError(msgBadCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.AuthEvents.WithLabelValues("login").Inc()
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}

// ResolveUser maps a bearer token onto its user. Every failure, including a
// subject that no longer exists, is the same 401. The lookup is cached under
// the users namespace; cached users carry no password hash.
func (s *AuthService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		observability.AuthEvents.WithLabelValues("token_rejected").Inc()
		return nil, models.NewUnauthorizedError(msgInvalidToken)
	}

	key := cache.Key(cache.NamespaceUsers, []string{"id", claims.Subject}, nil)
	user, err := cache.Aside(ctx, s.cache, key, s.ttls.Users, func() (*models.User, error) {
		return s.users.GetByID(ctx, claims.Subject)
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, models.NewUnauthorizedError(msgInvalidToken)
		}
		return nil, err
	}
	return user, nil
}
