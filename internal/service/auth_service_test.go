package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/cache"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// userRepoStub lets a test override single repository calls.
type userRepoStub struct {
	getByIDFn         func(ctx context.Context, id string) (*models.User, error)
	getByIdentifierFn func(ctx context.Context, identifier string) (*models.User, error)
	takenFn           func(ctx context.Context, username, email, excludeID string) (bool, error)
	createFn          func(ctx context.Context, user *models.User) error
	updateFn          func(ctx context.Context, user *models.User, columns ...string) error
	deleteFn          func(ctx context.Context, id string) (int64, error)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(context.Context, string) (*models.User, error) {
			return nil, models.NewNotFoundError("User")
		},
		getByIdentifierFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		takenFn:           func(context.Context, string, string, string) (bool, error) { return false, nil },
		createFn:          func(context.Context, *models.User) error { return nil },
		updateFn:          func(context.Context, *models.User, ...string) error { return nil },
		deleteFn:          func(context.Context, string) (int64, error) { return 0, nil },
	}
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}

func (s *userRepoStub) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return s.getByIdentifierFn(ctx, identifier)
}

func (s *userRepoStub) Taken(ctx context.Context, username, email, excludeID string) (bool, error) {
	return s.takenFn(ctx, username, email, excludeID)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User, columns ...string) error {
	return s.updateFn(ctx, user, columns...)
}

func (s *userRepoStub) Delete(ctx context.Context, id string) (int64, error) {
	return s.deleteFn(ctx, id)
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func newTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tokens, err := auth.NewTokenManager(testutil.NewTestConfig(t))
	require.NoError(t, err)
	return tokens
}

type authFixture struct {
	db    *gorm.DB
	cache *cache.MemoryCache
	auth  *AuthService
	users *UserService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	c := cache.NewMemoryCache(time.Minute)
	userRepo := repository.NewUserRepository(db)
	return &authFixture{
		db:    db,
		cache: c,
		auth:  NewAuthService(userRepo, newTokenManager(t), c, cache.DefaultTTLs),
		users: NewUserService(userRepo, repository.NewProductRepository(db), c),
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, RegisterInput{
		Username: "  alice ",
		Email:    "Alice@Example.com",
		Password: "Sup3r-secret!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice@Example.com", user.Email, "email is stored as given")
	assert.NotEqual(t, "Sup3r-secret!", user.PasswordHash)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "Sup3r-secret!"))

	t.Run("duplicate username", func(t *testing.T) {
		_, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "Sup3r-secret!"})
		assertAppError(t, err, models.CodeBadRequest, msgAlreadyRegistered)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.auth.Register(ctx, RegisterInput{Username: "alice2", Email: " Alice@Example.com ", Password: "Sup3r-secret!"})
		assertAppError(t, err, models.CodeBadRequest, msgAlreadyRegistered)
	})

	t.Run("email differing only in case is distinct", func(t *testing.T) {
		other, err := f.auth.Register(ctx, RegisterInput{Username: "alice3", Email: "alice@example.com", Password: "Sup3r-secret!"})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", other.Email)
	})

	t.Run("password over 72 bytes", func(t *testing.T) {
		_, err := f.auth.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: strings.Repeat("密", 30)})
		assertAppError(t, err, models.CodeValidation, "")
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, []string{"body", "password"}, appErr.Fields[0].Loc)
	})

	t.Run("schema violations", func(t *testing.T) {
		_, err := f.auth.Register(ctx, RegisterInput{Username: "a!", Email: "nope", Password: "short"})
		assertAppError(t, err, models.CodeValidation, "")
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Len(t, appErr.Fields, 3)
	})
}

func TestAuthService_Register_UniqueRaceIsBadRequest(t *testing.T) {
	repo := noopUserRepo()
	repo.createFn = func(context.Context, *models.User) error {
		return models.NewConflictError("Username or email already registered", errors.New("UNIQUE constraint failed"))
	}
	svc := NewAuthService(repo, newTokenManager(t), nil, cache.DefaultTTLs)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "bob", Email: "bob@example.com", Password: "Sup3r-secret!"})
	assertAppError(t, err, models.CodeBadRequest, msgAlreadyRegistered)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, "alice")

	for _, identifier := range []string{"alice", "alice@example.com"} {
		t.Run("by "+identifier, func(t *testing.T) {
			tok, err := f.auth.Login(ctx, LoginInput{Identifier: identifier, Password: testutil.TestPassword})
			require.NoError(t, err)
			assert.Equal(t, "bearer", tok.TokenType)
			assert.Equal(t, 1800, tok.ExpiresIn)
			assert.NotEmpty(t, tok.AccessToken)
		})
	}

	t.Run("username alias", func(t *testing.T) {
		_, err := f.auth.Login(ctx, LoginInput{Username: "alice", Password: testutil.TestPassword})
		require.NoError(t, err)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, err := f.auth.Login(ctx, LoginInput{Identifier: "alice", Password: "wrong-password"})
		assertAppError(t, err, models.CodeUnauthorized, msgBadCredentials)

		_, err = f.auth.Login(ctx, LoginInput{Identifier: "nobody", Password: testutil.TestPassword})
		assertAppError(t, err, models.CodeUnauthorized, msgBadCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.auth.Login(ctx, LoginInput{})
		assertAppError(t, err, models.CodeValidation, "")
	})
}

func TestAuthService_ResolveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")

	tok, err := f.auth.Login(ctx, LoginInput{Identifier: "alice", Password: testutil.TestPassword})
	require.NoError(t, err)

	user, err := f.auth.ResolveUser(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, "alice", user.Username)

	_, err = f.auth.ResolveUser(ctx, "not-a-token")
	assertAppError(t, err, models.CodeUnauthorized, msgInvalidToken)

	// The lookup above is cached; deleting through the service drops it.
	_, err = f.users.Delete(ctx, alice.ID)
	require.NoError(t, err)
	_, err = f.auth.ResolveUser(ctx, tok.AccessToken)
	assertAppError(t, err, models.CodeUnauthorized, msgInvalidToken)
}
