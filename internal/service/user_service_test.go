package service

import (
	"context"
	"strings"
	"testing"

	"marketplace/internal/auth"
	"marketplace/internal/models"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	t.Run("username taken", func(t *testing.T) {
		_, err := f.users.UpdateProfile(ctx, f.seller, UpdateProfileInput{Username: strPtr("mallory")})
		assertAppError(t, err, models.CodeConflict, "Username already taken")
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := f.users.UpdateProfile(ctx, f.seller, UpdateProfileInput{Email: strPtr("mallory@example.com")})
		assertAppError(t, err, models.CodeConflict, "Email already taken")
	})

	t.Run("multibyte password over 72 bytes", func(t *testing.T) {
		_, err := f.users.UpdateProfile(ctx, f.seller, UpdateProfileInput{Password: strPtr(strings.Repeat("é", 40))})
		assertAppError(t, err, models.CodeValidation, "")
	})

	t.Run("empty username is rejected", func(t *testing.T) {
		_, err := f.users.UpdateProfile(ctx, f.seller, UpdateProfileInput{Username: strPtr("")})
		assertAppError(t, err, models.CodeValidation, "")
	})

	t.Run("unchanged values are a no-op", func(t *testing.T) {
		user, err := f.users.UpdateProfile(ctx, f.seller, UpdateProfileInput{Username: strPtr("alice")})
		require.NoError(t, err)
		assert.Equal(t, f.seller.ID, user.ID)
	})

	t.Run("username and password", func(t *testing.T) {
		user, err := f.users.UpdateProfile(ctx, f.seller, UpdateProfileInput{
			Username: strPtr("alice_2"),
			Password: strPtr("An0ther-secret"),
		})
		require.NoError(t, err)
		assert.Equal(t, "alice_2", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.True(t, auth.CheckPassword(user.PasswordHash, "An0ther-secret"))
		assert.False(t, auth.CheckPassword(user.PasswordHash, testutil.TestPassword))
	})
}

func TestUserService_UpdateProfile_OnlyWritesChangedColumns(t *testing.T) {
	repo := noopUserRepo()
	var columns []string
	repo.updateFn = func(_ context.Context, _ *models.User, cols ...string) error {
		columns = cols
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Username: "bob", Email: "new@example.com"}, nil
	}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.UpdateProfile(context.Background(), &models.User{ID: "u1", Username: "bob", Email: "bob@example.com"},
		UpdateProfileInput{Username: strPtr("bob"), Email: strPtr("new@example.com")})
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, columns)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestUserService_StatsAndDelete(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	testutil.CreateProduct(t, f.db, f.seller, f.category, "A", 1)
	testutil.CreateProduct(t, f.db, f.seller, f.category, "B", 1)
	pending := testutil.CreateProduct(t, f.db, f.seller, f.category, "C", 1)
	require.NoError(t, f.db.Model(pending).Update("status", models.StatusPending).Error)
	testutil.CreateProduct(t, f.db, f.other, f.category, "Not mine", 1)

	stats, err := f.users.Stats(ctx, f.seller)
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, stats.UserID)
	assert.Equal(t, "alice", stats.Username)
	assert.EqualValues(t, 3, stats.TotalProducts)
	assert.EqualValues(t, 2, stats.AvailableProducts)
	assert.EqualValues(t, 0, stats.SoldProducts)
	assert.EqualValues(t, 1, stats.PendingProducts)
	assert.Equal(t, 100, stats.ProfileCompletion)

	res, err := f.users.Delete(ctx, f.seller.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.DeletedProductsCount)

	var remaining int64
	require.NoError(t, f.db.Model(&models.Product{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)

	_, err = f.users.Delete(ctx, f.seller.ID)
	assertAppError(t, err, models.CodeNotFound, "User not found")
}
