package repository

import (
	"context"
	"errors"

	"marketplace/internal/models"
	"marketplace/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIdentifier looks a user up by username or email. It returns
	// (nil, nil) when nobody matches.
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// Taken reports whether username or email belongs to a user other than excludeID.
	Taken(ctx context.Context, username, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, columns ...string) error
	// Delete removes the user and their products, returning how many
	// products went with them.
	Delete(ctx context.Context, id string) (int64, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "users", "GetByID")
	defer observability.TrackQuery("select", "users")()

	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, notFoundOr(err, "User")
	}
	return &user, nil
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Taken(ctx context.Context, username, email, excludeID string) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}
	defer observability.TrackQuery("count", "users")()

	q := r.db.WithContext(ctx).Model(&models.User{})
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	default:
		q = q.Where("email = ?", email)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, span := observability.StartRepositorySpan(ctx, "users", "Create")
	defer observability.TrackQuery("insert", "users")()

	err := r.db.WithContext(ctx).Create(user).Error
	observability.EndSpan(span, err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already registered", err)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	defer observability.TrackQuery("update", "users")()

	if err := r.db.WithContext(ctx).Model(user).Select(columns).Updates(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already registered", err)
		}
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "users", "Delete")
	defer observability.TrackQuery("delete", "users")()

	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("seller_id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	observability.EndSpan(span, err)
	if err != nil {
		return 0, notFoundOr(err, "User")
	}
	r.log.LogDelete(ctx, map[string]any{"user_id": id, "deleted_products": removed})
	return removed, nil
}
