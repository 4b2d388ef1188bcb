package service

import (
	"context"

	"marketplace/internal/auth"
	"marketplace/internal/cache"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/validation"
)

type UserService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	cache       cache.Cache
}

// UpdateProfileInput is a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=50,username"`
	Email    *string `json:"email" validate:"omitnil,email,max=100"`
	Password *string `json:"password" validate:"omitnil,min=8,max=72,bcryptlen"`
}

// DeleteResult reports what an account or category delete removed.
type DeleteResult struct {
	Message              string `json:"message"`
	ID                   string `json:"id"`
	DeletedProductsCount int64  `json:"deleted_products_count"`
}

func NewUserService(userRepo repository.UserRepository, productRepo repository.ProductRepository, c cache.Cache) *UserService {
	return &UserService{userRepo: userRepo, productRepo: productRepo, cache: c}
}

func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, in UpdateProfileInput) (*models.User, error) {
	if in.Username != nil {
		v := validation.NormalizeText(*in.Username)
		in.Username = &v
	}
	if in.Email != nil {
		v := validation.NormalizeText(*in.Email)
		in.Email = &v
	}
	if err := validation.Struct(in, "body"); err != nil {
		return nil, err
	}

	updated := *user
	var columns []string

	if in.Username != nil && *in.Username != user.Username {
		taken, err := s.userRepo.Taken(ctx, *in.Username, "", user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Username already taken", nil)
		}
		updated.Username = *in.Username
		columns = append(columns, "username")
	}
	if in.Email != nil && *in.Email != user.Email {
		taken, err := s.userRepo.Taken(ctx, "", *in.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Email already taken", nil)
		}
		updated.Email = *in.Email
		columns = append(columns, "email")
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		updated.PasswordHash = hash
		columns = append(columns, "hashed_password")
	}

	if len(columns) == 0 {
		return user, nil
	}
	if err := s.userRepo.Update(ctx, &updated, columns...); err != nil {
		return nil, err
	}
	cache.InvalidateUsers(ctx, s.cache, false)
	if columns[0] != "hashed_password" {
		// Product details embed the seller.
		cache.InvalidateProducts(ctx, s.cache)
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

// Delete removes the account and every product it listed.
func (s *UserService) Delete(ctx context.Context, userID string) (*DeleteResult, error) {
	removed, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return nil, err
	}
	cache.InvalidateUsers(ctx, s.cache, true)
	return &DeleteResult{
		Message:              "User account successfully deleted",
		ID:                   userID,
		DeletedProductsCount: removed,
	}, nil
}

func (s *UserService) Stats(ctx context.Context, user *models.User) (*models.UserStats, error) {
	counts, err := s.productRepo.CountByStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	stats := &models.UserStats{
		UserID:            user.ID,
		Username:          user.Username,
		MemberSince:       user.CreatedAt,
		AvailableProducts: counts[models.StatusAvailable],
		SoldProducts:      counts[models.StatusSold],
		PendingProducts:   counts[models.StatusPending],
		ProfileCompletion: 75,
	}
	for _, n := range counts {
		stats.TotalProducts += n
	}
	if user.Email != "" && user.Username != "" {
		stats.ProfileCompletion = 100
	}
	return stats, nil
}
