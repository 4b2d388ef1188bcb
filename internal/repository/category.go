package repository

import (
	"context"
	"errors"

	"marketplace/internal/models"
	"marketplace/internal/observability"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context, includeCount bool) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	// NameTaken reports whether name belongs to a category other than excludeID.
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category, columns ...string) error
	// Delete removes the category and its products, returning how many
	// products were removed.
	Delete(ctx context.Context, id string) (int64, error)
	Stats(ctx context.Context, id string) (*models.CategoryStats, error)
}

type categoryRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db, log: observability.NewRepoLogger("categories")}
}

func (r *categoryRepository) List(ctx context.Context, includeCount bool) ([]models.Category, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "categories", "List")
	defer observability.TrackQuery("select", "categories")()

	categories := []models.Category{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	if err == nil && includeCount {
		err = r.attachCounts(ctx, categories)
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *categoryRepository) attachCounts(ctx context.Context, categories []models.Category) error {
	var rows []struct {
		CategoryID string
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	for i := range categories {
		n := counts[categories[i].ID]
		categories[i].ProductCount = &n
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	defer observability.TrackQuery("select", "categories")()

	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, notFoundOr(err, "Category")
	}
	return &category, nil
}

func (r *categoryRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	defer observability.TrackQuery("insert", "categories")()

	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Category with this name already exists", err)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"category_id": category.ID, "name": category.Name})
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	defer observability.TrackQuery("update", "categories")()

	if err := r.db.WithContext(ctx).Model(category).Select(columns).Updates(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Category with this name already exists", err)
		}
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"category_id": category.ID})
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) (int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "categories", "Delete")
	defer observability.TrackQuery("delete", "categories")()

	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("category_id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&models.Category{})
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
		return 0, notFoundOr(err, "Category")
	}
	r.log.LogDelete(ctx, map[string]any{"category_id": id, "deleted_products": removed})
	return removed, nil
}

func (r *categoryRepository) Stats(ctx context.Context, id string) (*models.CategoryStats, error) {
	category, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Select("status, COUNT(*) AS count").
		Where("category_id = ?", id).
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	stats := &models.CategoryStats{CategoryID: category.ID, CategoryName: category.Name}
	for _, row := range byStatus {
		stats.TotalProducts += row.Count
		switch row.Status {
		case models.StatusAvailable:
			stats.AvailableProducts = row.Count
		case models.StatusSold:
			stats.SoldProducts = row.Count
		}
	}

	var prices struct {
		MinPrice *float64
		MaxPrice *float64
		AvgPrice *float64
	}
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Select("MIN(price) AS min_price, MAX(price) AS max_price, AVG(price) AS avg_price").
		Where("category_id = ? AND status = ?", id, models.StatusAvailable).
		Scan(&prices).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}
	if prices.MinPrice != nil {
		stats.PriceStats.MinPrice = *prices.MinPrice
	}
	if prices.MaxPrice != nil {
		stats.PriceStats.MaxPrice = *prices.MaxPrice
	}
	if prices.AvgPrice != nil {
		stats.PriceStats.AvgPrice = *prices.AvgPrice
	}
	return stats, nil
}
