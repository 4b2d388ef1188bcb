package repository

import (
	"context"

	"marketplace/internal/models"
	"marketplace/internal/observability"

	"gorm.io/gorm"
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Search(ctx context.Context, filter ProductFilter) (*models.ProductPage, error)
	// GetByID loads a product with its seller and category.
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product, columns ...string) error
	Delete(ctx context.Context, id string) error
	// CountByStatus counts a seller's products per status.
	CountByStatus(ctx context.Context, sellerID string) (map[string]int64, error)
}

type productRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProductRepository returns a new ProductRepository implementation.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db, log: observability.NewRepoLogger("products")}
}

func (r *productRepository) Search(ctx context.Context, filter ProductFilter) (*models.ProductPage, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "products", "Search")
	defer observability.TrackQuery("select", "products")()

	filter = filter.normalized()
	page := &models.ProductPage{
		Products: []models.Product{},
		Page:     filter.Page,
		PerPage:  filter.PerPage,
	}

	err := filter.apply(r.db.WithContext(ctx).Model(&models.Product{})).Count(&page.Total).Error
	if err == nil && page.Total > 0 {
		err = filter.apply(r.db.WithContext(ctx).Model(&models.Product{})).
			Order(filter.orderBy()).
			Offset((filter.Page - 1) * filter.PerPage).
			Limit(filter.PerPage).
			Find(&page.Products).Error
	}
	observability.EndSpan(span, err)
	if err != nil {
		r.log.LogError(ctx, err, "search")
		return nil, models.NewInternalError(err)
	}

	page.TotalPages = models.TotalPages(page.Total, filter.PerPage)
	return page, nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	defer observability.TrackQuery("select", "products")()

	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, notFoundOr(err, "Product")
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, span := observability.StartRepositorySpan(ctx, "products", "Create")
	defer observability.TrackQuery("insert", "products")()

	err := r.db.WithContext(ctx).Omit("Seller", "Category").Create(product).Error
	observability.EndSpan(span, err)
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"product_id": product.ID, "seller_id": product.SellerID})
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *models.Product, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	defer observability.TrackQuery("update", "products")()

	if err := r.db.WithContext(ctx).Model(product).Select(columns).Updates(product).Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"product_id": product.ID})
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "products")()

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Product")
	}
	r.log.LogDelete(ctx, map[string]any{"product_id": id})
	return nil
}

func (r *productRepository) CountByStatus(ctx context.Context, sellerID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("status, COUNT(*) AS count").
		Where("seller_id = ?", sellerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
