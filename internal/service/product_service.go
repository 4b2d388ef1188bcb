package service

import (
	"context"
	"strconv"
	"strings"

	"marketplace/internal/cache"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/validation"
)

// ProductQuery is the query string of the product listings.
type ProductQuery struct {
	Page       int      `query:"page" validate:"gte=1"`
	PerPage    int      `query:"per_page" validate:"gte=1,lte=100"`
	CategoryID string   `query:"category_id" validate:"max=36"`
	MinPrice   *float64 `query:"min_price" validate:"omitempty,gte=0"`
	MaxPrice   *float64 `query:"max_price" validate:"omitempty,gte=0"`
	Status     string   `query:"status" validate:"oneof=available sold pending all"`
	Search     string   `query:"search" validate:"max=100"`
	SellerID   string   `query:"seller_id" validate:"max=36"`
	SortBy     string   `query:"sort_by" validate:"max=50"`
	SortOrder  string   `query:"sort_order" validate:"oneof=asc desc"`
}

// DefaultProductQuery returns the query values used when a parameter is absent.
func DefaultProductQuery() ProductQuery {
	return ProductQuery{
		Page:      1,
		PerPage:   10,
		Status:    models.StatusAvailable,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

func (q ProductQuery) filter() repository.ProductFilter {
	return repository.ProductFilter{
		Page:       q.Page,
		PerPage:    q.PerPage,
		CategoryID: q.CategoryID,
		SellerID:   q.SellerID,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		Status:     q.Status,
		Search:     q.Search,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}
}

// cacheParams flattens the query into cache key parameters.
func (q ProductQuery) cacheParams() map[string]string {
	params := map[string]string{
		"page":       strconv.Itoa(q.Page),
		"per_page":   strconv.Itoa(q.PerPage),
		"status":     q.Status,
		"sort_by":    q.SortBy,
		"sort_order": q.SortOrder,
	}
	if q.CategoryID != "" {
		params["category_id"] = q.CategoryID
	}
	if q.SellerID != "" {
		params["seller_id"] = q.SellerID
	}
	if q.Search != "" {
		params["search"] = strings.ToLower(q.Search)
	}
	if q.MinPrice != nil {
		params["min_price"] = strconv.FormatFloat(*q.MinPrice, 'f', -1, 64)
	}
	if q.MaxPrice != nil {
		params["max_price"] = strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64)
	}
	return params
}

type CreateProductInput struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,max=500"`
	Images      []string `json:"images" validate:"omitempty,max=20,dive,max=500"`
	Status      string   `json:"status" validate:"omitempty,oneof=available sold pending"`
	CategoryID  string   `json:"category_id" validate:"required,max=36"`
}

// UpdateProductInput is a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Title       *string   `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Price       *float64  `json:"price" validate:"omitnil,gt=0"`
	ImageURL    *string   `json:"image_url" validate:"omitempty,max=500"`
	Images      *[]string `json:"images" validate:"omitempty,max=20,dive,max=500"`
	Status      *string   `json:"status" validate:"omitnil,oneof=available sold pending"`
	CategoryID  *string   `json:"category_id" validate:"omitnil,min=1,max=36"`
}

type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	cache        cache.Cache
	ttls         cache.TTLs
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	c cache.Cache,
	ttls cache.TTLs,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		cache:        c,
		ttls:         ttls,
	}
}

// List returns one page of products matching q.
func (s *ProductService) List(ctx context.Context, q ProductQuery) (*models.ProductPage, error) {
	q.Search = validation.NormalizeText(q.Search)
	if err := validation.Struct(q, "query"); err != nil {
		return nil, err
	}
	if err := validation.CheckText("search", q.Search); err != nil {
		return nil, err
	}

	key := cache.Key(cache.NamespaceProducts, []string{"list"}, q.cacheParams())
	return cache.Aside(ctx, s.cache, key, s.ttls.Products, func() (*models.ProductPage, error) {
		return s.productRepo.Search(ctx, q.filter())
	})
}

// BySeller lists a seller's products. The status filter defaults to all.
func (s *ProductService) BySeller(ctx context.Context, sellerID string, q ProductQuery) (*models.ProductPage, error) {
	if _, err := s.userRepo.GetByID(ctx, sellerID); err != nil {
		return nil, notFoundAs(err, "Seller")
	}
	q.SellerID = sellerID
	return s.List(ctx, q)
}

// Get loads a product with its seller and category.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	key := cache.Key(cache.NamespaceProducts, []string{"id", id}, nil)
	return cache.Aside(ctx, s.cache, key, s.ttls.Products, func() (*models.Product, error) {
		return s.productRepo.GetByID(ctx, id)
	})
}

func (s *ProductService) Create(ctx context.Context, sellerID string, in CreateProductInput) (*models.Product, error) {
	in.Title = validation.NormalizeText(in.Title)
	in.Description = validation.NormalizeOptional(in.Description)
	if err := validation.Struct(in, "body"); err != nil {
		return nil, err
	}
	if err := checkProductText(in.Title, in.Description); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		Images:      in.Images,
		Status:      in.Status,
		SellerID:    sellerID,
		CategoryID:  in.CategoryID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	cache.InvalidateProducts(ctx, s.cache)
	return s.productRepo.GetByID(ctx, product.ID)
}

// Update applies a partial update. Only the seller may update a product.
func (s *ProductService) Update(ctx context.Context, sellerID, id string, in UpdateProductInput) (*models.Product, error) {
	if in.Title != nil {
		v := validation.NormalizeText(*in.Title)
		in.Title = &v
	}
	in.Description = validation.NormalizeOptional(in.Description)
	if err := validation.Struct(in, "body"); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, models.NewForbiddenError("You can only update your own products")
	}

	var columns []string
	if in.Title != nil {
		product.Title = *in.Title
		columns = append(columns, "title")
	}
	if in.Description != nil {
		product.Description = in.Description
		columns = append(columns, "description")
	}
	if err := checkProductText(product.Title, in.Description); err != nil {
		return nil, err
	}
	if in.Price != nil {
		product.Price = *in.Price
		columns = append(columns, "price")
	}
	if in.ImageURL != nil {
		product.ImageURL = in.ImageURL
		columns = append(columns, "image_url")
	}
	if in.Images != nil {
		product.Images = *in.Images
		if product.Images == nil {
			product.Images = []string{}
		}
		columns = append(columns, "images")
	}
	if in.Status != nil {
		product.Status = *in.Status
		columns = append(columns, "status")
	}
	if in.CategoryID != nil && *in.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.GetByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
		columns = append(columns, "category_id")
	}
	if len(columns) == 0 {
		return product, nil
	}

	// Associations were preloaded for the ownership check; they must not
	// be written back.
	product.Seller, product.Category = nil, nil
	if err := s.productRepo.Update(ctx, product, columns...); err != nil {
		return nil, err
	}
	cache.InvalidateProducts(ctx, s.cache)
	return s.productRepo.GetByID(ctx, id)
}

// Delete removes a product. Only the seller may delete it.
func (s *ProductService) Delete(ctx context.Context, sellerID, id string) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.SellerID != sellerID {
		return models.NewForbiddenError("You can only delete your own products")
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateProducts(ctx, s.cache)
	return nil
}

func checkProductText(title string, description *string) error {
	if err := validation.CheckText("title", title); err != nil {
		return err
	}
	if description != nil {
		return validation.CheckText("description", *description)
	}
	return nil
}
