package service

import (
	"context"
	"errors"

	"marketplace/internal/cache"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/validation"
)

const msgCategoryExists = "Category with this name already exists"

type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateCategoryInput is a partial update; nil fields are left unchanged.
type UpdateCategoryInput struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cache        cache.Cache
	ttls         cache.TTLs
}

func NewCategoryService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository, c cache.Cache, ttls cache.TTLs) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, productRepo: productRepo, cache: c, ttls: ttls}
}

// List returns every category ordered by name. Lists with product counts
// change on every product write and are not cached.
func (s *CategoryService) List(ctx context.Context, includeCount bool) (*models.CategoryList, error) {
	load := func() (*models.CategoryList, error) {
		categories, err := s.categoryRepo.List(ctx, includeCount)
		if err != nil {
			return nil, err
		}
		return &models.CategoryList{Categories: categories, Total: int64(len(categories))}, nil
	}
	if includeCount {
		return load()
	}
	key := cache.Key(cache.NamespaceCategories, []string{"list"}, nil)
	return cache.Aside(ctx, s.cache, key, s.ttls.Categories, load)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	key := cache.Key(cache.NamespaceCategories, []string{"id", id}, nil)
	return cache.Aside(ctx, s.cache, key, s.ttls.Categories, func() (*models.Category, error) {
		return s.categoryRepo.GetByID(ctx, id)
	})
}

// Products lists the products of one category; q.CategoryID is overridden.
func (s *CategoryService) Products(ctx context.Context, id string, q ProductQuery) (*models.ProductPage, error) {
	if err := validation.Struct(q, "query"); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	q.CategoryID = id
	q.SellerID = ""
	q.Search = ""
	key := cache.Key(cache.NamespaceProducts, []string{"category", id}, q.cacheParams())
	return cache.Aside(ctx, s.cache, key, s.ttls.Products, func() (*models.ProductPage, error) {
		return s.productRepo.Search(ctx, q.filter())
	})
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	in.Name = validation.NormalizeText(in.Name)
	in.Description = validation.NormalizeOptional(in.Description)
	if err := validation.Struct(in, "body"); err != nil {
		return nil, err
	}
	if err := checkCategoryText(in.Name, in.Description); err != nil {
		return nil, err
	}

	taken, err := s.categoryRepo.NameTaken(ctx, in.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError(msgCategoryExists, nil)
	}

	category := &models.Category{Name: in.Name, Description: in.Description}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	cache.InvalidateCategories(ctx, s.cache)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in UpdateCategoryInput) (*models.Category, error) {
	if in.Name != nil {
		v := validation.NormalizeText(*in.Name)
		in.Name = &v
	}
	in.Description = validation.NormalizeOptional(in.Description)
	if err := validation.Struct(in, "body"); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if in.Name != nil && *in.Name != category.Name {
		taken, err := s.categoryRepo.NameTaken(ctx, *in.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError(msgCategoryExists, nil)
		}
		category.Name = *in.Name
		columns = append(columns, "name")
	}
	if in.Description != nil {
		category.Description = in.Description
		columns = append(columns, "description")
	}
	if err := checkCategoryText(category.Name, in.Description); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return category, nil
	}

	if err := s.categoryRepo.Update(ctx, category, columns...); err != nil {
		return nil, err
	}
	cache.InvalidateCategories(ctx, s.cache)
	return s.categoryRepo.GetByID(ctx, id)
}

// Delete removes the category along with its products.
func (s *CategoryService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	removed, err := s.categoryRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	cache.InvalidateCategories(ctx, s.cache)
	return &DeleteResult{
		Message:              "Category deleted successfully",
		ID:                   id,
		DeletedProductsCount: removed,
	}, nil
}

// Stats is cached under the products namespace since every product write
// can change it.
func (s *CategoryService) Stats(ctx context.Context, id string) (*models.CategoryStats, error) {
	key := cache.Key(cache.NamespaceProducts, []string{"category_stats", id}, nil)
	return cache.Aside(ctx, s.cache, key, s.ttls.Products, func() (*models.CategoryStats, error) {
		return s.categoryRepo.Stats(ctx, id)
	})
}

func checkCategoryText(name string, description *string) error {
	if err := validation.CheckText("name", name); err != nil {
		return err
	}
	if description != nil {
		return validation.CheckText("description", *description)
	}
	return nil
}

// notFoundAs renames the resource of a not-found error.
func notFoundAs(err error, resource string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
		return models.NewNotFoundError(resource)
	}
	return err
}
