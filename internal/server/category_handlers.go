package server

import (
	"marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Param include_count query bool false "Attach product_count to each category"
// @Success 200 {object} models.CategoryList
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	list, err := s.categoryService.List(c.UserContext(), c.QueryBool("include_count", false))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// GetCategory handles GET /categories/:id
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	category, err := s.categoryService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(category)
}

// GetCategoryProducts handles GET /categories/:id/products
// @Summary Products in a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(10)
// @Param status query string false "available, sold, pending or all" default(available)
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Success 200 {object} models.ProductPage
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /categories/{id}/products [get]
func (s *Server) GetCategoryProducts(c *fiber.Ctx) error {
	q, err := parseProductQuery(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	page, err := s.categoryService.Products(c.UserContext(), c.Params("id"), q)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// GetCategoryStats handles GET /categories/:id/stats
// @Summary Category statistics
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.CategoryStats
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id}/stats [get]
func (s *Server) GetCategoryStats(c *fiber.Ctx) error {
	stats, err := s.categoryService.Stats(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// CreateCategory handles POST /categories
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateCategoryInput true "Category"
// @Success 201 {object} models.Category
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req service.CreateCategoryInput
	if err := parseBody(c, &req); err != nil {
		return respondServiceError(c, err)
	}
	category, err := s.categoryService.Create(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /categories/:id
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param request body service.UpdateCategoryInput true "Category changes"
// @Success 200 {object} models.Category
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id} [put]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	var req service.UpdateCategoryInput
	if err := parseBody(c, &req); err != nil {
		return respondServiceError(c, err)
	}
	category, err := s.categoryService.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /categories/:id
// @Summary Delete category
// @Description Deletes the category and every product filed under it
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} service.DeleteResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	res, err := s.categoryService.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}
