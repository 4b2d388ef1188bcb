package server

import (
	"marketplace/internal/models"
	"marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListProducts handles GET /products
// @Summary Search products
// @Description Filtered, sorted and paginated product listing
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size (max 100)" default(10)
// @Param category_id query string false "Category ID"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param status query string false "available, sold, pending or all" default(available)
// @Param search query string false "Case-insensitive match on title and description"
// @Param seller_id query string false "Seller ID"
// @Param sort_by query string false "created_at, price or title" default(created_at)
// @Param sort_order query string false "asc or desc" default(desc)
// @Success 200 {object} models.ProductPage
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /products [get]
func (s *Server) ListProducts(c *fiber.Ctx) error {
	q, err := parseProductQuery(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	page, err := s.productService.List(c.UserContext(), q)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// GetSellerProducts handles GET /products/seller/:seller_id. Every status
// is listed unless the caller narrows it.
// @Summary Products of one seller
// @Tags products
// @Produce json
// @Param seller_id path string true "Seller ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(10)
// @Param status query string false "available, sold, pending or all" default(all)
// @Success 200 {object} models.ProductPage
// @Failure 404 {object} models.ErrorResponse
// @Router /products/seller/{seller_id} [get]
func (s *Server) GetSellerProducts(c *fiber.Ctx) error {
	q, err := parseProductQuery(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	if c.Query("status") == "" {
		q.Status = models.StatusAll
	}
	page, err := s.productService.BySeller(c.UserContext(), c.Params("seller_id"), q)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// GetProduct handles GET /products/:id
// @Summary Get product
// @Description Product with its seller and category
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (s *Server) GetProduct(c *fiber.Ctx) error {
	product, err := s.productService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(product)
}

// CreateProduct handles POST /products
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateProductInput true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /products [post]
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductInput
	if err := parseBody(c, &req); err != nil {
		return respondServiceError(c, err)
	}
	product, err := s.productService.Create(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct handles PUT /products/:id
// @Summary Update product
// @Description Partial update; only the seller may change a listing
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body service.UpdateProductInput true "Product changes"
// @Success 200 {object} models.Product
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /products/{id} [put]
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	var req service.UpdateProductInput
	if err := parseBody(c, &req); err != nil {
		return respondServiceError(c, err)
	}
	product, err := s.productService.Update(c.UserContext(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(product)
}

// DeleteProduct handles DELETE /products/:id
// @Summary Delete product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [delete]
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.productService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Product deleted successfully",
		"product_id": id,
	})
}
