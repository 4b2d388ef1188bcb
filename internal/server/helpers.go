package server

import (
	"errors"
	"strings"

	"marketplace/internal/models"
	"marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// mapServiceError picks the HTTP status for an error returned by a service.
func mapServiceError(err error) int {
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Status()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondServiceError writes err with the status chosen by mapServiceError.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status == fiber.StatusNotFound && errors.Is(err, gorm.ErrRecordNotFound) {
		err = models.NewNotFoundError("Resource")
	}
	return models.RespondWithError(c, status, err)
}

// parseBody decodes the JSON body into out. A malformed body is a 422 like
// any other schema failure.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("Invalid request body", models.FieldError{
			Loc:  []string{"body"},
			Msg:  "Request body must be valid JSON",
			Type: "value_error.jsondecode",
		})
	}
	return nil
}

// parseProductQuery reads the listing query string on top of the defaults.
// Parameters that fail to parse are reported as 422.
func parseProductQuery(c *fiber.Ctx) (service.ProductQuery, error) {
	q := service.DefaultProductQuery()
	if err := c.QueryParser(&q); err != nil {
		return q, models.NewValidationError("Invalid query parameters", models.FieldError{
			Loc:  []string{"query"},
			Msg:  err.Error(),
			Type: "type_error",
		})
	}

	defaults := service.DefaultProductQuery()
	if strings.TrimSpace(q.Status) == "" {
		q.Status = defaults.Status
	}
	if strings.TrimSpace(q.SortBy) == "" {
		q.SortBy = defaults.SortBy
	}
	if strings.TrimSpace(q.SortOrder) == "" {
		q.SortOrder = defaults.SortOrder
	}
	q.SortOrder = strings.ToLower(q.SortOrder)
	return q, nil
}

// currentUser returns the user resolved by AuthRequired.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// currentUserID returns the id resolved by AuthRequired.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
