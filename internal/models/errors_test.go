package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Status(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidationError("bad"), fiber.StatusUnprocessableEntity},
		{NewBadRequestError("bad"), fiber.StatusBadRequest},
		{NewConflictError("taken", nil), fiber.StatusConflict},
		{NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{NewForbiddenError("no"), fiber.StatusForbidden},
		{NewNotFoundError("Product"), fiber.StatusNotFound},
		{NewPayloadTooLargeError("big"), fiber.StatusRequestEntityTooLarge},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	root := errors.New("duplicate key")
	err := fmt.Errorf("create user: %w", NewConflictError("taken", root))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, CodeConflict, appErr.Code)
	assert.ErrorIs(t, err, root)
}

func TestRespond_DetailShapes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail any
	}{
		{"message", NewNotFoundError("Category"), 404, "Category not found"},
		{"internal hides cause", NewInternalError(errors.New("pq: connection refused")), 500, "Internal server error"},
		{"plain error", errors.New("boom"), 500, "Internal server error"},
		{"field list", NewValidationError("invalid", FieldError{Loc: []string{"body", "price"}, Msg: "must be greater than 0", Type: "gt"}), 422,
			[]any{map[string]any{"loc": []any{"body", "price"}, "msg": "must be greater than 0", "type": "gt"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return Respond(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body map[string]any
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.wantDetail, body["detail"])
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 25, TotalPages(25, 1))
}
