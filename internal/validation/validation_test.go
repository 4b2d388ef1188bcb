package validation

import (
	"errors"
	"strings"
	"testing"

	"marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupPayload struct {
	Username string  `json:"username" validate:"required,min=3,max=50,username"`
	Email    string  `json:"email" validate:"required,email"`
	Price    float64 `json:"price" validate:"gt=0"`
}

type listQuery struct {
	Page   int    `query:"page" validate:"gte=1"`
	Status string `query:"status" validate:"omitempty,oneof=available sold pending all"`
}

func TestStruct_FieldErrors(t *testing.T) {
	err := Struct(signupPayload{Username: "a!", Email: "nope", Price: 0}, "body")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, 422, appErr.Status())

	byField := map[string]models.FieldError{}
	for _, f := range appErr.Fields {
		byField[f.Loc[1]] = f
		assert.Equal(t, "body", f.Loc[0])
	}
	assert.Equal(t, "value_error.min", byField["username"].Type)
	assert.Equal(t, "value_error.email", byField["email"].Type)
	assert.Equal(t, "price must be greater than 0", byField["price"].Msg)
}

func TestStruct_PasswordByteLength(t *testing.T) {
	type payload struct {
		Password string `json:"password" validate:"required,max=72,bcryptlen"`
	}

	assert.NoError(t, Struct(payload{Password: strings.Repeat("a", 72)}, "body"))

	err := Struct(payload{Password: strings.Repeat("密", 25)}, "body")
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "value_error.bcryptlen", appErr.Fields[0].Type)
	assert.Equal(t, "password must be at most 72 bytes", appErr.Fields[0].Msg)
}

func TestStruct_QueryTagNames(t *testing.T) {
	err := Struct(listQuery{Page: 0, Status: "gone"}, "query")
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Fields, 2)
	assert.Equal(t, []string{"query", "page"}, appErr.Fields[0].Loc)
	assert.Equal(t, []string{"query", "status"}, appErr.Fields[1].Loc)
	assert.Contains(t, appErr.Fields[1].Msg, "available, sold, pending, all")

	assert.NoError(t, Struct(listQuery{Page: 1}, "query"))
}

func TestUsernameRule(t *testing.T) {
	assert.NoError(t, Struct(signupPayload{Username: "alice_01", Email: "a@x.io", Price: 1}, "body"))
	assert.Error(t, Struct(signupPayload{Username: "alice smith", Email: "a@x.io", Price: 1}, "body"))
}

func TestDetectSQLInjection(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"vintage lamp", false},
		{"Selected works of art", false},
		{"Bob's guitar", false},
		{"1 OR 1=1", true},
		{"x' or 'a", true},
		{"lamp; DROP TABLE products", true},
		{"UNION SELECT password", true},
		{"select * from users", true},
		{"comment -- rest", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSQLInjection(tt.input))
		})
	}
}

func TestDetectXSS(t *testing.T) {
	assert.True(t, DetectXSS(`<script>alert(1)</script>`))
	assert.True(t, DetectXSS(`<img src=x onerror=alert(1)>`))
	assert.True(t, DetectXSS(`JavaScript:void(0)`))
	assert.False(t, DetectXSS("a lamp with a <b>bold</b> shade"))
}

func TestCheckText(t *testing.T) {
	err := CheckText("search", "<script>x</script>")
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeBadRequest, appErr.Code)
	assert.Equal(t, "Invalid characters in search", appErr.Message)

	assert.NoError(t, CheckText("search", ""))
	assert.NoError(t, CheckText("title", "Mid-century desk"))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \t\n b\x00   c  "))
	assert.Nil(t, NormalizeOptional(nil))
	s := "  x  "
	assert.Equal(t, "x", *NormalizeOptional(&s))
}
