package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"marketplace/internal/config"
	"marketplace/internal/models"
	"marketplace/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductOwnership(t *testing.T) {
	f := newAPI(t)
	testutil.CreateUser(t, f.db, "alice")
	testutil.CreateUser(t, f.db, "bob")
	alice := f.login("alice")
	bob := f.login("bob")

	res := f.do(http.MethodPost, "/categories/", fiber.Map{"name": "Electronics"}, alice)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	var category models.Category
	res.decode(t, &category)

	res = f.do(http.MethodPost, "/products/", fiber.Map{
		"title":       "Laptop",
		"description": "Lightly used",
		"price":       500,
		"category_id": category.ID,
	}, alice)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	var product models.Product
	res.decode(t, &product)
	require.NotNil(t, product.Seller)
	assert.Equal(t, "alice", product.Seller.Username)
	assert.Equal(t, models.StatusAvailable, product.Status)
	assert.NotContains(t, string(res.Body), "hashed_password")

	res = f.do(http.MethodPost, "/products/", fiber.Map{"title": "Ghost", "price": 1, "category_id": "missing"}, alice)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Category not found", res.detail(t))

	res = f.do(http.MethodPost, "/products/", fiber.Map{"title": "Laptop", "price": 500, "category_id": category.ID}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	path := "/products/" + product.ID
	res = f.do(http.MethodPut, path, fiber.Map{"price": 1}, bob)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "You can only update your own products", res.detail(t))

	res = f.do(http.MethodDelete, path, nil, bob)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "You can only delete your own products", res.detail(t))

	res = f.do(http.MethodPut, path, fiber.Map{"price": 450, "status": "sold"}, alice)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	res.decode(t, &product)
	assert.InDelta(t, 450.0, product.Price, 0.001)
	assert.Equal(t, models.StatusSold, product.Status)
	assert.Equal(t, "Laptop", product.Title)

	res = f.do(http.MethodDelete, path, nil, alice)
	require.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, fmt.Sprintf(`{"message":"Product deleted successfully","product_id":%q}`, product.ID), string(res.Body))

	res = f.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Product not found", res.detail(t))
}

func TestProductPagination(t *testing.T) {
	f := newAPI(t)
	seller := testutil.CreateUser(t, f.db, "seller")
	category := testutil.CreateCategory(t, f.db, "Furniture")
	for i := 1; i <= 25; i++ {
		testutil.CreateProduct(t, f.db, seller, category, fmt.Sprintf("Chair %02d", i), float64(i))
	}

	var page models.ProductPage
	res := f.do(http.MethodGet, "/products/?page=3&per_page=10", nil, "")
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	res.decode(t, &page)
	assert.EqualValues(t, 25, page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Products, 5)

	res = f.do(http.MethodGet, "/products/?page=4&per_page=10", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	page = models.ProductPage{}
	res.decode(t, &page)
	assert.EqualValues(t, 25, page.Total)
	assert.Empty(t, page.Products)

	res = f.do(http.MethodGet, "/products/?sort_by=price&sort_order=asc&per_page=3&min_price=10&max_price=20", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	page = models.ProductPage{}
	res.decode(t, &page)
	assert.EqualValues(t, 11, page.Total)
	require.Len(t, page.Products, 3)
	assert.InDelta(t, 10.0, page.Products[0].Price, 0.001)
	assert.InDelta(t, 11.0, page.Products[1].Price, 0.001)

	res = f.do(http.MethodGet, "/products/?search=CHAIR%2007", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	page = models.ProductPage{}
	res.decode(t, &page)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "Chair 07", page.Products[0].Title)
}

func TestProductQueryValidation(t *testing.T) {
	f := newAPI(t)

	tests := []struct {
		name   string
		query  url.Values
		status int
	}{
		{"per_page zero", url.Values{"per_page": {"0"}}, http.StatusUnprocessableEntity},
		{"per_page too large", url.Values{"per_page": {"101"}}, http.StatusUnprocessableEntity},
		{"page zero", url.Values{"page": {"0"}}, http.StatusUnprocessableEntity},
		{"page not a number", url.Values{"page": {"abc"}}, http.StatusUnprocessableEntity},
		{"negative min price", url.Values{"min_price": {"-1"}}, http.StatusUnprocessableEntity},
		{"unknown status", url.Values{"status": {"archived"}}, http.StatusUnprocessableEntity},
		{"search too long", url.Values{"search": {strings.Repeat("a", 101)}}, http.StatusUnprocessableEntity},
		{"sql in search", url.Values{"search": {"x' OR 1=1 --"}}, http.StatusBadRequest},
		{"unknown sort falls back", url.Values{"sort_by": {"popularity"}}, http.StatusOK},
		{"all statuses", url.Values{"status": {"all"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.do(http.MethodGet, "/products/?"+tt.query.Encode(), nil, "")
			assert.Equal(t, tt.status, res.Status, string(res.Body))
		})
	}
}

func TestSellerProductsListEveryStatus(t *testing.T) {
	f := newAPI(t)
	seller := testutil.CreateUser(t, f.db, "seller")
	category := testutil.CreateCategory(t, f.db, "Books")
	testutil.CreateProduct(t, f.db, seller, category, "Novel", 5)
	sold := testutil.CreateProduct(t, f.db, seller, category, "Atlas", 9)
	require.NoError(t, f.db.Model(sold).Update("status", models.StatusSold).Error)

	var page models.ProductPage
	res := f.do(http.MethodGet, "/products/seller/"+seller.ID, nil, "")
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	res.decode(t, &page)
	assert.EqualValues(t, 2, page.Total)

	res = f.do(http.MethodGet, "/products/seller/"+seller.ID+"?status=sold", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	page = models.ProductPage{}
	res.decode(t, &page)
	assert.EqualValues(t, 1, page.Total)

	res = f.do(http.MethodGet, "/products/seller/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Seller not found", res.detail(t))
}

func TestCategoryEndpoints(t *testing.T) {
	f := newAPI(t)
	seller := testutil.CreateUser(t, f.db, "seller")
	token := f.login("seller")

	res := f.do(http.MethodPost, "/categories/", fiber.Map{"name": "Garden"}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = f.do(http.MethodPost, "/categories/", fiber.Map{"name": "Garden", "description": "Plants and tools"}, token)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	var garden models.Category
	res.decode(t, &garden)

	res = f.do(http.MethodPost, "/categories/", fiber.Map{"name": "Garden"}, token)
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "Category with this name already exists", res.detail(t))

	res = f.do(http.MethodPost, "/categories/", fiber.Map{"name": ""}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)

	res = f.do(http.MethodPut, "/categories/"+garden.ID, fiber.Map{"description": "Outdoor"}, token)
	require.Equal(t, http.StatusOK, res.Status)
	res.decode(t, &garden)
	require.NotNil(t, garden.Description)
	assert.Equal(t, "Outdoor", *garden.Description)

	testutil.CreateProduct(t, f.db, seller, &garden, "Rake", 10)
	testutil.CreateProduct(t, f.db, seller, &garden, "Hose", 30)

	res = f.do(http.MethodGet, "/categories/?include_count=true", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	var list models.CategoryList
	res.decode(t, &list)
	require.EqualValues(t, 1, list.Total)
	require.NotNil(t, list.Categories[0].ProductCount)
	assert.EqualValues(t, 2, *list.Categories[0].ProductCount)

	res = f.do(http.MethodGet, "/categories/"+garden.ID+"/products?max_price=20", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	var page models.ProductPage
	res.decode(t, &page)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "Rake", page.Products[0].Title)

	res = f.do(http.MethodGet, "/categories/"+garden.ID+"/stats", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	var stats models.CategoryStats
	res.decode(t, &stats)
	assert.EqualValues(t, 2, stats.TotalProducts)
	assert.InDelta(t, 20.0, stats.PriceStats.AvgPrice, 0.001)

	res = f.do(http.MethodGet, "/categories/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Category not found", res.detail(t))
}

func TestCategoryDeleteCascadesAndInvalidates(t *testing.T) {
	f := newAPI(t)
	seller := testutil.CreateUser(t, f.db, "seller")
	category := testutil.CreateCategory(t, f.db, "Toys")
	testutil.CreateProduct(t, f.db, seller, category, "Kite", 8)
	testutil.CreateProduct(t, f.db, seller, category, "Yo-yo", 3)
	token := f.login("seller")

	// Warm the listing cache.
	var page models.ProductPage
	res := f.do(http.MethodGet, "/products/", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	res.decode(t, &page)
	require.EqualValues(t, 2, page.Total)

	res = f.do(http.MethodDelete, "/categories/"+category.ID, nil, token)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	var deleted map[string]any
	res.decode(t, &deleted)
	assert.Equal(t, "Category deleted successfully", deleted["message"])
	assert.EqualValues(t, 2, deleted["deleted_products_count"])

	res = f.do(http.MethodGet, "/products/", nil, "")
	require.Equal(t, http.StatusOK, res.Status)
	page = models.ProductPage{}
	res.decode(t, &page)
	assert.EqualValues(t, 0, page.Total)

	res = f.do(http.MethodGet, "/categories/"+category.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestSearchRateLimitOnlyAppliesToSearches(t *testing.T) {
	f := newAPI(t, func(c *config.Config) {
		c.RateLimitEnabled = true
		c.RateLimitSearch = "1/minute"
	})

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/products/?search=lamp", nil, "").Status)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/products/?search=desk", nil, "").Status)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/products/", nil, "").Status)
}
