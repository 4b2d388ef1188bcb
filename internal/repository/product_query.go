package repository

import (
	"strings"

	"marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort keys accepted by ProductFilter.SortBy.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"title":      "title",
}

// ProductFilter selects one page of products. Zero values mean "no filter",
// except Status, where "" and StatusAll both disable the filter.
type ProductFilter struct {
	Page       int
	PerPage    int
	CategoryID string
	SellerID   string
	MinPrice   *float64
	MaxPrice   *float64
	Status     string
	Search     string
	SortBy     string
	SortOrder  string
}

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.SellerID != "" {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Status != "" && f.Status != models.StatusAll {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	return q
}

// orderBy sorts by the requested column, falling back to created_at, with id
// as a stable tie-break.
func (f ProductFilter) orderBy() clause.OrderBy {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: !strings.EqualFold(f.SortOrder, "asc")},
		{Column: clause.Column{Name: "id"}},
	}}
}

func (f ProductFilter) normalized() ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 10
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
	return f
}
