package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products under a unique name.
type Category struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description  *string   `gorm:"type:text" json:"description"`
	ProductCount *int64    `gorm:"-" json:"product_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a server-generated identifier.
func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CategoryList is the response body of the category index.
type CategoryList struct {
	Categories []Category `json:"categories"`
	Total      int64      `json:"total"`
}

// PriceStats aggregates prices of available products.
type PriceStats struct {
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
	AvgPrice float64 `json:"avg_price"`
}

// CategoryStats summarizes the products of one category.
type CategoryStats struct {
	CategoryID        string     `json:"category_id"`
	CategoryName      string     `json:"category_name"`
	TotalProducts     int64      `json:"total_products"`
	AvailableProducts int64      `json:"available_products"`
	SoldProducts      int64      `json:"sold_products"`
	PriceStats        PriceStats `json:"price_stats"`
}
