package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product statuses.
const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusPending   = "pending"
	// StatusAll is a filter value only; it disables the status filter.
	StatusAll = "all"
)

// Product is a listing owned by one seller and filed under one category.
type Product struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:200;not null;index" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"not null;index" json:"price"`
	Status      string    `gorm:"size:20;not null;default:available;index" json:"status"`
	ImageURL    *string   `gorm:"size:500" json:"image_url"`
	Images      []string  `gorm:"serializer:json;type:text" json:"images"`
	SellerID    string    `gorm:"size:36;not null;index" json:"seller_id"`
	Seller      *User     `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"seller,omitempty"`
	CategoryID  string    `gorm:"size:36;not null;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a server-generated identifier and the default status.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

// ProductPage is one page of a product query.
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

// TotalPages is ceil(total/perPage), or 0 for an empty result.
func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
