// Package models contains data structures for the marketplace domain.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered marketplace account.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string    `gorm:"column:hashed_password;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a server-generated identifier.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserPublic is the user representation returned by the API.
type UserPublic struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public strips credentials from the user.
func (u *User) Public() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserStats summarizes a seller's listings.
type UserStats struct {
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	MemberSince       time.Time `json:"member_since"`
	TotalProducts     int64     `json:"total_products"`
	AvailableProducts int64     `json:"available_products"`
	SoldProducts      int64     `json:"sold_products"`
	PendingProducts   int64     `json:"pending_products"`
	ProfileCompletion int       `json:"profile_completion"`
}
