// Package testutil provides shared fixtures for marketplace tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "Sup3r-secret!"

// NewTestConfig returns development defaults suited to tests: sqlite in
// memory, a fixed JWT secret and uploads under a temp dir.
func NewTestConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Env = "test"
	cfg.DBDriver = "sqlite"
	cfg.SQLitePath = ":memory:"
	cfg.JWTSecret = "test-secret-key-that-is-at-least-32-chars"
	cfg.UploadDir = t.TempDir()
	return cfg
}

// NewTestDB opens a migrated in-memory sqlite database closed at test end.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user whose password is TestPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	if username == "" {
		username = gofakeit.Username()
	}
	hash, err := auth.HashPassword(TestPassword)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCategory inserts a category with the given name.
func CreateCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()
	if name == "" {
		name = gofakeit.ProductCategory() + " " + gofakeit.LetterN(6)
	}
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreateProduct inserts an available product.
func CreateProduct(t testing.TB, db *gorm.DB, seller *models.User, category *models.Category, title string, price float64) *models.Product {
	t.Helper()
	if title == "" {
		title = gofakeit.ProductName()
	}
	product := &models.Product{
		Title:      title,
		Price:      price,
		SellerID:   seller.ID,
		CategoryID: category.ID,
	}
	require.NoError(t, db.Omit("Seller", "Category").Create(product).Error)
	return product
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// PNGHeader returns a PNG signature and IHDR chunk declaring a w x h RGB
// image with no pixel data. It is enough for image.DecodeConfig.
func PNGHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	buf := bytes.NewBufferString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}
