// Package seed creates demo accounts, categories and listings for local
// development. It writes through gorm directly and skips the service layer.
package seed

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

var nonUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// catalog maps the built-in category names to item nouns used in titles.
var catalog = map[string][]string{
	"Electronics": {"Laptop", "Headphones", "Monitor", "Keyboard", "Tablet", "Camera", "Speaker"},
	"Books":       {"Textbook", "Novel", "Cookbook", "Atlas", "Dictionary", "Comic"},
	"Furniture":   {"Desk", "Chair", "Bookshelf", "Lamp", "Sofa", "Dresser"},
	"Clothing":    {"Jacket", "Sweater", "Sneakers", "Backpack", "Scarf", "Hoodie"},
	"Sports":      {"Bicycle", "Skateboard", "Tennis racket", "Yoga mat", "Football", "Helmet"},
	"Kitchen":     {"Kettle", "Blender", "Frying pan", "Coffee maker", "Toaster", "Knife set"},
}

var statusWeights = []string{
	models.StatusAvailable, models.StatusAvailable, models.StatusAvailable,
	models.StatusAvailable, models.StatusSold, models.StatusPending,
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	hash  string
}

// NewFactory creates a Factory. A zero seed draws a random one; any other
// seed makes the generated data reproducible.
func NewFactory(db *gorm.DB, seed int64) (*Factory, error) {
	// One hash is shared by every user; bcrypt per row makes seeding slow.
	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{db: db, faker: gofakeit.New(seed), hash: hash}, nil
}

// BuildUser returns an unsaved user with a unique-looking username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	base := nonUsernameChars.ReplaceAllString(f.faker.Username(), "")
	if len(base) > 40 {
		base = base[:40]
	}
	username := fmt.Sprintf("%s%d", base, f.faker.Number(100, 99999))
	user := &models.User{
		Username:     username,
		Email:        strings.ToLower(username) + "@example.com",
		PasswordHash: f.hash,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCategory persists a category, reusing an existing one with the same name.
func (f *Factory) CreateCategory(name string) (*models.Category, error) {
	description := fmt.Sprintf("%s listed by students and neighbours", name)
	category := &models.Category{Name: name, Description: &description}
	err := f.db.Where(models.Category{Name: name}).FirstOrCreate(category).Error
	if err != nil {
		return nil, err
	}
	return category, nil
}

// BuildProduct returns an unsaved listing of seller filed under category.
func (f *Factory) BuildProduct(seller *models.User, category *models.Category, overrides ...func(*models.Product)) *models.Product {
	nouns, ok := catalog[category.Name]
	if !ok {
		nouns = []string{f.faker.Noun()}
	}
	title := fmt.Sprintf("%s %s %s", titleCase(f.faker.Adjective()), f.faker.Color(), f.faker.RandomString(nouns))
	description := f.faker.Sentence(14)
	imageURL := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())

	product := &models.Product{
		Title:       title,
		Description: &description,
		Price:       math.Round(f.faker.Price(5, 1500)*100) / 100,
		Status:      f.faker.RandomString(statusWeights),
		ImageURL:    &imageURL,
		Images:      []string{},
		SellerID:    seller.ID,
		CategoryID:  category.ID,
		CreatedAt:   time.Now().Add(-time.Duration(f.faker.Number(0, 90*24)) * time.Hour),
	}
	for _, override := range overrides {
		override(product)
	}
	return product
}

// CreateProductsBatch persists products in batches of 100.
func (f *Factory) CreateProductsBatch(products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return f.db.CreateInBatches(products, 100).Error
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
