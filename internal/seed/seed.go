package seed

import (
	"fmt"
	"log"
	"sort"

	"marketplace/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumProducts int
	ShouldClean bool
	// RandSeed makes the data reproducible when non-zero.
	RandSeed int64
}

// Result counts what a run created.
type Result struct {
	Users      int
	Categories int
	Products   int
}

// Seeder fills a database with demo data.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes every product, category and user.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Product{}, &models.Category{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// CategoryNames lists the built-in categories in a stable order.
func CategoryNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run seeds categories, users and products according to opts.
func (s *Seeder) Run(opts Options) (*Result, error) {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	f, err := NewFactory(s.db, opts.RandSeed)
	if err != nil {
		return nil, err
	}

	categories := make([]*models.Category, 0, len(catalog))
	for _, name := range CategoryNames() {
		category, err := f.CreateCategory(name)
		if err != nil {
			return nil, fmt.Errorf("seed category %s: %w", name, err)
		}
		categories = append(categories, category)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	var products []*models.Product
	if len(users) > 0 {
		products = make([]*models.Product, 0, opts.NumProducts)
		for i := 0; i < opts.NumProducts; i++ {
			products = append(products, f.BuildProduct(users[i%len(users)], categories[i%len(categories)]))
		}
		if err := f.CreateProductsBatch(products); err != nil {
			return nil, fmt.Errorf("seed products: %w", err)
		}
	}
	log.Printf("Created %d products", len(products))

	return &Result{Users: len(users), Categories: len(categories), Products: len(products)}, nil
}
