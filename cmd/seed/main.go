// Command main runs the database seeder for the marketplace.
package main

import (
	"flag"
	"log"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numProducts := flag.Int("products", 150, "Number of products to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d products, clean=%v", *numUsers, *numProducts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.NewSeeder(db).Run(seed.Options{
		NumUsers:    *numUsers,
		NumProducts: *numProducts,
		ShouldClean: *shouldClean,
		RandSeed:    *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d categories, %d users and %d products", res.Categories, res.Users, res.Products)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
