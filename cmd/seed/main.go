package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/EntertainPet/webshop/internal/config"
	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository/postgres"
)

// Seeds the catalog with demo data: categories, brands, thirty products with
// size variants, a test customer and an admin account.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	categoriesData := []struct{ name, description string }{
		{"Dog Food", "Dry and wet food for dogs"},
		{"Cat Food", "Dry and wet food for cats"},
		{"Toys", "Play and enrichment"},
		{"Leashes & Collars", "Walking gear"},
		{"Beds", "Sleeping and resting"},
		{"Grooming", "Brushes, shampoos and clippers"},
	}
	var categories []*domain.Category
	for _, data := range categoriesData {
		category := &domain.Category{Name: data.name, Description: data.description}
		if err := repos.Product.CreateCategory(ctx, category); err != nil {
			logger.Fatal("Failed to create category", zap.String("name", data.name), zap.Error(err))
		}
		categories = append(categories, category)
	}
	fmt.Println("Categories created")

	brandNames := []string{"PawPrime", "WhiskerWorks", "TailWag", "FurEver", "BarkBox", "Meowtopia"}
	var brands []*domain.Brand
	for _, name := range brandNames {
		brand := &domain.Brand{Name: name}
		if err := repos.Product.CreateBrand(ctx, brand); err != nil {
			logger.Fatal("Failed to create brand", zap.String("name", name), zap.Error(err))
		}
		brands = append(brands, brand)
	}
	fmt.Println("Brands created")

	prices := []int64{4999, 5999, 7999, 9999, 12999}
	variantLabels := []string{"S", "M", "L", "XL", "400g", "2kg", "5kg", "10kg"}

	for i := 1; i <= 30; i++ {
		price := prices[rng.Intn(len(prices))]
		product := &domain.Product{
			Name:        fmt.Sprintf("Demo Product %d", i),
			Description: fmt.Sprintf("Full description for demo product %d.", i),
			PriceCents:  price,
			CategoryID:  categories[rng.Intn(len(categories))].ID,
			BrandID:     brands[rng.Intn(len(brands))].ID,
			Available:   true,
		}
		// Every fifth product is on sale.
		if i%5 == 0 {
			sale := price - 2000
			product.SalePriceCents = &sale
		}
		if err := repos.Product.Create(ctx, product); err != nil {
			logger.Fatal("Failed to create product", zap.Error(err))
		}

		for _, j := range rng.Perm(len(variantLabels))[:4] {
			variant := &domain.Variant{
				ProductID: product.ID,
				Label:     variantLabels[j],
				Stock:     1 + rng.Intn(30),
			}
			if err := repos.Variant.Create(ctx, variant); err != nil {
				logger.Fatal("Failed to create variant", zap.Error(err))
			}
		}
	}
	fmt.Println("Products and variants created")

	hash, err := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("Failed to hash password", zap.Error(err))
	}
	customer := &domain.Customer{
		ID:           uuid.New(),
		Username:     "customer_test",
		Email:        "customer@test.com",
		PasswordHash: string(hash),
	}
	if err := repos.Customer.Create(ctx, customer); err != nil {
		logger.Warn("Test customer already exists, skipping", zap.Error(err))
	}

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("Failed to hash admin password", zap.Error(err))
	}
	admin := &domain.Customer{
		ID:           uuid.New(),
		Username:     "admin",
		Email:        "admin@test.com",
		PasswordHash: string(adminHash),
		IsAdmin:      true,
	}
	if err := repos.Customer.Create(ctx, admin); err != nil {
		logger.Warn("Admin already exists, skipping", zap.Error(err))
	}

	fmt.Println("Seed completed successfully!")
}
