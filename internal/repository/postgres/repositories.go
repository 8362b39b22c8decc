package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/repository"
)

// NewRepositories creates all repositories backed by the given database
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Product:     NewProductRepository(db, logger),
		Variant:     NewVariantRepository(db, logger),
		Customer:    NewCustomerRepository(db, logger),
		Cart:        NewCartRepository(db, logger),
		Order:       NewOrderRepository(db, logger),
		Correlation: NewCorrelationRepository(db, logger),
	}
}
