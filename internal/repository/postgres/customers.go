package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/pkg/errors"
)

type customerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sql.DB, logger *zap.Logger) *customerRepository {
	return &customerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, username, email, password_hash, is_guest, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Username,
		customer.Email,
		customer.PasswordHash,
		customer.IsGuest,
		customer.IsAdmin,
		customer.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "username already taken"}
		}
		r.logger.Error("Failed to create customer", zap.Error(err))
		return err
	}

	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, username, email, password_hash, is_guest, is_admin, created_at
		FROM customers
		WHERE id = $1
	`

	var customer domain.Customer
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Username,
		&customer.Email,
		&customer.PasswordHash,
		&customer.IsGuest,
		&customer.IsAdmin,
		&customer.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "customer", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get customer by ID", zap.Error(err))
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) GetByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	query := `
		SELECT id, username, email, password_hash, is_guest, is_admin, created_at
		FROM customers
		WHERE username = $1
	`

	var customer domain.Customer
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&customer.ID,
		&customer.Username,
		&customer.Email,
		&customer.PasswordHash,
		&customer.IsGuest,
		&customer.IsAdmin,
		&customer.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "customer", ID: username}
	}
	if err != nil {
		r.logger.Error("Failed to get customer by username", zap.Error(err))
		return nil, err
	}

	return &customer, nil
}
