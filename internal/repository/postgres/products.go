package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price_cents, sale_price_cents, category_id, brand_id,
			available, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	var salePriceCents sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.PriceCents,
		&salePriceCents,
		&product.CategoryID,
		&product.BrandID,
		&product.Available,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err), zap.Int64("product_id", id))
		return nil, err
	}

	if salePriceCents.Valid {
		product.SalePriceCents = &salePriceCents.Int64
	}

	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	query := `
		SELECT id, name, description, price_cents, sale_price_cents, category_id, brand_id,
			available, created_at, updated_at
		FROM products
		WHERE available = TRUE
	`

	args := []interface{}{}
	idx := 1
	if filter.Query != "" {
		query += ` AND (name ILIKE '%' || $` + strconv.Itoa(idx) + ` || '%' OR description ILIKE '%' || $` + strconv.Itoa(idx) + ` || '%')`
		args = append(args, filter.Query)
		idx++
	}
	if filter.CategoryID != 0 {
		query += ` AND category_id = $` + strconv.Itoa(idx)
		args = append(args, filter.CategoryID)
		idx++
	}
	if filter.BrandID != 0 {
		query += ` AND brand_id = $` + strconv.Itoa(idx)
		args = append(args, filter.BrandID)
		idx++
	}
	if filter.MinPriceCents > 0 {
		query += ` AND COALESCE(sale_price_cents, price_cents) >= $` + strconv.Itoa(idx)
		args = append(args, filter.MinPriceCents)
		idx++
	}
	if filter.MaxPriceCents > 0 {
		query += ` AND COALESCE(sale_price_cents, price_cents) <= $` + strconv.Itoa(idx)
		args = append(args, filter.MaxPriceCents)
		idx++
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var product domain.Product
		var salePriceCents sql.NullInt64
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.PriceCents,
			&salePriceCents,
			&product.CategoryID,
			&product.BrandID,
			&product.Available,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if salePriceCents.Valid {
			product.SalePriceCents = &salePriceCents.Int64
		}
		products = append(products, &product)
	}

	return products, rows.Err()
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price_cents, sale_price_cents, category_id, brand_id,
			available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}

	var salePriceCents sql.NullInt64
	if product.SalePriceCents != nil {
		salePriceCents = sql.NullInt64{Int64: *product.SalePriceCents, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		product.Name,
		product.Description,
		product.PriceCents,
		salePriceCents,
		product.CategoryID,
		product.BrandID,
		product.Available,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)

	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return err
	}

	return nil
}

func (r *productRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, description, image_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		category.Name,
		category.Description,
		category.ImageURL,
	).Scan(&category.ID)

	if err != nil {
		r.logger.Error("Failed to create category", zap.Error(err))
		return err
	}

	return nil
}

func (r *productRepository) CreateBrand(ctx context.Context, brand *domain.Brand) error {
	query := `
		INSERT INTO brands (name, image_url)
		VALUES ($1, $2)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		brand.Name,
		brand.ImageURL,
	).Scan(&brand.ID)

	if err != nil {
		r.logger.Error("Failed to create brand", zap.Error(err))
		return err
	}

	return nil
}
