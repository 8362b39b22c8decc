package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/pkg/errors"
)

type variantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVariantRepository creates a new variant stock ledger repository
func NewVariantRepository(db *sql.DB, logger *zap.Logger) *variantRepository {
	return &variantRepository{
		db:     db,
		logger: logger,
	}
}

func (r *variantRepository) GetByID(ctx context.Context, id int64) (*domain.Variant, error) {
	query := `
		SELECT id, product_id, label, stock
		FROM variants
		WHERE id = $1
	`

	var variant domain.Variant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&variant.ID,
		&variant.ProductID,
		&variant.Label,
		&variant.Stock,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "variant", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		r.logger.Error("Failed to get variant by ID", zap.Error(err), zap.Int64("variant_id", id))
		return nil, err
	}

	return &variant, nil
}

func (r *variantRepository) ListByProductID(ctx context.Context, productID int64) ([]*domain.Variant, error) {
	query := `
		SELECT id, product_id, label, stock
		FROM variants
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to list variants", zap.Error(err), zap.Int64("product_id", productID))
		return nil, err
	}
	defer rows.Close()

	var variants []*domain.Variant
	for rows.Next() {
		var variant domain.Variant
		if err := rows.Scan(&variant.ID, &variant.ProductID, &variant.Label, &variant.Stock); err != nil {
			return nil, err
		}
		variants = append(variants, &variant)
	}

	return variants, rows.Err()
}

func (r *variantRepository) GetAvailable(ctx context.Context, id int64) (int, error) {
	query := `SELECT stock FROM variants WHERE id = $1`

	var stock int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&stock)
	if err == sql.ErrNoRows {
		return 0, &errors.ErrNotFound{Resource: "variant", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		r.logger.Error("Failed to get available stock", zap.Error(err), zap.Int64("variant_id", id))
		return 0, err
	}

	return stock, nil
}

// Decrement debits stock atomically. It runs the same guarded statement the
// fulfillment transaction uses, so every path through the ledger shares one
// oversell check.
func (r *variantRepository) Decrement(ctx context.Context, id int64, quantity int) error {
	if err := debitStock(ctx, r.db, id, quantity); err != nil {
		if _, ok := err.(*errors.ErrInsufficientStock); !ok {
			r.logger.Error("Failed to decrement stock", zap.Error(err), zap.Int64("variant_id", id))
		}
		return err
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx, so the debit guard can run
// standalone or inside the order-creation transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// debitStock is the single stock-debit statement. The WHERE guard re-checks
// the current stock inside the statement so concurrent debits competing for
// the same last units can never drive the counter negative.
func debitStock(ctx context.Context, ex execer, variantID int64, quantity int) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE variants
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`,
		variantID, quantity,
	)
	if err != nil {
		return fmt.Errorf("debit stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var available int
		if scanErr := ex.QueryRowContext(ctx, `SELECT stock FROM variants WHERE id = $1`, variantID).Scan(&available); scanErr != nil {
			if scanErr == sql.ErrNoRows {
				return &errors.ErrNotFound{Resource: "variant", ID: strconv.FormatInt(variantID, 10)}
			}
			return scanErr
		}
		return &errors.ErrInsufficientStock{VariantID: variantID, Requested: quantity, Available: available}
	}

	return nil
}

func (r *variantRepository) Create(ctx context.Context, variant *domain.Variant) error {
	query := `
		INSERT INTO variants (product_id, label, stock)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		variant.ProductID,
		variant.Label,
		variant.Stock,
	).Scan(&variant.ID)

	if err != nil {
		r.logger.Error("Failed to create variant", zap.Error(err))
		return err
	}

	return nil
}
