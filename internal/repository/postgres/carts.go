package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/pkg/errors"
)

type cartRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sql.DB, logger *zap.Logger) *cartRepository {
	return &cartRepository{
		db:     db,
		logger: logger,
	}
}

// GetOrCreateByCustomerID returns the customer's cart, creating it if absent.
// A customer has at most one cart (unique index on customer_id).
func (r *cartRepository) GetOrCreateByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	query := `
		INSERT INTO carts (id, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (customer_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id, customer_id, created_at, updated_at
	`

	now := time.Now()
	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, uuid.New(), customerID, now).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to get or create cart", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, customer_id, created_at, updated_at
		FROM carts
		WHERE id = $1
	`

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get cart by ID", zap.Error(err))
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepository) GetLines(ctx context.Context, cartID uuid.UUID) ([]*domain.CartLine, error) {
	query := `
		SELECT id, cart_id, product_id, variant_id, quantity
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY product_id, variant_id
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		r.logger.Error("Failed to get cart lines", zap.Error(err), zap.String("cart_id", cartID.String()))
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.CartID, &line.ProductID, &line.VariantID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, &line)
	}

	return lines, rows.Err()
}

func (r *cartRepository) GetLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64) (*domain.CartLine, error) {
	query := `
		SELECT id, cart_id, product_id, variant_id, quantity
		FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2 AND variant_id = $3
	`

	var line domain.CartLine
	err := r.db.QueryRowContext(ctx, query, cartID, productID, variantID).Scan(
		&line.ID,
		&line.CartID,
		&line.ProductID,
		&line.VariantID,
		&line.Quantity,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get cart line", zap.Error(err))
		return nil, err
	}

	return &line, nil
}

// UpsertLine creates the (cart, product, variant) line or increments its
// quantity. The unique index keeps one line per tuple.
func (r *cartRepository) UpsertLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64, addQuantity int) error {
	query := `
		INSERT INTO cart_lines (id, cart_id, product_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id, variant_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), cartID, productID, variantID, addQuantity)
	if err != nil {
		r.logger.Error("Failed to upsert cart line", zap.Error(err), zap.String("cart_id", cartID.String()))
		return err
	}

	return nil
}

func (r *cartRepository) SetLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_lines
		SET quantity = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, lineID, quantity)
	if err != nil {
		r.logger.Error("Failed to set cart line quantity", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &errors.ErrNotFound{Resource: "cart_line", ID: lineID.String()}
	}

	return nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64) error {
	query := `
		DELETE FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2 AND variant_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, cartID, productID, variantID)
	if err != nil {
		r.logger.Error("Failed to delete cart line", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &errors.ErrNotFound{Resource: "cart_line", ID: fmt.Sprintf("%d-%d", productID, variantID)}
	}

	return nil
}

// DeleteCart removes the cart and all its lines.
func (r *cartRepository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		r.logger.Error("Failed to delete cart lines", zap.Error(err), zap.String("cart_id", cartID.String()))
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		r.logger.Error("Failed to delete cart", zap.Error(err), zap.String("cart_id", cartID.String()))
		return err
	}

	return tx.Commit()
}
