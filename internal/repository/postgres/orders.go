package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateWithStockDebit inserts the order, its lines and every stock decrement
// in one transaction. The conditional stock update (stock >= quantity) guards
// against oversell under concurrent fulfillments; zero rows affected means
// insufficient stock and aborts the whole transaction. A duplicate
// stripe_checkout_id surfaces as ErrConflict so a replayed webhook that races
// past the idempotency lookup still cannot create a second order.
func (r *orderRepository) CreateWithStockDebit(ctx context.Context, order *domain.Order, lines []*domain.OrderLine, debits []repository.StockDebit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.TrackingToken == uuid.Nil {
		order.TrackingToken = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, stripe_checkout_id, customer_email, currency, total_cents,
			status, shipment_status, tracking_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID,
		order.StripeCheckoutID,
		order.CustomerEmail,
		order.Currency,
		order.TotalCents,
		order.Status,
		order.ShipmentStatus,
		order.TrackingToken,
		order.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "order already exists for checkout session " + order.StripeCheckoutID}
		}
		r.logger.Error("Failed to insert order", zap.Error(err), zap.String("stripe_checkout_id", order.StripeCheckoutID))
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = order.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, product_name, variant_label,
				unit_price_cents, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.ProductName,
			line.VariantLabel,
			line.UnitPriceCents,
			line.Quantity,
		)
		if err != nil {
			r.logger.Error("Failed to insert order line", zap.Error(err))
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	for _, debit := range debits {
		if err := debitStock(ctx, tx, debit.VariantID, debit.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := orderSelect + ` WHERE id = $1`

	order, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

// GetByStripeCheckoutID is the fulfillment idempotency probe: it returns
// (nil, nil) when no order exists for the checkout session.
func (r *orderRepository) GetByStripeCheckoutID(ctx context.Context, stripeCheckoutID string) (*domain.Order, error) {
	query := orderSelect + ` WHERE stripe_checkout_id = $1`

	order, err := r.scanOne(r.db.QueryRowContext(ctx, query, stripeCheckoutID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get order by checkout session", zap.Error(err), zap.String("stripe_checkout_id", stripeCheckoutID))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetByTrackingToken(ctx context.Context, token uuid.UUID) (*domain.Order, error) {
	query := orderSelect + ` WHERE tracking_token = $1`

	order, err := r.scanOne(r.db.QueryRowContext(ctx, query, token))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: token.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by tracking token", zap.Error(err))
		return nil, err
	}

	return order, nil
}

// ListByEmail returns all orders whose buyer email matches. This is an
// equality filter, not a foreign key: orders placed as guest under the same
// address show up for a later-registered account too.
func (r *orderRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := orderSelect + ` WHERE customer_email = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		r.logger.Error("Failed to list orders by email", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.StripeCheckoutID,
			&order.CustomerEmail,
			&order.Currency,
			&order.TotalCents,
			&order.Status,
			&order.ShipmentStatus,
			&order.TrackingToken,
			&order.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}

	return orders, rows.Err()
}

func (r *orderRepository) GetLines(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, product_name, variant_label, unit_price_cents, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY product_name
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get order lines", zap.Error(err), zap.String("order_id", orderID.String()))
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.VariantLabel,
			&line.UnitPriceCents,
			&line.Quantity,
		); err != nil {
			return nil, err
		}
		lines = append(lines, &line)
	}

	return lines, rows.Err()
}

func (r *orderRepository) UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status domain.ShipmentStatus) error {
	query := `
		UPDATE orders
		SET shipment_status = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update shipment status", zap.Error(err), zap.String("order_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

const orderSelect = `
	SELECT id, stripe_checkout_id, customer_email, currency, total_cents,
		status, shipment_status, tracking_token, created_at
	FROM orders`

func (r *orderRepository) scanOne(row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.StripeCheckoutID,
		&order.CustomerEmail,
		&order.Currency,
		&order.TotalCents,
		&order.Status,
		&order.ShipmentStatus,
		&order.TrackingToken,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
