package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/pkg/errors"
)

type correlationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCorrelationRepository creates a new checkout correlation repository
func NewCorrelationRepository(db *sql.DB, logger *zap.Logger) *correlationRepository {
	return &correlationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *correlationRepository) Create(ctx context.Context, correlation *domain.CheckoutCorrelation) error {
	query := `
		INSERT INTO checkout_correlations (stripe_session_id, cart_id, created_at)
		VALUES ($1, $2, $3)
	`

	if correlation.CreatedAt.IsZero() {
		correlation.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		correlation.StripeSessionID,
		correlation.CartID,
		correlation.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create checkout correlation", zap.Error(err),
			zap.String("stripe_session_id", correlation.StripeSessionID))
		return err
	}

	return nil
}

func (r *correlationRepository) GetBySessionID(ctx context.Context, stripeSessionID string) (*domain.CheckoutCorrelation, error) {
	query := `
		SELECT stripe_session_id, cart_id, created_at
		FROM checkout_correlations
		WHERE stripe_session_id = $1
	`

	var correlation domain.CheckoutCorrelation
	err := r.db.QueryRowContext(ctx, query, stripeSessionID).Scan(
		&correlation.StripeSessionID,
		&correlation.CartID,
		&correlation.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "checkout_correlation", ID: stripeSessionID}
	}
	if err != nil {
		r.logger.Error("Failed to get checkout correlation", zap.Error(err),
			zap.String("stripe_session_id", stripeSessionID))
		return nil, err
	}

	return &correlation, nil
}

func (r *correlationRepository) Delete(ctx context.Context, stripeSessionID string) error {
	query := `DELETE FROM checkout_correlations WHERE stripe_session_id = $1`

	_, err := r.db.ExecContext(ctx, query, stripeSessionID)
	if err != nil {
		r.logger.Error("Failed to delete checkout correlation", zap.Error(err),
			zap.String("stripe_session_id", stripeSessionID))
		return err
	}

	return nil
}
