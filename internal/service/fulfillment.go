package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/pkg/errors"
)

// PaymentEvent is a verified payment confirmation as delivered by the
// processor's webhook.
type PaymentEvent struct {
	StripeSessionID  string
	CustomerEmail    string
	Currency         string
	AmountTotalCents int64
}

// FulfillmentResult classifies the outcome of processing a payment event.
type FulfillmentResult string

const (
	ResultFulfilled        FulfillmentResult = "fulfilled"
	ResultAlreadyFulfilled FulfillmentResult = "already_fulfilled"
	ResultRejected         FulfillmentResult = "rejected"
)

// FulfillmentService converts confirmed payments into orders, at most once
// per payment session. Replayed events are absorbed: the first delivery wins
// and every later one reports already_fulfilled without touching stock.
type FulfillmentService struct {
	products     repository.ProductRepository
	variants     repository.VariantRepository
	carts        repository.CartRepository
	orders       repository.OrderRepository
	correlations repository.CorrelationRepository
	notifier     Notifier
	logger       *zap.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(repos *repository.Repositories, notifier Notifier, logger *zap.Logger) *FulfillmentService {
	return &FulfillmentService{
		products:     repos.Product,
		variants:     repos.Variant,
		carts:        repos.Cart,
		orders:       repos.Order,
		correlations: repos.Correlation,
		notifier:     notifier,
		logger:       logger,
	}
}

// HandleCheckoutCompleted fulfills one confirmed payment:
// probe for an existing order, resolve the cart through the stored
// correlation, snapshot the lines, then write the order and debit stock in a
// single transaction. Cart and correlation cleanup plus the confirmation
// email happen after commit and are best-effort.
func (s *FulfillmentService) HandleCheckoutCompleted(ctx context.Context, event PaymentEvent) (FulfillmentResult, error) {
	existing, err := s.orders.GetByStripeCheckoutID(ctx, event.StripeSessionID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		s.logger.Info("Payment event replayed, order already exists",
			zap.String("stripe_session_id", event.StripeSessionID),
			zap.String("order_id", existing.ID.String()))
		return ResultAlreadyFulfilled, nil
	}

	correlation, err := s.correlations.GetBySessionID(ctx, event.StripeSessionID)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			s.logger.Warn("Payment event has no checkout correlation",
				zap.String("stripe_session_id", event.StripeSessionID))
			return ResultRejected, nil
		}
		return "", err
	}

	cartLines, err := s.carts.GetLines(ctx, correlation.CartID)
	if err != nil {
		return "", err
	}
	if len(cartLines) == 0 {
		s.logger.Warn("Correlated cart is empty or gone",
			zap.String("cart_id", correlation.CartID.String()))
		return ResultRejected, nil
	}

	order := &domain.Order{
		ID:               uuid.New(),
		StripeCheckoutID: event.StripeSessionID,
		CustomerEmail:    event.CustomerEmail,
		Currency:         event.Currency,
		TotalCents:       event.AmountTotalCents,
		Status:           domain.OrderStatusPaid,
		ShipmentStatus:   domain.ShipmentStatusPreparing,
		TrackingToken:    uuid.New(),
	}

	orderLines := make([]*domain.OrderLine, 0, len(cartLines))
	debits := make([]repository.StockDebit, 0, len(cartLines))
	var computedTotal int64
	for _, line := range cartLines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				s.logger.Warn("Cart line references missing product, rejecting fulfillment",
					zap.Int64("product_id", line.ProductID))
				return ResultRejected, nil
			}
			return "", err
		}
		variant, err := s.variants.GetByID(ctx, line.VariantID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				s.logger.Warn("Cart line references missing variant, rejecting fulfillment",
					zap.Int64("variant_id", line.VariantID))
				return ResultRejected, nil
			}
			return "", err
		}

		unitPrice := product.FinalPriceCents()
		orderLines = append(orderLines, &domain.OrderLine{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			VariantLabel:   variant.Label,
			UnitPriceCents: unitPrice,
			Quantity:       line.Quantity,
		})
		debits = append(debits, repository.StockDebit{VariantID: variant.ID, Quantity: line.Quantity})
		computedTotal += unitPrice * int64(line.Quantity)
	}

	// The processor's amount is authoritative; fall back to the cart sum when
	// the event omits it.
	if order.TotalCents <= 0 {
		order.TotalCents = computedTotal
	}

	if err := s.orders.CreateWithStockDebit(ctx, order, orderLines, debits); err != nil {
		switch e := err.(type) {
		case *errors.ErrConflict:
			// A concurrent replay won the race. Same outcome as the probe.
			s.logger.Info("Order already created by concurrent delivery",
				zap.String("stripe_session_id", event.StripeSessionID))
			return ResultAlreadyFulfilled, nil
		case *errors.ErrInsufficientStock:
			s.logger.Warn("Stock exhausted between checkout and fulfillment",
				zap.Int64("variant_id", e.VariantID),
				zap.Int("requested", e.Requested),
				zap.Int("available", e.Available))
			// The buyer has already paid; tell them the order failed instead
			// of leaving them waiting for a confirmation.
			if notifyErr := s.notifier.FulfillmentFailed(ctx, event.CustomerEmail, event.StripeSessionID); notifyErr != nil {
				s.logger.Error("Failed to send fulfillment failure notice",
					zap.String("stripe_session_id", event.StripeSessionID),
					zap.Error(notifyErr))
			}
			return ResultRejected, nil
		default:
			return "", err
		}
	}

	if err := s.carts.DeleteCart(ctx, correlation.CartID); err != nil {
		s.logger.Error("Failed to clear cart after fulfillment",
			zap.String("cart_id", correlation.CartID.String()),
			zap.Error(err))
	}
	if err := s.correlations.Delete(ctx, event.StripeSessionID); err != nil {
		s.logger.Error("Failed to delete checkout correlation",
			zap.String("stripe_session_id", event.StripeSessionID),
			zap.Error(err))
	}

	if err := s.notifier.OrderConfirmation(ctx, order, orderLines); err != nil {
		// Notification failures never fail the fulfillment.
		s.logger.Error("Failed to send order confirmation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Order fulfilled",
		zap.String("order_id", order.ID.String()),
		zap.String("stripe_session_id", event.StripeSessionID),
		zap.Int64("total_cents", order.TotalCents))

	return ResultFulfilled, nil
}
