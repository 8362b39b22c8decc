package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/pkg/errors"
)

// OrderDetail is an order with its frozen lines.
type OrderDetail struct {
	Order *domain.Order
	Lines []*domain.OrderLine
}

// TrackingInfo is the public tracking view reachable through the unguessable
// token, without any account context.
type TrackingInfo struct {
	Order    *domain.Order
	Lines    []*domain.OrderLine
	Progress int
}

// TrackingService exposes order history, the token-addressed tracking view
// and the admin shipment-status transitions.
type TrackingService struct {
	orders repository.OrderRepository
	logger *zap.Logger
}

// NewTrackingService creates a new tracking service
func NewTrackingService(orders repository.OrderRepository, logger *zap.Logger) *TrackingService {
	return &TrackingService{orders: orders, logger: logger}
}

// ListByEmail returns the orders placed under an email address, newest first.
func (s *TrackingService) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	return s.orders.ListByEmail(ctx, email)
}

// OwnedDetail returns one order with lines, but only when the requesting
// email matches the order's. A mismatch reads as not-found so order ids do
// not leak ownership.
func (s *TrackingService) OwnedDetail(ctx context.Context, email string, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerEmail != email {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}

	lines, err := s.orders.GetLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: order, Lines: lines}, nil
}

// TrackByToken resolves the public tracking view for a tracking token.
func (s *TrackingService) TrackByToken(ctx context.Context, token uuid.UUID) (*TrackingInfo, error) {
	order, err := s.orders.GetByTrackingToken(ctx, token)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.GetLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &TrackingInfo{
		Order:    order,
		Lines:    lines,
		Progress: order.ShipmentStatus.Progress(),
	}, nil
}

// ByCheckoutSession looks up the order created for a payment session.
// Returns (nil, nil) while the webhook has not landed yet, so the success
// page can poll.
func (s *TrackingService) ByCheckoutSession(ctx context.Context, stripeSessionID string) (*domain.Order, error) {
	return s.orders.GetByStripeCheckoutID(ctx, stripeSessionID)
}

// UpdateShipment advances an order's shipment status. Only the forward
// transitions preparing -> in_transit -> delivered are allowed; delivered is
// terminal.
func (s *TrackingService) UpdateShipment(ctx context.Context, orderID uuid.UUID, status domain.ShipmentStatus) error {
	if !status.IsValid() {
		return &errors.ErrValidation{Message: "unknown shipment status: " + string(status)}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.ShipmentStatus.CanTransitionTo(status) {
		return &errors.ErrInvalidStateTransition{
			From: string(order.ShipmentStatus),
			To:   string(status),
		}
	}

	if err := s.orders.UpdateShipmentStatus(ctx, orderID, status); err != nil {
		return err
	}

	s.logger.Info("Shipment status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(order.ShipmentStatus)),
		zap.String("to", string(status)))
	return nil
}
