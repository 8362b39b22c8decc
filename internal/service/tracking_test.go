package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/pkg/errors"
)

func seedOrder(t *testing.T, orders *fakeOrderRepo, email string, shipment domain.ShipmentStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:               uuid.New(),
		StripeCheckoutID: "cs_" + uuid.NewString()[:8],
		CustomerEmail:    email,
		Currency:         "eur",
		TotalCents:       2500,
		Status:           domain.OrderStatusPaid,
		ShipmentStatus:   shipment,
		TrackingToken:    uuid.New(),
	}
	lines := []*domain.OrderLine{{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductID:      1,
		ProductName:    "Squeaky Ball",
		VariantLabel:   "medium",
		UnitPriceCents: 2500,
		Quantity:       1,
	}}
	require.NoError(t, orders.CreateWithStockDebit(context.Background(), order, lines, nil))
	return order
}

func newTrackingFixture() (*fakeOrderRepo, *TrackingService) {
	orders := newFakeOrderRepo(newFakeVariantRepo())
	return orders, NewTrackingService(orders, zap.NewNop())
}

func TestTrackByTokenReportsProgress(t *testing.T) {
	orders, svc := newTrackingFixture()
	order := seedOrder(t, orders, "buyer@example.com", domain.ShipmentStatusInTransit)

	info, err := svc.TrackByToken(context.Background(), order.TrackingToken)
	require.NoError(t, err)
	assert.Equal(t, 50, info.Progress)
	assert.Equal(t, domain.ShipmentStatusInTransit, info.Order.ShipmentStatus)
	require.Len(t, info.Lines, 1)
	assert.Equal(t, "Squeaky Ball", info.Lines[0].ProductName)
}

func TestTrackByTokenUnknown(t *testing.T) {
	_, svc := newTrackingFixture()

	_, err := svc.TrackByToken(context.Background(), uuid.New())
	require.Error(t, err)
	_, ok := err.(*errors.ErrNotFound)
	assert.True(t, ok, "expected ErrNotFound, got %T", err)
}

func TestOwnedDetailRequiresMatchingEmail(t *testing.T) {
	orders, svc := newTrackingFixture()
	order := seedOrder(t, orders, "owner@example.com", domain.ShipmentStatusPreparing)
	ctx := context.Background()

	detail, err := svc.OwnedDetail(ctx, "owner@example.com", order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, detail.Order.ID)
	require.Len(t, detail.Lines, 1)

	_, err = svc.OwnedDetail(ctx, "stranger@example.com", order.ID)
	require.Error(t, err)
	_, ok := err.(*errors.ErrNotFound)
	assert.True(t, ok, "ownership mismatch must read as not-found, got %T", err)
}

func TestUpdateShipmentForwardTransitions(t *testing.T) {
	orders, svc := newTrackingFixture()
	order := seedOrder(t, orders, "buyer@example.com", domain.ShipmentStatusPreparing)
	ctx := context.Background()

	require.NoError(t, svc.UpdateShipment(ctx, order.ID, domain.ShipmentStatusInTransit))
	require.NoError(t, svc.UpdateShipment(ctx, order.ID, domain.ShipmentStatusDelivered))

	updated, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentStatusDelivered, updated.ShipmentStatus)
}

func TestUpdateShipmentRejectsSkipsAndBackwardMoves(t *testing.T) {
	orders, svc := newTrackingFixture()
	ctx := context.Background()

	preparing := seedOrder(t, orders, "a@example.com", domain.ShipmentStatusPreparing)
	err := svc.UpdateShipment(ctx, preparing.ID, domain.ShipmentStatusDelivered)
	require.Error(t, err)
	_, ok := err.(*errors.ErrInvalidStateTransition)
	assert.True(t, ok, "expected ErrInvalidStateTransition, got %T", err)

	delivered := seedOrder(t, orders, "b@example.com", domain.ShipmentStatusDelivered)
	err = svc.UpdateShipment(ctx, delivered.ID, domain.ShipmentStatusInTransit)
	require.Error(t, err)
	_, ok = err.(*errors.ErrInvalidStateTransition)
	assert.True(t, ok, "delivered is terminal, got %T", err)

	err = svc.UpdateShipment(ctx, preparing.ID, domain.ShipmentStatus("teleported"))
	require.Error(t, err)
	_, ok = err.(*errors.ErrValidation)
	assert.True(t, ok, "expected ErrValidation, got %T", err)
}

func TestByCheckoutSessionBeforeWebhook(t *testing.T) {
	_, svc := newTrackingFixture()

	order, err := svc.ByCheckoutSession(context.Background(), "cs_not_yet")
	require.NoError(t, err)
	assert.Nil(t, order, "no order yet means nil, not an error")
}
