package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShipmentStatusTransitions(t *testing.T) {
	tests := []struct {
		from    ShipmentStatus
		to      ShipmentStatus
		allowed bool
	}{
		{ShipmentStatusPreparing, ShipmentStatusInTransit, true},
		{ShipmentStatusInTransit, ShipmentStatusDelivered, true},
		{ShipmentStatusPreparing, ShipmentStatusDelivered, false},
		{ShipmentStatusInTransit, ShipmentStatusPreparing, false},
		{ShipmentStatusDelivered, ShipmentStatusPreparing, false},
		{ShipmentStatusDelivered, ShipmentStatusInTransit, false},
		{ShipmentStatusPreparing, ShipmentStatusPreparing, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestShipmentStatusProgress(t *testing.T) {
	assert.Equal(t, 0, ShipmentStatusPreparing.Progress())
	assert.Equal(t, 50, ShipmentStatusInTransit.Progress())
	assert.Equal(t, 100, ShipmentStatusDelivered.Progress())
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, OrderStatusPaid.IsValid())
	assert.True(t, OrderStatusPendingPayment.IsValid())
	assert.False(t, OrderStatus("shipped").IsValid())

	assert.True(t, ShipmentStatusPreparing.IsValid())
	assert.False(t, ShipmentStatus("lost").IsValid())
}

func TestSessionCartKey(t *testing.T) {
	assert.Equal(t, "10-3", SessionCartKey(10, 3))
}

func TestFinalPriceCents(t *testing.T) {
	p := &Product{PriceCents: 2000}
	assert.Equal(t, int64(2000), p.FinalPriceCents())

	sale := int64(1500)
	p.SalePriceCents = &sale
	assert.Equal(t, int64(1500), p.FinalPriceCents())
}
