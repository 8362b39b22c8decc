package domain

// OrderStatus is the payment lifecycle of an order
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPaid:
		return true
	default:
		return false
	}
}

// ShipmentStatus is the fulfillment lifecycle of a paid order
type ShipmentStatus string

const (
	ShipmentStatusPreparing ShipmentStatus = "preparing"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)

// IsValid checks if the shipment status is valid
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentStatusPreparing, ShipmentStatusInTransit, ShipmentStatusDelivered:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a shipment status transition is valid
func (s ShipmentStatus) CanTransitionTo(newStatus ShipmentStatus) bool {
	switch s {
	case ShipmentStatusPreparing:
		return newStatus == ShipmentStatusInTransit
	case ShipmentStatusInTransit:
		return newStatus == ShipmentStatusDelivered
	case ShipmentStatusDelivered:
		return false // Terminal state
	default:
		return false
	}
}

// Progress maps the shipment status to the tracking-page percentage.
func (s ShipmentStatus) Progress() int {
	switch s {
	case ShipmentStatusInTransit:
		return 50
	case ShipmentStatusDelivered:
		return 100
	default:
		return 0
	}
}
