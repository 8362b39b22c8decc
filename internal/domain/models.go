package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category groups products in the catalog
type Category struct {
	ID          int64
	Name        string
	Description string
	ImageURL    string
}

// Brand is a product manufacturer
type Brand struct {
	ID       int64
	Name     string
	ImageURL string
}

// Product is a catalog entry. It is immutable from the storefront's point of
// view; only the admin edits it, and cart/checkout logic touches it solely
// through variant stock.
type Product struct {
	ID             int64
	Name           string
	Description    string
	PriceCents     int64
	SalePriceCents *int64
	CategoryID     int64
	BrandID        int64
	Available      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FinalPriceCents returns the sale price when set, the base price otherwise.
func (p *Product) FinalPriceCents() int64 {
	if p.SalePriceCents != nil {
		return *p.SalePriceCents
	}
	return p.PriceCents
}

// Variant is a purchasable size/option of a product with its own stock
// counter. Stock is decremented only by fulfillment, never by cart adds.
type Variant struct {
	ID        int64
	ProductID int64
	Label     string
	Stock     int
}

// Customer is a storefront account. Guest customers are created on the fly so
// guest checkout has a persisted cart to correlate against.
type Customer struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsGuest      bool
	IsAdmin      bool
	CreatedAt    time.Time
}

// Cart is the persisted cart of a customer. A customer has at most one.
type Cart struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartLine is one (product, variant) entry with a quantity. One line per
// (cart, product, variant); repeated adds increment the quantity.
type CartLine struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID int64
	VariantID int64
	Quantity  int
}

// SessionCartKey is the session-map key for an anonymous cart entry.
func SessionCartKey(productID, variantID int64) string {
	return fmt.Sprintf("%d-%d", productID, variantID)
}

// CheckoutCorrelation links an external payment-session id to the cart that
// initiated it. It is created at checkout start and consumed exactly once by
// fulfillment.
type CheckoutCorrelation struct {
	StripeSessionID string
	CartID          uuid.UUID
	CreatedAt       time.Time
}

// Order is created only by the fulfillment processor, exactly once per
// payment confirmation. stripe_checkout_id is unique and acts as the
// idempotency key.
type Order struct {
	ID               uuid.UUID
	StripeCheckoutID string
	CustomerEmail    string
	Currency         string
	TotalCents       int64
	Status           OrderStatus
	ShipmentStatus   ShipmentStatus
	TrackingToken    uuid.UUID
	CreatedAt        time.Time
}

// OrderLine is a frozen copy of a purchased cart line. The variant label is
// snapshotted so later catalog edits cannot alter historical orders.
type OrderLine struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      int64
	ProductName    string
	VariantLabel   string
	UnitPriceCents int64
	Quantity       int
}

// CartIdentity is the tagged variant over the two cart representations:
// an anonymous session map or a customer's persisted cart.
type CartIdentity struct {
	sessionID  string
	customerID uuid.UUID
	persisted  bool
}

// SessionIdentity identifies an anonymous cart living in the session store.
func SessionIdentity(sessionID string) CartIdentity {
	return CartIdentity{sessionID: sessionID}
}

// CustomerIdentity identifies a customer's persisted cart.
func CustomerIdentity(customerID uuid.UUID) CartIdentity {
	return CartIdentity{customerID: customerID, persisted: true}
}

func (id CartIdentity) Persisted() bool       { return id.persisted }
func (id CartIdentity) SessionID() string     { return id.sessionID }
func (id CartIdentity) CustomerID() uuid.UUID { return id.customerID }

// CartViewLine is one rendered cart line with resolved product data.
type CartViewLine struct {
	ProductID      int64  `json:"product_id"`
	VariantID      int64  `json:"variant_id"`
	ProductName    string `json:"product_name"`
	VariantLabel   string `json:"variant_label"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// CartView is the computed-on-read view of a cart: never cached.
type CartView struct {
	Lines         []CartViewLine `json:"lines"`
	SubtotalCents int64          `json:"subtotal_cents"`
	ItemCount     int            `json:"item_count"`
}
