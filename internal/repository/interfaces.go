package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/EntertainPet/webshop/internal/domain"
)

// ProductFilter narrows catalog listings. Zero values mean "no filter".
type ProductFilter struct {
	Query         string
	CategoryID    int64
	BrandID       int64
	MinPriceCents int64
	MaxPriceCents int64
}

// ProductRepository defines catalog data access methods
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	CreateCategory(ctx context.Context, category *domain.Category) error
	CreateBrand(ctx context.Context, brand *domain.Brand) error
}

// VariantRepository is the variant stock ledger. Decrement must never allow
// stock to go negative, even under concurrent callers.
type VariantRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Variant, error)
	ListByProductID(ctx context.Context, productID int64) ([]*domain.Variant, error)
	GetAvailable(ctx context.Context, id int64) (int, error)
	Decrement(ctx context.Context, id int64, quantity int) error
	Create(ctx context.Context, variant *domain.Variant) error
}

// CustomerRepository defines customer data access methods
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetByUsername(ctx context.Context, username string) (*domain.Customer, error)
}

// CartRepository defines persisted cart data access methods.
// GetLine returns (nil, nil) when no line exists.
type CartRepository interface {
	GetOrCreateByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	GetLines(ctx context.Context, cartID uuid.UUID) ([]*domain.CartLine, error)
	GetLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64) (*domain.CartLine, error)
	UpsertLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64, addQuantity int) error
	SetLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}

// StockDebit is one variant debit to perform inside the order-creation
// transaction. Order lines snapshot only the variant label, so the live
// variant ids travel separately.
type StockDebit struct {
	VariantID int64
	Quantity  int
}

// OrderRepository defines order data access methods.
//
// CreateWithStockDebit inserts the order, its lines and every stock decrement
// in a single transaction: a failed decrement aborts the whole fulfillment and
// nothing is persisted. The unique index on stripe_checkout_id is the
// at-most-once enforcement for webhook replays; a duplicate insert surfaces as
// *errors.ErrConflict. GetByStripeCheckoutID returns (nil, nil) when absent.
type OrderRepository interface {
	CreateWithStockDebit(ctx context.Context, order *domain.Order, lines []*domain.OrderLine, debits []StockDebit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByStripeCheckoutID(ctx context.Context, stripeCheckoutID string) (*domain.Order, error)
	GetByTrackingToken(ctx context.Context, token uuid.UUID) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	GetLines(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLine, error)
	UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status domain.ShipmentStatus) error
}

// CorrelationRepository records the link between an external payment-session
// id and the cart that initiated checkout.
type CorrelationRepository interface {
	Create(ctx context.Context, correlation *domain.CheckoutCorrelation) error
	GetBySessionID(ctx context.Context, stripeSessionID string) (*domain.CheckoutCorrelation, error)
	Delete(ctx context.Context, stripeSessionID string) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Product     ProductRepository
	Variant     VariantRepository
	Customer    CustomerRepository
	Cart        CartRepository
	Order       OrderRepository
	Correlation CorrelationRepository
}
