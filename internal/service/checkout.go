package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/config"
	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/payment"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/internal/session"
	"github.com/EntertainPet/webshop/pkg/errors"
)

// PaymentProvider opens hosted payment sessions with an external processor.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
}

// CheckoutService turns a non-empty cart into a hosted payment session. An
// anonymous shopper gets a guest customer materialized first, so there is
// always a persisted cart for the webhook to correlate against.
type CheckoutService struct {
	products     repository.ProductRepository
	variants     repository.VariantRepository
	customers    repository.CustomerRepository
	carts        repository.CartRepository
	correlations repository.CorrelationRepository
	cart         *CartService
	sessions     session.Store
	provider     PaymentProvider
	cfg          config.CheckoutConfig
	logger       *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	repos *repository.Repositories,
	cart *CartService,
	sessions session.Store,
	provider PaymentProvider,
	cfg config.CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		products:     repos.Product,
		variants:     repos.Variant,
		customers:    repos.Customer,
		carts:        repos.Cart,
		correlations: repos.Correlation,
		cart:         cart,
		sessions:     sessions,
		provider:     provider,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start opens a payment session for the shopper's cart and returns the URL to
// redirect them to. No stock is reserved and no order exists yet; the cart id
// is recorded against the payment-session id so the confirmation webhook can
// find it later.
func (s *CheckoutService) Start(ctx context.Context, identity domain.CartIdentity, email string) (*payment.CheckoutSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &errors.ErrValidation{Message: "a valid email address is required"}
	}

	if !identity.Persisted() {
		// Reject an empty session cart before materializing anything, so a
		// failed attempt leaves no orphan guest account behind.
		sessionCart, err := s.sessions.CartMap(ctx, identity.SessionID())
		if err != nil {
			return nil, err
		}
		if len(sessionCart) == 0 {
			return nil, &errors.ErrValidation{Message: "cart is empty"}
		}

		customerID, err := s.materializeGuest(ctx, identity.SessionID(), email)
		if err != nil {
			return nil, err
		}
		identity = domain.CustomerIdentity(customerID)
	}

	cart, err := s.carts.GetOrCreateByCustomerID(ctx, identity.CustomerID())
	if err != nil {
		return nil, err
	}

	lines, err := s.carts.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &errors.ErrValidation{Message: "cart is empty"}
	}

	items := make([]payment.LineItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		variant, err := s.variants.GetByID(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		items = append(items, payment.LineItem{
			Name:           fmt.Sprintf("%s (%s)", product.Name, variant.Label),
			UnitPriceCents: product.FinalPriceCents(),
			Quantity:       int64(line.Quantity),
		})
	}

	checkoutSession, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		CartID:           cart.ID.String(),
		CustomerEmail:    email,
		Currency:         s.cfg.Currency,
		Lines:            items,
		ShippingFeeCents: s.cfg.ShippingFeeCents,
	})
	if err != nil {
		return nil, err
	}

	correlation := &domain.CheckoutCorrelation{
		StripeSessionID: checkoutSession.ID,
		CartID:          cart.ID,
		CreatedAt:       time.Now(),
	}
	if err := s.correlations.Create(ctx, correlation); err != nil {
		s.logger.Error("Failed to record checkout correlation",
			zap.String("stripe_session_id", checkoutSession.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Checkout session created",
		zap.String("stripe_session_id", checkoutSession.ID),
		zap.String("cart_id", cart.ID.String()))

	return checkoutSession, nil
}

// materializeGuest creates a throwaway customer for an anonymous shopper,
// binds the session to it and folds the session cart into the new persisted
// cart.
func (s *CheckoutService) materializeGuest(ctx context.Context, sessionID, email string) (uuid.UUID, error) {
	guest := &domain.Customer{
		ID:       uuid.New(),
		Username: "guest-" + uuid.NewString()[:8],
		Email:    email,
		IsGuest:  true,
	}
	if err := s.customers.Create(ctx, guest); err != nil {
		return uuid.Nil, err
	}

	if err := s.cart.MergeSessionIntoCustomer(ctx, sessionID, guest.ID); err != nil {
		return uuid.Nil, err
	}

	if err := s.sessions.BindCustomer(ctx, sessionID, guest.ID); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Guest customer materialized for checkout",
		zap.String("customer_id", guest.ID.String()))

	return guest.ID, nil
}
