package payment

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/config"
)

// LineItem is one cart line rendered for the payment processor, priced at the
// moment of checkout initiation.
type LineItem struct {
	Name           string
	UnitPriceCents int64
	Quantity       int64
}

// CheckoutRequest carries everything needed to open a hosted payment session.
// CartID travels as opaque metadata so the confirmation webhook can be
// correlated back to the originating cart.
type CheckoutRequest struct {
	CartID           string
	CustomerEmail    string
	Currency         string
	Lines            []LineItem
	ShippingFeeCents int64
}

// CheckoutSession is the processor's handle: the session id is the
// correlation/idempotency key, the URL is where the buyer is redirected.
type CheckoutSession struct {
	ID  string
	URL string
}

type stripeProvider struct {
	cfg    config.CheckoutConfig
	logger *zap.Logger
}

// NewStripeProvider creates a payment provider backed by Stripe Checkout.
// The package-level API key is set once here.
func NewStripeProvider(stripeCfg config.StripeConfig, checkoutCfg config.CheckoutConfig, logger *zap.Logger) *stripeProvider {
	stripe.Key = stripeCfg.SecretKey
	return &stripeProvider{cfg: checkoutCfg, logger: logger}
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	currency := req.Currency
	if currency == "" {
		currency = p.cfg.Currency
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines)+1)
	for _, line := range req.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(line.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	if req.ShippingFeeCents > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(req.ShippingFeeCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping"),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(p.cfg.CancelURL),
		LineItems:  lineItems,
	}
	params.Context = ctx
	params.AddMetadata("cart_id", req.CartID)
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	sess, err := session.New(params)
	if err != nil {
		p.logger.Error("Failed to create Stripe checkout session", zap.Error(err))
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
