package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/internal/session"
	"github.com/EntertainPet/webshop/pkg/errors"
)

// MaxLineQuantity is the sane upper bound for a single cart line.
const MaxLineQuantity = 99

// CartService unifies the two cart representations behind one contract,
// dispatching on the identity variant: anonymous carts live in the session
// store, customer carts in cart_lines rows. Stock checks here are advisory
// only; the authoritative debit happens at fulfillment.
type CartService struct {
	products repository.ProductRepository
	variants repository.VariantRepository
	carts    repository.CartRepository
	sessions session.Store
	logger   *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	products repository.ProductRepository,
	variants repository.VariantRepository,
	carts repository.CartRepository,
	sessions session.Store,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		products: products,
		variants: variants,
		carts:    carts,
		sessions: sessions,
		logger:   logger,
	}
}

// Add puts quantity units of (product, variant) into the cart, merging with
// any existing line for the same tuple. The requested total including the
// existing line must fit within the variant's available stock.
func (s *CartService) Add(ctx context.Context, identity domain.CartIdentity, productID, variantID int64, quantity int) error {
	if quantity <= 0 || quantity > MaxLineQuantity {
		return &errors.ErrValidation{Message: "quantity must be between 1 and " + strconv.Itoa(MaxLineQuantity)}
	}

	variant, err := s.variants.GetByID(ctx, variantID)
	if err != nil {
		return err
	}
	if variant.ProductID != productID {
		return &errors.ErrValidation{Message: "variant does not belong to product"}
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Available {
		return &errors.ErrValidation{Message: "product is not available"}
	}

	existing, err := s.lineQuantity(ctx, identity, productID, variantID)
	if err != nil {
		return err
	}

	// The bound applies to the merged line, not just this request.
	if existing+quantity > MaxLineQuantity {
		return &errors.ErrValidation{Message: "line quantity cannot exceed " + strconv.Itoa(MaxLineQuantity)}
	}

	if existing+quantity > variant.Stock {
		return &errors.ErrInsufficientStock{
			VariantID: variantID,
			Requested: existing + quantity,
			Available: variant.Stock,
		}
	}

	if !identity.Persisted() {
		return s.sessions.IncrCartEntry(ctx, identity.SessionID(), domain.SessionCartKey(productID, variantID), quantity)
	}

	cart, err := s.carts.GetOrCreateByCustomerID(ctx, identity.CustomerID())
	if err != nil {
		return err
	}
	return s.carts.UpsertLine(ctx, cart.ID, productID, variantID, quantity)
}

// Update changes a line's quantity by delta. Increases clamp at the variant's
// available stock; decreases floor at quantity 1 (Remove deletes a line).
func (s *CartService) Update(ctx context.Context, identity domain.CartIdentity, productID, variantID int64, delta int) error {
	if delta == 0 {
		return &errors.ErrValidation{Message: "delta must be non-zero"}
	}

	current, err := s.lineQuantity(ctx, identity, productID, variantID)
	if err != nil {
		return err
	}
	if current == 0 {
		return &errors.ErrNotFound{Resource: "cart_line", ID: domain.SessionCartKey(productID, variantID)}
	}

	newQuantity := current + delta
	if delta > 0 {
		available, err := s.variants.GetAvailable(ctx, variantID)
		if err != nil {
			return err
		}
		if newQuantity > available {
			newQuantity = available
		}
		if newQuantity > MaxLineQuantity {
			newQuantity = MaxLineQuantity
		}
		if newQuantity < current {
			newQuantity = current
		}
	} else if newQuantity < 1 {
		newQuantity = 1
	}

	if !identity.Persisted() {
		return s.sessions.SetCartEntry(ctx, identity.SessionID(), domain.SessionCartKey(productID, variantID), newQuantity)
	}

	cart, err := s.carts.GetOrCreateByCustomerID(ctx, identity.CustomerID())
	if err != nil {
		return err
	}
	line, err := s.carts.GetLine(ctx, cart.ID, productID, variantID)
	if err != nil {
		return err
	}
	if line == nil {
		return &errors.ErrNotFound{Resource: "cart_line", ID: domain.SessionCartKey(productID, variantID)}
	}
	return s.carts.SetLineQuantity(ctx, line.ID, newQuantity)
}

// Remove deletes a line entirely.
func (s *CartService) Remove(ctx context.Context, identity domain.CartIdentity, productID, variantID int64) error {
	if !identity.Persisted() {
		return s.sessions.RemoveCartEntry(ctx, identity.SessionID(), domain.SessionCartKey(productID, variantID))
	}

	cart, err := s.carts.GetOrCreateByCustomerID(ctx, identity.CustomerID())
	if err != nil {
		return err
	}
	return s.carts.DeleteLine(ctx, cart.ID, productID, variantID)
}

// View renders the cart with resolved products: subtotal is the sum of
// final_price * quantity over all lines, computed on every read.
func (s *CartService) View(ctx context.Context, identity domain.CartIdentity) (*domain.CartView, error) {
	entries, err := s.entries(ctx, identity)
	if err != nil {
		return nil, err
	}

	view := &domain.CartView{Lines: []domain.CartViewLine{}}
	for _, entry := range entries {
		product, err := s.products.GetByID(ctx, entry.productID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				s.logger.Warn("Cart references missing product, skipping line",
					zap.Int64("product_id", entry.productID))
				continue
			}
			return nil, err
		}
		variant, err := s.variants.GetByID(ctx, entry.variantID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				s.logger.Warn("Cart references missing variant, skipping line",
					zap.Int64("variant_id", entry.variantID))
				continue
			}
			return nil, err
		}

		unitPrice := product.FinalPriceCents()
		view.Lines = append(view.Lines, domain.CartViewLine{
			ProductID:      product.ID,
			VariantID:      variant.ID,
			ProductName:    product.Name,
			VariantLabel:   variant.Label,
			UnitPriceCents: unitPrice,
			Quantity:       entry.quantity,
			LineTotalCents: unitPrice * int64(entry.quantity),
		})
		view.SubtotalCents += unitPrice * int64(entry.quantity)
		view.ItemCount += entry.quantity
	}

	return view, nil
}

// MergeSessionIntoCustomer folds the anonymous session cart into the
// customer's persisted cart: quantities for the same (product, variant) are
// summed, new lines are created otherwise. The session map is cleared
// unconditionally afterwards, so calling merge again is a no-op. Invoked at
// login, registration and guest-identity creation.
func (s *CartService) MergeSessionIntoCustomer(ctx context.Context, sessionID string, customerID uuid.UUID) error {
	sessionCart, err := s.sessions.CartMap(ctx, sessionID)
	if err != nil {
		return err
	}

	if len(sessionCart) > 0 {
		cart, err := s.carts.GetOrCreateByCustomerID(ctx, customerID)
		if err != nil {
			return err
		}

		for key, quantity := range sessionCart {
			productID, variantID, ok := parseSessionCartKey(key)
			if !ok {
				s.logger.Warn("Malformed session cart key, skipping", zap.String("key", key))
				continue
			}

			if _, err := s.variants.GetByID(ctx, variantID); err != nil {
				if _, notFound := err.(*errors.ErrNotFound); notFound {
					s.logger.Warn("Session cart references missing variant, skipping",
						zap.Int64("variant_id", variantID))
					continue
				}
				return err
			}

			if err := s.carts.UpsertLine(ctx, cart.ID, productID, variantID, quantity); err != nil {
				return err
			}
		}
	}

	return s.sessions.ClearCart(ctx, sessionID)
}

type cartEntry struct {
	productID int64
	variantID int64
	quantity  int
}

func (s *CartService) entries(ctx context.Context, identity domain.CartIdentity) ([]cartEntry, error) {
	if !identity.Persisted() {
		sessionCart, err := s.sessions.CartMap(ctx, identity.SessionID())
		if err != nil {
			return nil, err
		}
		entries := make([]cartEntry, 0, len(sessionCart))
		for key, quantity := range sessionCart {
			productID, variantID, ok := parseSessionCartKey(key)
			if !ok {
				continue
			}
			entries = append(entries, cartEntry{productID: productID, variantID: variantID, quantity: quantity})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].productID != entries[j].productID {
				return entries[i].productID < entries[j].productID
			}
			return entries[i].variantID < entries[j].variantID
		})
		return entries, nil
	}

	cart, err := s.carts.GetOrCreateByCustomerID(ctx, identity.CustomerID())
	if err != nil {
		return nil, err
	}
	lines, err := s.carts.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	entries := make([]cartEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, cartEntry{productID: line.ProductID, variantID: line.VariantID, quantity: line.Quantity})
	}
	return entries, nil
}

func (s *CartService) lineQuantity(ctx context.Context, identity domain.CartIdentity, productID, variantID int64) (int, error) {
	if !identity.Persisted() {
		sessionCart, err := s.sessions.CartMap(ctx, identity.SessionID())
		if err != nil {
			return 0, err
		}
		return sessionCart[domain.SessionCartKey(productID, variantID)], nil
	}

	cart, err := s.carts.GetOrCreateByCustomerID(ctx, identity.CustomerID())
	if err != nil {
		return 0, err
	}
	line, err := s.carts.GetLine(ctx, cart.ID, productID, variantID)
	if err != nil {
		return 0, err
	}
	if line == nil {
		return 0, nil
	}
	return line.Quantity, nil
}

func parseSessionCartKey(key string) (productID, variantID int64, ok bool) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	productID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	variantID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return productID, variantID, true
}
