package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/pkg/errors"
)

// In-memory fakes implementing the repository and session contracts,
// including the stock-guard and idempotency semantics of the postgres
// implementations.

var (
	_ repository.ProductRepository     = (*fakeProductRepo)(nil)
	_ repository.VariantRepository     = (*fakeVariantRepo)(nil)
	_ repository.CustomerRepository    = (*fakeCustomerRepo)(nil)
	_ repository.CartRepository        = (*fakeCartRepo)(nil)
	_ repository.OrderRepository       = (*fakeOrderRepo)(nil)
	_ repository.CorrelationRepository = (*fakeCorrelationRepo)(nil)
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*domain.Product), nextID: 1}
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: strconv.FormatInt(id, 10)}
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product.ID = r.nextID
	r.nextID++
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.ID = 1
	return nil
}

func (r *fakeProductRepo) CreateBrand(ctx context.Context, brand *domain.Brand) error {
	brand.ID = 1
	return nil
}

type fakeVariantRepo struct {
	mu                sync.Mutex
	variants          map[int64]*domain.Variant
	nextID            int64
	getAvailableCalls int
}

func newFakeVariantRepo() *fakeVariantRepo {
	return &fakeVariantRepo{variants: make(map[int64]*domain.Variant), nextID: 1}
}

func (r *fakeVariantRepo) GetByID(ctx context.Context, id int64) (*domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "variant", ID: strconv.FormatInt(id, 10)}
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVariantRepo) ListByProductID(ctx context.Context, productID int64) ([]*domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Variant
	for _, v := range r.variants {
		if v.ProductID == productID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeVariantRepo) GetAvailable(ctx context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getAvailableCalls++
	v, ok := r.variants[id]
	if !ok {
		return 0, &errors.ErrNotFound{Resource: "variant", ID: strconv.FormatInt(id, 10)}
	}
	return v.Stock, nil
}

func (r *fakeVariantRepo) availableCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getAvailableCalls
}

func (r *fakeVariantRepo) Decrement(ctx context.Context, id int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decrementLocked(id, quantity)
}

func (r *fakeVariantRepo) decrementLocked(id int64, quantity int) error {
	v, ok := r.variants[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "variant", ID: strconv.FormatInt(id, 10)}
	}
	if v.Stock < quantity {
		return &errors.ErrInsufficientStock{VariantID: id, Requested: quantity, Available: v.Stock}
	}
	v.Stock -= quantity
	return nil
}

func (r *fakeVariantRepo) Create(ctx context.Context, variant *domain.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	variant.ID = r.nextID
	r.nextID++
	cp := *variant
	r.variants[variant.ID] = &cp
	return nil
}

func (r *fakeVariantRepo) stock(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variants[id].Stock
}

type fakeCustomerRepo struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*domain.Customer
	byUsername map[string]*domain.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		byID:       make(map[uuid.UUID]*domain.Customer),
		byUsername: make(map[string]*domain.Customer),
	}
}

func (r *fakeCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[customer.Username]; exists {
		return &errors.ErrConflict{Message: "username already taken"}
	}
	cp := *customer
	r.byID[customer.ID] = &cp
	r.byUsername[customer.Username] = &cp
	return nil
}

func (r *fakeCustomerRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "customer", ID: id.String()}
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) GetByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUsername[username]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "customer", ID: username}
	}
	cp := *c
	return &cp, nil
}

type fakeCartRepo struct {
	mu         sync.Mutex
	byCustomer map[uuid.UUID]*domain.Cart
	byID       map[uuid.UUID]*domain.Cart
	lines      map[uuid.UUID][]*domain.CartLine
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		byCustomer: make(map[uuid.UUID]*domain.Cart),
		byID:       make(map[uuid.UUID]*domain.Cart),
		lines:      make(map[uuid.UUID][]*domain.CartLine),
	}
}

func (r *fakeCartRepo) GetOrCreateByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart, ok := r.byCustomer[customerID]; ok {
		cp := *cart
		return &cp, nil
	}
	cart := &domain.Cart{ID: uuid.New(), CustomerID: customerID}
	r.byCustomer[customerID] = cart
	r.byID[cart.ID] = cart
	cp := *cart
	return &cp, nil
}

func (r *fakeCartRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.byID[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: id.String()}
	}
	cp := *cart
	return &cp, nil
}

func (r *fakeCartRepo) GetLines(ctx context.Context, cartID uuid.UUID) ([]*domain.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CartLine
	for _, line := range r.lines[cartID] {
		cp := *line
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCartRepo) GetLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64) (*domain.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.lines[cartID] {
		if line.ProductID == productID && line.VariantID == variantID {
			cp := *line
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCartRepo) UpsertLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64, addQuantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.lines[cartID] {
		if line.ProductID == productID && line.VariantID == variantID {
			line.Quantity += addQuantity
			return nil
		}
	}
	r.lines[cartID] = append(r.lines[cartID], &domain.CartLine{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  addQuantity,
	})
	return nil
}

func (r *fakeCartRepo) SetLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lines := range r.lines {
		for _, line := range lines {
			if line.ID == lineID {
				line.Quantity = quantity
				return nil
			}
		}
	}
	return &errors.ErrNotFound{Resource: "cart_line", ID: lineID.String()}
}

func (r *fakeCartRepo) DeleteLine(ctx context.Context, cartID uuid.UUID, productID, variantID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := r.lines[cartID]
	for i, line := range lines {
		if line.ProductID == productID && line.VariantID == variantID {
			r.lines[cartID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "cart_line", ID: domain.SessionCartKey(productID, variantID)}
}

func (r *fakeCartRepo) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.byID[cartID]
	if ok {
		delete(r.byCustomer, cart.CustomerID)
		delete(r.byID, cartID)
	}
	delete(r.lines, cartID)
	return nil
}

type fakeOrderRepo struct {
	mu         sync.Mutex
	variants   *fakeVariantRepo
	byID       map[uuid.UUID]*domain.Order
	byCheckout map[string]*domain.Order
	byToken    map[uuid.UUID]*domain.Order
	lines      map[uuid.UUID][]*domain.OrderLine
}

func newFakeOrderRepo(variants *fakeVariantRepo) *fakeOrderRepo {
	return &fakeOrderRepo{
		variants:   variants,
		byID:       make(map[uuid.UUID]*domain.Order),
		byCheckout: make(map[string]*domain.Order),
		byToken:    make(map[uuid.UUID]*domain.Order),
		lines:      make(map[uuid.UUID][]*domain.OrderLine),
	}
}

func (r *fakeOrderRepo) CreateWithStockDebit(ctx context.Context, order *domain.Order, lines []*domain.OrderLine, debits []repository.StockDebit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byCheckout[order.StripeCheckoutID]; exists {
		return &errors.ErrConflict{Message: "duplicate stripe_checkout_id"}
	}

	// All-or-nothing: verify every debit before applying any.
	r.variants.mu.Lock()
	for _, d := range debits {
		v, ok := r.variants.variants[d.VariantID]
		if !ok {
			r.variants.mu.Unlock()
			return &errors.ErrNotFound{Resource: "variant", ID: strconv.FormatInt(d.VariantID, 10)}
		}
		if v.Stock < d.Quantity {
			insufficient := &errors.ErrInsufficientStock{VariantID: d.VariantID, Requested: d.Quantity, Available: v.Stock}
			r.variants.mu.Unlock()
			return insufficient
		}
	}
	for _, d := range debits {
		r.variants.variants[d.VariantID].Stock -= d.Quantity
	}
	r.variants.mu.Unlock()

	cp := *order
	r.byID[order.ID] = &cp
	r.byCheckout[order.StripeCheckoutID] = &cp
	r.byToken[order.TrackingToken] = &cp
	for _, line := range lines {
		lcp := *line
		r.lines[order.ID] = append(r.lines[order.ID], &lcp)
	}
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByStripeCheckoutID(ctx context.Context, stripeCheckoutID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byCheckout[stripeCheckoutID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByTrackingToken(ctx context.Context, token uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byToken[token]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: token.String()}
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.byID {
		if o.CustomerEmail == email {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetLines(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.OrderLine
	for _, line := range r.lines[orderID] {
		cp := *line
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status domain.ShipmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	o.ShipmentStatus = status
	return nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type fakeCorrelationRepo struct {
	mu           sync.Mutex
	correlations map[string]*domain.CheckoutCorrelation
}

func newFakeCorrelationRepo() *fakeCorrelationRepo {
	return &fakeCorrelationRepo{correlations: make(map[string]*domain.CheckoutCorrelation)}
}

func (r *fakeCorrelationRepo) Create(ctx context.Context, correlation *domain.CheckoutCorrelation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *correlation
	r.correlations[correlation.StripeSessionID] = &cp
	return nil
}

func (r *fakeCorrelationRepo) GetBySessionID(ctx context.Context, stripeSessionID string) (*domain.CheckoutCorrelation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.correlations[stripeSessionID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "checkout_correlation", ID: stripeSessionID}
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCorrelationRepo) Delete(ctx context.Context, stripeSessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.correlations, stripeSessionID)
	return nil
}

type fakeSessionStore struct {
	mu        sync.Mutex
	carts     map[string]map[string]int
	customers map[string]uuid.UUID
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		carts:     make(map[string]map[string]int),
		customers: make(map[string]uuid.UUID),
	}
}

func (s *fakeSessionStore) CartMap(ctx context.Context, sessionID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.carts[sessionID]))
	for k, v := range s.carts[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (s *fakeSessionStore) IncrCartEntry(ctx context.Context, sessionID, key string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[sessionID] == nil {
		s.carts[sessionID] = make(map[string]int)
	}
	s.carts[sessionID][key] += delta
	return nil
}

func (s *fakeSessionStore) SetCartEntry(ctx context.Context, sessionID, key string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[sessionID] == nil {
		s.carts[sessionID] = make(map[string]int)
	}
	s.carts[sessionID][key] = quantity
	return nil
}

func (s *fakeSessionStore) RemoveCartEntry(ctx context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts[sessionID], key)
	return nil
}

func (s *fakeSessionStore) ClearCart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

func (s *fakeSessionStore) BindCustomer(ctx context.Context, sessionID string, customerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[sessionID] = customerID
	return nil
}

func (s *fakeSessionStore) CustomerID(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.customers[sessionID]
	return id, ok, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.customers, sessionID)
	delete(s.carts, sessionID)
	return nil
}

func (s *fakeSessionStore) cartLen(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts[sessionID])
}
