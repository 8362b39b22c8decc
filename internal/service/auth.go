package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/internal/session"
	"github.com/EntertainPet/webshop/pkg/errors"
)

// AuthService handles account registration and session login. Every identity
// change folds the anonymous session cart into the customer's persisted cart.
type AuthService struct {
	customers repository.CustomerRepository
	cart      *CartService
	sessions  session.Store
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(customers repository.CustomerRepository, cart *CartService, sessions session.Store, logger *zap.Logger) *AuthService {
	return &AuthService{
		customers: customers,
		cart:      cart,
		sessions:  sessions,
		logger:    logger,
	}
}

// Register creates an account, binds the session to it and merges the
// session cart.
func (s *AuthService) Register(ctx context.Context, sessionID, username, email, password string) (*domain.Customer, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &errors.ErrValidation{Message: "username is required"}
	}
	if len(password) < 8 {
		return nil, &errors.ErrValidation{Message: "password must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.bind(ctx, sessionID, customer.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

// Login verifies credentials, binds the session and merges the session cart.
func (s *AuthService) Login(ctx context.Context, sessionID, username, password string) (*domain.Customer, error) {
	customer, err := s.customers.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return nil, &errors.ErrUnauthorized{Message: "invalid username or password"}
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)) != nil {
		return nil, &errors.ErrUnauthorized{Message: "invalid username or password"}
	}

	if err := s.bind(ctx, sessionID, customer.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Customer logged in", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

// ContinueAsGuest creates a throwaway account so an anonymous shopper gets a
// persisted cart without registering.
func (s *AuthService) ContinueAsGuest(ctx context.Context, sessionID string) (*domain.Customer, error) {
	guest := &domain.Customer{
		ID:       uuid.New(),
		Username: "guest-" + uuid.NewString()[:8],
		IsGuest:  true,
	}
	if err := s.customers.Create(ctx, guest); err != nil {
		return nil, err
	}

	if err := s.bind(ctx, sessionID, guest.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Guest customer created", zap.String("customer_id", guest.ID.String()))
	return guest, nil
}

// Logout drops the whole session, cart included.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *AuthService) bind(ctx context.Context, sessionID string, customerID uuid.UUID) error {
	if err := s.cart.MergeSessionIntoCustomer(ctx, sessionID, customerID); err != nil {
		return err
	}
	return s.sessions.BindCustomer(ctx, sessionID, customerID)
}
