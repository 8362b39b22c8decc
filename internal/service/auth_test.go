package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/pkg/errors"
)

type authFixture struct {
	customers *fakeCustomerRepo
	variants  *fakeVariantRepo
	carts     *fakeCartRepo
	sessions  *fakeSessionStore
	svc       *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		customers: newFakeCustomerRepo(),
		variants:  newFakeVariantRepo(),
		carts:     newFakeCartRepo(),
		sessions:  newFakeSessionStore(),
	}
	logger := zap.NewNop()
	cart := NewCartService(newFakeProductRepo(), f.variants, f.carts, f.sessions, logger)
	f.svc = NewAuthService(f.customers, cart, f.sessions, logger)
	return f
}

func TestRegisterBindsSessionAndMergesCart(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	variant := &domain.Variant{ProductID: 1, Label: "small", Stock: 5}
	require.NoError(t, f.variants.Create(ctx, variant))
	key := domain.SessionCartKey(1, variant.ID)
	require.NoError(t, f.sessions.SetCartEntry(ctx, "sess-1", key, 2))

	customer, err := f.svc.Register(ctx, "sess-1", "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.False(t, customer.IsGuest)
	assert.NotEmpty(t, customer.PasswordHash)
	assert.NotEqual(t, "correct horse", customer.PasswordHash)

	boundID, bound, err := f.sessions.CustomerID(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, bound)
	assert.Equal(t, customer.ID, boundID)

	cart, err := f.carts.GetOrCreateByCustomerID(ctx, customer.ID)
	require.NoError(t, err)
	lines, err := f.carts.GetLines(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "sess-1", "alice", "a@example.com", "password1")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "sess-2", "alice", "b@example.com", "password2")
	require.Error(t, err)
	_, ok := err.(*errors.ErrConflict)
	assert.True(t, ok, "expected ErrConflict, got %T", err)
}

func TestRegisterWeakPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "sess-1", "bob", "b@example.com", "short")
	require.Error(t, err)
	_, ok := err.(*errors.ErrValidation)
	assert.True(t, ok, "expected ErrValidation, got %T", err)
}

func TestLoginVerifiesPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, "sess-1", "carol", "c@example.com", "hunter2hunter2")
	require.NoError(t, err)

	customer, err := f.svc.Login(ctx, "sess-2", "carol", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, customer.ID)

	_, err = f.svc.Login(ctx, "sess-3", "carol", "wrong password")
	require.Error(t, err)
	_, ok := err.(*errors.ErrUnauthorized)
	assert.True(t, ok, "expected ErrUnauthorized, got %T", err)

	_, err = f.svc.Login(ctx, "sess-3", "nobody", "whatever")
	require.Error(t, err)
	_, ok = err.(*errors.ErrUnauthorized)
	assert.True(t, ok, "unknown username must read the same as a bad password, got %T", err)
}

func TestContinueAsGuest(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	guest, err := f.svc.ContinueAsGuest(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, guest.IsGuest)

	boundID, bound, err := f.sessions.CustomerID(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, bound)
	assert.Equal(t, guest.ID, boundID)
}

func TestLogoutDropsSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.ContinueAsGuest(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, f.sessions.SetCartEntry(ctx, "sess-1", "1-1", 1))

	require.NoError(t, f.svc.Logout(ctx, "sess-1"))

	_, bound, err := f.sessions.CustomerID(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, bound)
	assert.Zero(t, f.sessions.cartLen("sess-1"))
}
