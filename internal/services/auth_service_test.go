package services

import (
	"context"
	"testing"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func registerReq(email string) *domain.RegisterRequest {
	return &domain.RegisterRequest{
		Email:    email,
		Password: "s3cret-pass",
		Name:     "Ana",
		LastName: "Torres",
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.authSvc.Register(ctx, registerReq("Ana@Example.COM"))
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", result.Customer.Email)
	assert.NotEqual(t, "s3cret-pass", result.Customer.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(result.Customer.PasswordHash), []byte("s3cret-pass")))
	assert.NotEqual(t, uuid.Nil, result.CartID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.authSvc.Register(ctx, registerReq("ana@example.com"))
	require.NoError(t, err)

	_, err = env.authSvc.Register(ctx, registerReq("ANA@example.com"))
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegisterMergesAnonymousCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(3000, 10)

	anon := domain.NewCart(nil)
	require.NoError(t, env.carts.Create(ctx, anon))
	_, err := env.cartSvc.AddLine(ctx, anon.ID, domain.AddLineRequest{
		ProductID: product.ID.String(),
		Quantity:  2,
	})
	require.NoError(t, err)

	req := registerReq("ana@example.com")
	req.AnonymousCartID = anon.ID.String()
	result, err := env.authSvc.Register(ctx, req)
	require.NoError(t, err)

	merged, err := env.carts.GetByID(ctx, result.CartID)
	require.NoError(t, err)
	require.Len(t, merged.Lines, 1)
	assert.Equal(t, 2, merged.Lines[0].Quantity)

	// Анонимная корзина поглощена
	_, err = env.carts.GetByID(ctx, anon.ID)
	assert.Error(t, err)
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	registered, err := env.authSvc.Register(ctx, registerReq("ana@example.com"))
	require.NoError(t, err)

	result, err := env.authSvc.Login(ctx, &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.Customer.ID, result.Customer.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.authSvc.Register(ctx, registerReq("ana@example.com"))
	require.NoError(t, err)

	_, err = env.authSvc.Login(ctx, &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.authSvc.Login(ctx, &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginMergesAnonymousCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(1000, 10)

	registered, err := env.authSvc.Register(ctx, registerReq("ana@example.com"))
	require.NoError(t, err)

	anon := domain.NewCart(nil)
	require.NoError(t, env.carts.Create(ctx, anon))
	_, err = env.cartSvc.AddLine(ctx, anon.ID, domain.AddLineRequest{
		ProductID: product.ID.String(),
		Quantity:  3,
	})
	require.NoError(t, err)

	result, err := env.authSvc.Login(ctx, &domain.LoginRequest{
		Email:           "ana@example.com",
		Password:        "s3cret-pass",
		AnonymousCartID: anon.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, registered.Customer.ID, result.Customer.ID)

	merged, err := env.carts.GetByID(ctx, result.CartID)
	require.NoError(t, err)
	require.Len(t, merged.Lines, 1)
	assert.Equal(t, 3, merged.Lines[0].Quantity)
}

func TestLoginMalformedCartTokenIgnored(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.authSvc.Register(ctx, registerReq("ana@example.com"))
	require.NoError(t, err)

	result, err := env.authSvc.Login(ctx, &domain.LoginRequest{
		Email:           "ana@example.com",
		Password:        "s3cret-pass",
		AnonymousCartID: "not-a-uuid",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.CartID)
}
