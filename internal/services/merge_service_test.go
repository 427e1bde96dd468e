package services

import (
	"context"
	"testing"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOnLoginMigratesLinesVerbatim(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	productA := env.seedProduct(1200, 10)
	productB := env.seedProduct(800, 10)

	// Анонимная корзина: A x2, B x1
	anonSnapshot, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)
	_, err = env.cartSvc.AddLine(ctx, anonSnapshot.CartID, domain.AddLineRequest{
		ProductID: productA.ID.String(),
		Quantity:  2,
		Size:      "L",
	})
	require.NoError(t, err)
	_, err = env.cartSvc.AddLine(ctx, anonSnapshot.CartID, domain.AddLineRequest{
		ProductID: productB.ID.String(),
		Quantity:  1,
	})
	require.NoError(t, err)

	anonCartID := anonSnapshot.CartID
	destID, err := env.mergeSvc.MergeOnLogin(ctx, &anonCartID, customer.ID)
	require.NoError(t, err)

	dest, err := env.carts.GetByID(ctx, destID)
	require.NoError(t, err)
	require.Len(t, dest.Lines, 2)

	byProduct := map[uuid.UUID]domain.CartLine{}
	for _, l := range dest.Lines {
		byProduct[l.ProductID] = l
	}
	assert.Equal(t, 2, byProduct[productA.ID].Quantity)
	assert.Equal(t, "L", byProduct[productA.ID].Size)
	assert.Equal(t, 1200.0, byProduct[productA.ID].UnitPrice)
	assert.Equal(t, 1, byProduct[productB.ID].Quantity)

	// Анонимная корзина удалена
	_, err = env.carts.GetByID(ctx, anonCartID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMergeOnLoginAppendsToExistingCustomerCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	owned := env.seedProduct(3000, 10)
	extra := env.seedProduct(900, 10)

	existing := env.seedCustomerCart(customer.ID, owned, 1)

	anonSnapshot, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)
	_, err = env.cartSvc.AddLine(ctx, anonSnapshot.CartID, domain.AddLineRequest{
		ProductID: extra.ID.String(),
		Quantity:  2,
	})
	require.NoError(t, err)

	anonCartID := anonSnapshot.CartID
	destID, err := env.mergeSvc.MergeOnLogin(ctx, &anonCartID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, destID)

	dest, err := env.carts.GetByID(ctx, destID)
	require.NoError(t, err)
	// Строка покупателя + строка из анонимной
	assert.Len(t, dest.Lines, 2)

	// Итог пересчитан по объединенным строкам
	expected := domain.ComputeTotals(dest.Lines).Total
	assert.InDelta(t, expected, dest.Total, 1e-9)
}

func TestMergeOnLoginWithoutAnonymousCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()

	destID, err := env.mergeSvc.MergeOnLogin(ctx, nil, customer.ID)
	require.NoError(t, err)

	dest, err := env.carts.GetByID(ctx, destID)
	require.NoError(t, err)
	assert.Empty(t, dest.Lines)
}

func TestMergeOnLoginMissingAnonymousCartRetiresReference(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()

	ghost := uuid.New()
	destID, err := env.mergeSvc.MergeOnLogin(ctx, &ghost, customer.ID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, destID)
}

func TestMergeOnLoginEmptyAnonymousCartStillDeleted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()

	anonSnapshot, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)

	anonCartID := anonSnapshot.CartID
	_, err = env.mergeSvc.MergeOnLogin(ctx, &anonCartID, customer.ID)
	require.NoError(t, err)

	_, err = env.carts.GetByID(ctx, anonCartID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
