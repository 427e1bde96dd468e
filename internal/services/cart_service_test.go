package services

import (
	"context"
	"testing"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCartAnonymous(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	snapshot, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, snapshot.CartID)
	assert.Empty(t, snapshot.Lines)
	assert.Equal(t, 0.0, snapshot.Totals.Total)

	// Повторный запрос с известным идентификатором возвращает ту же корзину
	again, err := env.cartSvc.GetOrCreateCart(ctx, domain.AnonymousOwner(snapshot.CartID))
	require.NoError(t, err)
	assert.Equal(t, snapshot.CartID, again.CartID)
}

func TestGetOrCreateCartCustomerHasOneCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	owner := domain.AuthenticatedOwner(customer.ID)

	first, err := env.cartSvc.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)

	second, err := env.cartSvc.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, first.CartID, second.CartID)
}

func TestGetOrCreateCartClaimedAnonymousCartNotReturned(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()

	// Корзина уже принадлежит покупателю
	claimed := env.seedCustomerCart(customer.ID, nil, 0)

	snapshot, err := env.cartSvc.GetOrCreateCart(ctx, domain.AnonymousOwner(claimed.ID))
	require.NoError(t, err)
	assert.NotEqual(t, claimed.ID, snapshot.CartID)
}

func TestAddLineDefaultsQuantityToOne(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(1500, 10)

	cart, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)

	snapshot, err := env.cartSvc.AddLine(ctx, cart.CartID, domain.AddLineRequest{
		ProductID: product.ID.String(),
		Quantity:  0,
	})
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, 1, snapshot.Lines[0].Quantity)
	assert.Equal(t, 1500.0, snapshot.Lines[0].Subtotal)
}

func TestAddLineUnknownProduct(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cart, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)

	_, err = env.cartSvc.AddLine(ctx, cart.CartID, domain.AddLineRequest{
		ProductID: uuid.NewString(),
		Quantity:  1,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAddLineKeepsCustomization(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(2000, 5)

	cart, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)

	snapshot, err := env.cartSvc.AddLine(ctx, cart.CartID, domain.AddLineRequest{
		ProductID:  product.ID.String(),
		Quantity:   2,
		Size:       "M",
		FrontImage: "https://cdn.example.com/front.png",
		BackImage:  "https://cdn.example.com/back.png",
	})
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, "M", snapshot.Lines[0].Size)
	assert.Equal(t, "https://cdn.example.com/front.png", snapshot.Lines[0].FrontImage)
	assert.Equal(t, 4000.0, snapshot.Lines[0].Subtotal)
}

func TestUpdateLineQuantityClampedToStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(1000, 3)

	cart, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)
	snapshot, err := env.cartSvc.AddLine(ctx, cart.CartID, domain.AddLineRequest{
		ProductID: product.ID.String(),
		Quantity:  1,
	})
	require.NoError(t, err)

	// Запрошено больше остатка: молча обрезается до доступного
	updated, err := env.cartSvc.UpdateLineQuantity(ctx, cart.CartID, snapshot.Lines[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, 3, updated.Lines[0].Quantity)
	assert.Equal(t, 3000.0, updated.Lines[0].Subtotal)
}

func TestUpdateLineQuantityZeroRemovesLine(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(1000, 5)

	cart, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)
	snapshot, err := env.cartSvc.AddLine(ctx, cart.CartID, domain.AddLineRequest{
		ProductID: product.ID.String(),
		Quantity:  2,
	})
	require.NoError(t, err)

	updated, err := env.cartSvc.UpdateLineQuantity(ctx, cart.CartID, snapshot.Lines[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, updated.Lines)
	assert.Equal(t, 0.0, updated.Totals.Total)
}

func TestUpdateLineSubtotalUsesPriceAtAddTime(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(1000, 10)

	cart, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)
	snapshot, err := env.cartSvc.AddLine(ctx, cart.CartID, domain.AddLineRequest{
		ProductID: product.ID.String(),
		Quantity:  1,
	})
	require.NoError(t, err)
	require.Equal(t, 1000.0, snapshot.Lines[0].UnitPrice)

	// Количество меняется, но цена строки остается ценой на момент добавления
	updated, err := env.cartSvc.UpdateLineQuantity(ctx, cart.CartID, snapshot.Lines[0].ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, updated.Lines[0].UnitPrice)
	assert.Equal(t, 4000.0, updated.Lines[0].Subtotal)
}

func TestClearCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.seedProduct(500, 5)

	cart, err := env.cartSvc.GetOrCreateCart(ctx, domain.NewAnonymousOwner())
	require.NoError(t, err)
	_, err = env.cartSvc.AddLine(ctx, cart.CartID, domain.AddLineRequest{
		ProductID: product.ID.String(),
		Quantity:  3,
	})
	require.NoError(t, err)

	cleared, err := env.cartSvc.Clear(ctx, cart.CartID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
	assert.Equal(t, 0.0, cleared.Totals.Total)
}

func TestAssignPaymentMethodOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	stranger := env.seedCustomer()
	card := env.seedCard(stranger.ID)
	cart := env.seedCustomerCart(customer.ID, nil, 0)

	// Чужая карта не привязывается
	_, err := env.cartSvc.AssignPaymentMethod(ctx, customer.ID, cart.ID, card.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	own := env.seedCard(customer.ID)
	snapshot, err := env.cartSvc.AssignPaymentMethod(ctx, customer.ID, cart.ID, own.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, snapshot.CartID)
}
