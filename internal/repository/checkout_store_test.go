package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreFixture(t *testing.T) (*InMemoryCheckoutStore, *InMemoryProductRepository, *InMemoryOrderRepository) {
	t.Helper()
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	products := NewInMemoryProductRepository(log)
	orders := NewInMemoryOrderRepository(log)
	return NewInMemoryCheckoutStore(products, orders, log), products, orders
}

func seedStock(t *testing.T, products *InMemoryProductRepository, stock int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		ID:          uuid.New(),
		Description: "Classic Tee",
		Price:       1000,
		Stock:       stock,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, products.Create(context.Background(), product))
	return product
}

func TestReserveSumsLinesOfSameProduct(t *testing.T) {
	store, products, orders := newStoreFixture(t)
	ctx := context.Background()
	product := seedStock(t, products, 5)
	order := domain.NewOrder(uuid.New(), uuid.New())

	// Две строки одного товара (разные размеры) списываются суммарно
	err := store.ReserveStockAndCreateOrder(ctx, order, []domain.StockDecrement{
		{ProductID: product.ID, Quantity: 3},
		{ProductID: product.ID, Quantity: 2},
	})
	require.NoError(t, err)

	stocked, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stocked.Stock)

	_, err = orders.GetByID(ctx, order.ID)
	assert.NoError(t, err)
}

func TestReserveCumulativeShortageRejected(t *testing.T) {
	store, products, orders := newStoreFixture(t)
	ctx := context.Background()
	product := seedStock(t, products, 5)
	order := domain.NewOrder(uuid.New(), uuid.New())

	// Каждая строка проходит по отдельности, но сумма превышает остаток
	err := store.ReserveStockAndCreateOrder(ctx, order, []domain.StockDecrement{
		{ProductID: product.ID, Quantity: 3},
		{ProductID: product.ID, Quantity: 4},
	})
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	// Ничего не списано, заказ не создан
	stocked, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stocked.Stock)

	_, err = orders.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveShortageLeavesOtherProductsUntouched(t *testing.T) {
	store, products, orders := newStoreFixture(t)
	ctx := context.Background()
	plenty := seedStock(t, products, 50)
	scarce := seedStock(t, products, 1)
	order := domain.NewOrder(uuid.New(), uuid.New())

	err := store.ReserveStockAndCreateOrder(ctx, order, []domain.StockDecrement{
		{ProductID: plenty.ID, Quantity: 2},
		{ProductID: scarce.ID, Quantity: 3},
	})
	require.Error(t, err)

	p1, _ := products.GetByID(ctx, plenty.ID)
	p2, _ := products.GetByID(ctx, scarce.ID)
	assert.Equal(t, 50, p1.Stock)
	assert.Equal(t, 1, p2.Stock)

	_, err = orders.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveUnknownProduct(t *testing.T) {
	store, _, _ := newStoreFixture(t)
	order := domain.NewOrder(uuid.New(), uuid.New())

	err := store.ReserveStockAndCreateOrder(context.Background(), order, []domain.StockDecrement{
		{ProductID: uuid.New(), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
