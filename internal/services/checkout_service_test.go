package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/metrics"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingInvoiceRepo прокидывает вызовы в настоящий репозиторий, но
// позволяет форсировать отказ сохранения счета
type failingInvoiceRepo struct {
	inner      repository.InvoiceRepository
	failCreate bool
}

func (r *failingInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if r.failCreate {
		return errors.New("invoice storage unavailable")
	}
	return r.inner.Create(ctx, invoice)
}

func (r *failingInvoiceRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	return r.inner.GetByOrderID(ctx, orderID)
}

func (r *failingInvoiceRepo) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Invoice, error) {
	return r.inner.GetByCustomerID(ctx, customerID)
}

// flakyCheckoutStore имитирует конфликт конкурентного списания: первые
// failures вызовов возвращают ErrConcurrency, дальше работает настоящий стор
type flakyCheckoutStore struct {
	inner    repository.CheckoutStore
	failures int
	calls    int
}

func (s *flakyCheckoutStore) ReserveStockAndCreateOrder(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error {
	s.calls++
	if s.calls <= s.failures {
		return repository.ErrConcurrency
	}
	return s.inner.ReserveStockAndCreateOrder(ctx, order, decrements)
}

func TestCheckoutHappyPath(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	product := env.seedProduct(10000, 10)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 2)

	result, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, result.OrderID)
	assert.True(t, strings.HasPrefix(result.InvoiceFolio, domain.FolioPrefix))

	// Остаток списан
	stocked, err := env.products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stocked.Stock)

	// Заказ подтвержден
	order, err := env.orders.GetByID(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)

	// Счет: 20000 + 13% налога + 2500 доставки
	invoice, err := env.invoices.GetByOrderID(ctx, result.OrderID)
	require.NoError(t, err)
	assert.InDelta(t, 25100.0, invoice.Total, 1e-9)
	require.Len(t, invoice.Lines, 1)
	assert.Equal(t, 2, invoice.Lines[0].Quantity)
	assert.Equal(t, 10000.0, invoice.Lines[0].UnitPrice)

	// Корзина очищена
	cleared, err := env.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
	assert.Equal(t, 0.0, cleared.Total)
}

func TestCheckoutUsesCartAssignedPaymentMethod(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	product := env.seedProduct(5000, 5)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 1)

	_, err := env.cartSvc.AssignPaymentMethod(ctx, customer.ID, cart.ID, card.ID)
	require.NoError(t, err)

	result, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.OrderID)
}

func TestCheckoutInsufficientStockAllOrNothing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	plenty := env.seedProduct(1000, 50)
	scarce := env.seedProduct(2000, 3)
	card := env.seedCard(customer.ID)

	cart := env.seedCustomerCart(customer.ID, plenty, 2)
	_, err := env.cartSvc.AddLine(ctx, cart.ID, domain.AddLineRequest{
		ProductID: scarce.ID.String(),
		Quantity:  5,
	})
	require.NoError(t, err)

	_, err = env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	// Ничего не списано, в том числе по валидной позиции
	p1, _ := env.products.GetByID(ctx, plenty.ID)
	p2, _ := env.products.GetByID(ctx, scarce.ID)
	assert.Equal(t, 50, p1.Stock)
	assert.Equal(t, 3, p2.Stock)

	// Корзина не тронута
	kept, err := env.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, kept.Lines, 2)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, nil, 0)

	_, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	var checkoutErr *domain.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, domain.CheckoutValidating, checkoutErr.State)
}

func TestCheckoutWithoutPaymentMethod(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	product := env.seedProduct(1000, 5)
	cart := env.seedCustomerCart(customer.ID, product, 1)

	_, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, nil)
	assert.ErrorIs(t, err, domain.ErrNoPaymentMethod)
}

func TestCheckoutExpiredCard(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	product := env.seedProduct(1000, 5)
	cart := env.seedCustomerCart(customer.ID, product, 1)

	expired := &domain.PaymentMethod{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		HolderName: "Ana Torres",
		CardNumber: "4111111111111111",
		CardType:   domain.CardTypeVisa,
		ExpiresAt:  time.Now().AddDate(-1, 0, 0),
		CreatedAt:  time.Now(),
	}
	require.NoError(t, env.methods.Create(ctx, expired))

	_, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &expired.ID)
	assert.ErrorIs(t, err, domain.ErrCardExpired)
}

func TestCheckoutForeignCartRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.seedCustomer()
	intruder := env.seedCustomer()
	product := env.seedProduct(1000, 5)
	card := env.seedCard(intruder.ID)
	cart := env.seedCustomerCart(owner.ID, product, 1)

	_, err := env.checkoutSvc.Checkout(ctx, intruder.ID, cart.ID, &card.ID)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestCheckoutInvoiceFailureKeepsOrderAndStock(t *testing.T) {
	log := newTestLogger()
	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry(), log)
	env := newTestEnv()
	ctx := context.Background()

	failing := &failingInvoiceRepo{inner: env.invoices, failCreate: true}
	invoiceSvc := NewInvoiceService(env.orders, env.carts, env.products, failing, env.customers, nil, log)
	checkoutSvc := NewCheckoutService(env.carts, env.products, env.methods, env.orders, env.store, invoiceSvc, nil, m, log)

	customer := env.seedCustomer()
	product := env.seedProduct(10000, 10)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 2)

	_, err := checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.Error(t, err)

	var checkoutErr *domain.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, domain.CheckoutInvoiceRequested, checkoutErr.State)
	require.NotEmpty(t, checkoutErr.OrderID)

	orderID, parseErr := uuid.Parse(checkoutErr.OrderID)
	require.NoError(t, parseErr)

	// Заказ и списание остатков зафиксированы, отката нет
	order, err := env.orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	stocked, _ := env.products.GetByID(ctx, product.ID)
	assert.Equal(t, 8, stocked.Stock)

	// Корзина не очищена до успешного выпуска счета
	kept, err := env.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, kept.Lines, 1)

	// Довыпуск: хранилище счетов ожило
	failing.failCreate = false
	result, err := checkoutSvc.RetryInvoice(ctx, customer.ID, orderID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.InvoiceFolio, domain.FolioPrefix))

	// Теперь корзина очищена
	cleared, err := env.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
}

func TestCheckoutInvoiceSnapshotUsesCartLinePrice(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	product := env.seedProduct(1500, 10)
	card := env.seedCard(customer.ID)

	// Строка корзины хранит цену на момент добавления, отличную от
	// текущей цены товара
	cart := env.seedCustomerCart(customer.ID, nil, 0)
	line := &domain.CartLine{
		ID:        uuid.New(),
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: 1000,
		Subtotal:  2000,
		CreatedAt: time.Now(),
	}
	require.NoError(t, env.carts.AddLine(ctx, line))

	result, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.NoError(t, err)

	invoice, err := env.invoices.GetByOrderID(ctx, result.OrderID)
	require.NoError(t, err)
	require.Len(t, invoice.Lines, 1)
	assert.Equal(t, 1000.0, invoice.Lines[0].UnitPrice)
	assert.Equal(t, 2000.0, invoice.Lines[0].Subtotal)
}

func TestRetryInvoiceAlreadyIssuedIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	product := env.seedProduct(1000, 10)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 1)

	result, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.NoError(t, err)

	retried, err := env.checkoutSvc.RetryInvoice(ctx, customer.ID, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, result.InvoiceFolio, retried.InvoiceFolio)
}

func TestCheckoutRetriesOnceOnConcurrencyConflict(t *testing.T) {
	log := newTestLogger()
	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry(), log)
	env := newTestEnv()
	ctx := context.Background()

	flaky := &flakyCheckoutStore{inner: env.store, failures: 1}
	checkoutSvc := NewCheckoutService(env.carts, env.products, env.methods, env.orders, flaky, env.invoiceSvc, nil, m, log)

	customer := env.seedCustomer()
	product := env.seedProduct(1000, 10)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 2)

	result, err := checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, flaky.calls)

	stocked, err := env.products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stocked.Stock)

	order, err := env.orders.GetByID(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
}

func TestCheckoutPersistentConcurrencyConflict(t *testing.T) {
	log := newTestLogger()
	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry(), log)
	env := newTestEnv()
	ctx := context.Background()

	flaky := &flakyCheckoutStore{inner: env.store, failures: 100}
	checkoutSvc := NewCheckoutService(env.carts, env.products, env.methods, env.orders, flaky, env.invoiceSvc, nil, m, log)

	customer := env.seedCustomer()
	product := env.seedProduct(1000, 10)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 2)

	_, err := checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrConcurrency)

	var checkoutErr *domain.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, domain.CheckoutStockReserving, checkoutErr.State)

	// Один повтор, не бесконечный цикл
	assert.Equal(t, 2, flaky.calls)

	stocked, err := env.products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stocked.Stock)
}

func TestGetOrderOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	stranger := env.seedCustomer()
	product := env.seedProduct(1000, 10)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 1)

	result, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.NoError(t, err)

	order, err := env.checkoutSvc.GetOrder(ctx, customer.ID, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, result.OrderID, order.ID)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)

	// Чужой заказ неотличим от несуществующего
	_, err = env.checkoutSvc.GetOrder(ctx, stranger.ID, result.OrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = env.checkoutSvc.GetOrder(ctx, customer.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCheckoutReleasesCartLock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()
	product := env.seedProduct(1000, 10)
	card := env.seedCard(customer.ID)
	cart := env.seedCustomerCart(customer.ID, product, 1)

	_, err := env.checkoutSvc.Checkout(ctx, customer.ID, cart.ID, &card.ID)
	require.NoError(t, err)

	env.checkoutSvc.mu.Lock()
	defer env.checkoutSvc.mu.Unlock()
	assert.Empty(t, env.checkoutSvc.cartLocks)
}

func TestRetryInvoiceUnknownOrder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := env.seedCustomer()

	_, err := env.checkoutSvc.RetryInvoice(ctx, customer.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
