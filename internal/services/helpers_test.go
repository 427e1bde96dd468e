package services

import (
	"context"
	"io"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/metrics"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

// testEnv собирает сервисы поверх in-memory репозиториев
type testEnv struct {
	carts     *repository.InMemoryCartRepository
	products  *repository.InMemoryProductRepository
	customers *repository.InMemoryCustomerRepository
	methods   *repository.InMemoryPaymentMethodRepository
	orders    *repository.InMemoryOrderRepository
	invoices  *repository.InMemoryInvoiceRepository
	store     repository.CheckoutStore

	cartSvc     *CartService
	mergeSvc    *MergeService
	authSvc     *AuthService
	methodSvc   *PaymentMethodService
	invoiceSvc  *InvoiceService
	checkoutSvc *CheckoutService
}

func newTestEnv() *testEnv {
	log := newTestLogger()
	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry(), log)

	env := &testEnv{
		carts:     repository.NewInMemoryCartRepository(log),
		products:  repository.NewInMemoryProductRepository(log),
		customers: repository.NewInMemoryCustomerRepository(log),
		methods:   repository.NewInMemoryPaymentMethodRepository(log),
		orders:    repository.NewInMemoryOrderRepository(log),
		invoices:  repository.NewInMemoryInvoiceRepository(log),
	}
	env.store = repository.NewInMemoryCheckoutStore(env.products, env.orders, log)

	env.cartSvc = NewCartService(env.carts, env.products, env.methods, log)
	env.mergeSvc = NewMergeService(env.carts, m, log)
	env.authSvc = NewAuthService(env.customers, env.mergeSvc, log)
	env.methodSvc = NewPaymentMethodService(env.methods, log)
	env.invoiceSvc = NewInvoiceService(env.orders, env.carts, env.products, env.invoices, env.customers, nil, log)
	env.checkoutSvc = NewCheckoutService(env.carts, env.products, env.methods, env.orders, env.store, env.invoiceSvc, nil, m, log)

	return env
}

func (e *testEnv) seedProduct(price float64, stock int) *domain.Product {
	product := &domain.Product{
		ID:          uuid.New(),
		Description: "Classic Tee",
		Price:       price,
		Stock:       stock,
		Category:    "t-shirts",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := e.products.Create(context.Background(), product); err != nil {
		panic(err)
	}
	return product
}

func (e *testEnv) seedCustomer() *domain.Customer {
	customer := &domain.Customer{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "irrelevant",
		Name:         "Ana",
		LastName:     "Torres",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := e.customers.Create(context.Background(), customer); err != nil {
		panic(err)
	}
	return customer
}

func (e *testEnv) seedCard(customerID uuid.UUID) *domain.PaymentMethod {
	method := &domain.PaymentMethod{
		ID:         uuid.New(),
		CustomerID: customerID,
		HolderName: "Ana Torres",
		CardNumber: "4111111111111111",
		CardType:   domain.CardTypeVisa,
		ExpiresAt:  time.Now().AddDate(2, 0, 0),
		CreatedAt:  time.Now(),
	}
	if err := e.methods.Create(context.Background(), method); err != nil {
		panic(err)
	}
	return method
}

// seedCustomerCart создает корзину покупателя с одной строкой товара
func (e *testEnv) seedCustomerCart(customerID uuid.UUID, product *domain.Product, quantity int) *domain.Cart {
	id := customerID
	cart := domain.NewCart(&id)
	if err := e.carts.Create(context.Background(), cart); err != nil {
		panic(err)
	}
	if product != nil {
		line := &domain.CartLine{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
			Subtotal:  product.Price * float64(quantity),
			CreatedAt: time.Now(),
		}
		if err := e.carts.AddLine(context.Background(), line); err != nil {
			panic(err)
		}
		cart.Lines = append(cart.Lines, *line)
		cart.Recalculate()
		if err := e.carts.Update(context.Background(), cart); err != nil {
			panic(err)
		}
	}
	return cart
}
