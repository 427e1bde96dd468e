package app

import (
	"github.com/Dhoini/Checkout-microservice/config"
	"github.com/Dhoini/Checkout-microservice/internal/api/rest"
	"github.com/Dhoini/Checkout-microservice/internal/kafka"
	"github.com/Dhoini/Checkout-microservice/internal/metrics"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/internal/repository/postgres"
	"github.com/Dhoini/Checkout-microservice/internal/services"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Repositories собранный слой хранилища
type Repositories struct {
	Carts          repository.CartRepository
	Products       repository.ProductRepository
	Customers      repository.CustomerRepository
	PaymentMethods repository.PaymentMethodRepository
	Orders         repository.OrderRepository
	Invoices       repository.InvoiceRepository
	Checkout       repository.CheckoutStore
}

// App представляет собой контейнер для всех компонентов приложения
type App struct {
	Config       *config.Config
	Repositories Repositories
	Services     rest.Services
	Metrics      metrics.CheckoutMetrics
	Logger       *logger.Logger
}

// NewPostgresRepositories собирает слой хранилища поверх PostgreSQL
func NewPostgresRepositories(pool *pgxpool.Pool, log *logger.Logger) Repositories {
	return Repositories{
		Carts:          postgres.NewPostgresCartRepository(pool, log),
		Products:       postgres.NewPostgresProductRepository(pool, log),
		Customers:      postgres.NewPostgresCustomerRepository(pool, log),
		PaymentMethods: postgres.NewPostgresPaymentMethodRepository(pool, log),
		Orders:         postgres.NewPostgresOrderRepository(pool, log),
		Invoices:       postgres.NewPostgresInvoiceRepository(pool, log),
		Checkout:       postgres.NewPostgresCheckoutStore(pool, log),
	}
}

// NewInMemoryRepositories собирает слой хранилища в памяти: режим для
// локальной разработки и тестов без базы данных
func NewInMemoryRepositories(log *logger.Logger) Repositories {
	products := repository.NewInMemoryProductRepository(log)
	orders := repository.NewInMemoryOrderRepository(log)
	return Repositories{
		Carts:          repository.NewInMemoryCartRepository(log),
		Products:       products,
		Customers:      repository.NewInMemoryCustomerRepository(log),
		PaymentMethods: repository.NewInMemoryPaymentMethodRepository(log),
		Orders:         orders,
		Invoices:       repository.NewInMemoryInvoiceRepository(log),
		Checkout:       repository.NewInMemoryCheckoutStore(products, orders, log),
	}
}

// NewApp создает и инициализирует новый экземпляр приложения
func NewApp(cfg *config.Config, repos Repositories, producer kafka.Producer, registry *prometheus.Registry, log *logger.Logger) *App {
	checkoutMetrics := metrics.NewCheckoutMetrics(registry, log)

	identity := services.NewIdentityResolver(log)
	carts := services.NewCartService(repos.Carts, repos.Products, repos.PaymentMethods, log)
	merge := services.NewMergeService(repos.Carts, checkoutMetrics, log)
	auth := services.NewAuthService(repos.Customers, merge, log)
	paymentMethods := services.NewPaymentMethodService(repos.PaymentMethods, log)
	invoices := services.NewInvoiceService(repos.Orders, repos.Carts, repos.Products, repos.Invoices, repos.Customers, producer, log)
	checkout := services.NewCheckoutService(
		repos.Carts,
		repos.Products,
		repos.PaymentMethods,
		repos.Orders,
		repos.Checkout,
		invoices,
		producer,
		checkoutMetrics,
		log,
	)

	return &App{
		Config:       cfg,
		Repositories: repos,
		Services: rest.Services{
			Identity:       identity,
			Carts:          carts,
			Auth:           auth,
			Checkout:       checkout,
			Invoices:       invoices,
			PaymentMethods: paymentMethods,
			Products:       repos.Products,
		},
		Metrics: checkoutMetrics,
		Logger:  log,
	}
}
