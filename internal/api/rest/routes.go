package rest

import (
	"github.com/Dhoini/Checkout-microservice/internal/api/rest/handlers"
	"github.com/Dhoini/Checkout-microservice/internal/api/rest/middleware"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/internal/services"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services сервисы, которые обслуживает REST слой
type Services struct {
	Identity       *services.IdentityResolver
	Carts          *services.CartService
	Auth           *services.AuthService
	Checkout       *services.CheckoutService
	Invoices       *services.InvoiceService
	PaymentMethods *services.PaymentMethodService
	Products       repository.ProductRepository
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(svc Services, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	// Инициализация Gin роутера
	r := gin.New()

	// Лог доступа структурированный, отдельно от прикладного логгера
	accessLog, err := zap.NewProduction()
	if err != nil {
		log.Warnw("Failed to build access logger, falling back to no-op", "error", err)
		accessLog = zap.NewNop()
	}

	// Подключение middleware
	r.Use(middleware.LoggerMiddleware(accessLog))
	r.Use(gin.Recovery())
	r.Use(middleware.IdentityMiddleware(svc.Identity))

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Инициализация обработчиков
	cartHandler := handlers.NewCartHandler(svc.Carts, log)
	authHandler := handlers.NewAuthHandler(svc.Auth, log)
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout, svc.Invoices, log)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(svc.PaymentMethods, log)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Invoices, log)
	productHandler := handlers.NewProductHandler(svc.Products, log)

	v1 := r.Group("/api/v1")
	{
		// Аутентификация
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Каталог
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
		}

		// Корзина
		carts := v1.Group("/carts")
		{
			carts.GET("/current", cartHandler.GetCart)
			carts.POST("/:id/lines", cartHandler.AddLine)
			carts.PUT("/:id/lines/:lineId", cartHandler.UpdateLine)
			carts.DELETE("/:id/lines/:lineId", cartHandler.RemoveLine)
			carts.DELETE("/:id/lines", cartHandler.Clear)
			carts.PUT("/:id/payment-method", cartHandler.AssignPaymentMethod)
		}

		// Карты покупателя
		paymentMethods := v1.Group("/payment-methods")
		{
			paymentMethods.GET("", paymentMethodHandler.ListCards)
			paymentMethods.POST("", paymentMethodHandler.AddCard)
		}

		// Оформление заказа
		checkout := v1.Group("/checkout")
		{
			checkout.POST("", checkoutHandler.Checkout)
			checkout.GET("/orders/:orderId", checkoutHandler.GetOrder)
			checkout.POST("/orders/:orderId/invoice/retry", checkoutHandler.RetryInvoice)
			checkout.GET("/orders/:orderId/invoice", checkoutHandler.GetOrderInvoice)
		}

		// История покупок
		v1.GET("/purchases", invoiceHandler.GetPurchaseHistory)
	}

	return r
}
