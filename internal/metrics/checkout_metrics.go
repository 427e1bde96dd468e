package metrics

import (
	"time"

	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics интерфейс для метрик оформления заказов
type CheckoutMetrics interface {
	ObserveConfirmed(amount float64, duration time.Duration)
	ObserveFailure(state string)
	IncCartMerged()
}

type checkoutMetrics struct {
	log              *logger.Logger
	ordersConfirmed  prometheus.Counter
	checkoutFailures *prometheus.CounterVec
	orderAmount      prometheus.Histogram
	checkoutDuration prometheus.Histogram
	cartsMerged      prometheus.Counter
	invoicesIssued   prometheus.Counter
}

// NewCheckoutMetrics создает новые метрики оформления заказов
func NewCheckoutMetrics(registry *prometheus.Registry, log *logger.Logger) CheckoutMetrics {
	ordersConfirmed := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "orders_confirmed_total",
			Help: "The total number of confirmed orders",
		},
	)

	checkoutFailures := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_failures_total",
			Help: "The total number of failed checkouts by state",
		},
		[]string{"state"},
	)

	orderAmount := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_amount",
			Help:    "Confirmed order totals distribution",
			Buckets: prometheus.ExponentialBuckets(100, 10, 5), // 100, 1000, 10000, 100000, 1000000
		},
	)

	checkoutDuration := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Checkout processing time distribution",
			Buckets: prometheus.DefBuckets,
		},
	)

	cartsMerged := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "carts_merged_total",
			Help: "The total number of anonymous carts merged on login",
		},
	)

	invoicesIssued := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "invoices_issued_total",
			Help: "The total number of issued invoices",
		},
	)

	return &checkoutMetrics{
		log:              log,
		ordersConfirmed:  ordersConfirmed,
		checkoutFailures: checkoutFailures,
		orderAmount:      orderAmount,
		checkoutDuration: checkoutDuration,
		cartsMerged:      cartsMerged,
		invoicesIssued:   invoicesIssued,
	}
}

// ObserveConfirmed фиксирует подтвержденный заказ: счетчик, сумма, время
func (m *checkoutMetrics) ObserveConfirmed(amount float64, duration time.Duration) {
	m.ordersConfirmed.Inc()
	m.invoicesIssued.Inc()
	m.orderAmount.Observe(amount)
	if duration > 0 {
		m.checkoutDuration.Observe(duration.Seconds())
	}
}

// ObserveFailure увеличивает счетчик отказов оформления по состоянию
func (m *checkoutMetrics) ObserveFailure(state string) {
	m.checkoutFailures.WithLabelValues(state).Inc()
}

// IncCartMerged увеличивает счетчик слитых корзин
func (m *checkoutMetrics) IncCartMerged() {
	m.cartsMerged.Inc()
}
