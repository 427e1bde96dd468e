package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/kafka"
	"github.com/Dhoini/Checkout-microservice/internal/metrics"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// CheckoutService проводит корзину через оформление заказа:
// валидация -> резервирование остатков -> заказ -> счет -> очистка корзины.
// Резервирование остатков и создание заказа идут единой атомарной операцией
// хранилища: либо списаны все позиции и заказ создан, либо ничего.
// Выпуск счета идет после фиксации заказа и при сбое НЕ откатывает ни
// остатки, ни заказ: заказ остается подтвержденным, счет довыпускается
// через RetryInvoice.
type CheckoutService struct {
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	methodRepo    repository.PaymentMethodRepository
	orderRepo     repository.OrderRepository
	checkoutStore repository.CheckoutStore
	invoices      *InvoiceService
	producer      kafka.Producer
	metrics       metrics.CheckoutMetrics
	log           *logger.Logger

	// Последовательное оформление в пределах одной корзины: два
	// конкурентных запроса по одному cartID не пройдут резервирование
	// одновременно
	mu        sync.Mutex
	cartLocks map[uuid.UUID]*cartLock
}

// cartLock мьютекс одной корзины со счетчиком ожидающих: запись из
// cartLocks удаляется, когда последний держатель отпускает ее.
type cartLock struct {
	mu   sync.Mutex
	refs int
}

// NewCheckoutService конструктор движка оформления заказа
func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	methodRepo repository.PaymentMethodRepository,
	orderRepo repository.OrderRepository,
	checkoutStore repository.CheckoutStore,
	invoices *InvoiceService,
	producer kafka.Producer,
	m metrics.CheckoutMetrics,
	log *logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		methodRepo:    methodRepo,
		orderRepo:     orderRepo,
		checkoutStore: checkoutStore,
		invoices:      invoices,
		producer:      producer,
		metrics:       m,
		log:           log,
	}
}

// lockCart берет мьютекс конкретной корзины, лениво создавая его.
// Возвращаемая функция освобождает мьютекс и удаляет запись из карты,
// если желающих больше нет.
func (s *CheckoutService) lockCart(cartID uuid.UUID) func() {
	s.mu.Lock()
	if s.cartLocks == nil {
		s.cartLocks = make(map[uuid.UUID]*cartLock)
	}
	lock, ok := s.cartLocks[cartID]
	if !ok {
		lock = &cartLock{}
		s.cartLocks[cartID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.cartLocks, cartID)
		}
		s.mu.Unlock()
	}
}

// Checkout оформляет заказ по корзине покупателя.
//
// Состояния и их ошибки:
//   - Validating: корзина не найдена / чужая / пустая, способ оплаты
//     отсутствует или не принадлежит покупателю;
//   - StockReserving: нехватка остатков (InsufficientStockError) или
//     конфликт конкурентного списания после повтора;
//   - InvoiceRequested: заказ создан, остатки списаны, счет не выпущен;
//     CheckoutError несет OrderID для довыпуска;
//   - Completed: корзина очищена, событие опубликовано.
func (s *CheckoutService) Checkout(ctx context.Context, customerID, cartID uuid.UUID, paymentMethodID *uuid.UUID) (*domain.CheckoutResult, error) {
	unlock := s.lockCart(cartID)
	defer unlock()

	start := time.Now()

	// --- Validating ---
	cart, method, err := s.validate(ctx, customerID, cartID, paymentMethodID)
	if err != nil {
		s.metrics.ObserveFailure(string(domain.CheckoutValidating))
		return nil, domain.NewCheckoutError(domain.CheckoutValidating, "", err)
	}

	// --- StockReserving: атомарное списание остатков + создание заказа ---
	order := domain.NewOrder(cart.ID, method.ID)
	decrements := make([]domain.StockDecrement, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		decrements = append(decrements, domain.StockDecrement{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	if err := s.reserveWithRetry(ctx, order, decrements); err != nil {
		s.metrics.ObserveFailure(string(domain.CheckoutStockReserving))
		return nil, domain.NewCheckoutError(domain.CheckoutStockReserving, "", err)
	}

	s.log.Infow("Order confirmed", "orderId", order.ID, "cartId", cart.ID, "total", cart.Total)

	// --- InvoiceRequested ---
	invoice, err := s.invoices.Generate(ctx, order.ID)
	if err != nil {
		// Заказ и списание остатков уже зафиксированы и не откатываются;
		// корзина остается нетронутой до успешного выпуска счета
		s.log.Errorw("Invoice generation failed after order commit", "orderId", order.ID, "error", err)
		s.metrics.ObserveFailure(string(domain.CheckoutInvoiceRequested))
		return nil, domain.NewCheckoutError(domain.CheckoutInvoiceRequested, order.ID.String(), err)
	}

	// --- Completed ---
	s.finalize(ctx, cart, order, invoice)
	s.metrics.ObserveConfirmed(invoice.Total, time.Since(start))

	return &domain.CheckoutResult{
		OrderID:      order.ID,
		InvoiceFolio: invoice.Folio,
	}, nil
}

// validate проверяет корзину и разрешает способ оплаты: явный из запроса
// имеет приоритет, иначе привязанный к корзине.
func (s *CheckoutService) validate(ctx context.Context, customerID, cartID uuid.UUID, paymentMethodID *uuid.UUID) (*domain.Cart, *domain.PaymentMethod, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.ErrCartNotFound
		}
		return nil, nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.CustomerID == nil || *cart.CustomerID != customerID {
		return nil, nil, domain.ErrCartNotFound
	}
	if len(cart.Lines) == 0 {
		return nil, nil, domain.ErrEmptyCart
	}

	methodID := cart.PaymentMethodID
	if paymentMethodID != nil {
		methodID = paymentMethodID
	}
	if methodID == nil {
		return nil, nil, domain.ErrNoPaymentMethod
	}

	method, err := s.methodRepo.GetByID(ctx, *methodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.ErrInvalidPaymentMethod
		}
		return nil, nil, fmt.Errorf("failed to load payment method: %w", err)
	}
	if method.CustomerID != customerID {
		return nil, nil, domain.ErrInvalidPaymentMethod
	}
	if !method.ExpiresAt.After(time.Now()) {
		return nil, nil, domain.ErrCardExpired
	}

	return cart, method, nil
}

// reserveWithRetry выполняет атомарное резервирование. Конфликт
// конкурентного списания (ErrConcurrency) повторяется один раз с короткой
// паузой; нехватка остатков и прочие ошибки считаются постоянными.
func (s *CheckoutService) reserveWithRetry(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error {
	operation := func() error {
		err := s.checkoutStore.ReserveStockAndCreateOrder(ctx, order, decrements)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrConcurrency) {
			s.log.Warnw("Concurrent stock update, retrying reservation", "orderId", order.ID)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			return insufficient
		}
		return err
	}
	return nil
}

// finalize очищает корзину и публикует событие подтверждения заказа.
// Сбой очистки логируется, но оформление уже успешно: счет выпущен.
func (s *CheckoutService) finalize(ctx context.Context, cart *domain.Cart, order *domain.Order, invoice *domain.Invoice) {
	if err := s.cartRepo.ClearLines(ctx, cart.ID); err != nil {
		s.log.Errorw("Failed to clear cart after checkout", "cartId", cart.ID, "error", err)
	} else {
		cart.Lines = nil
		cart.PaymentMethodID = nil
		cart.Recalculate()
		if err := s.cartRepo.Update(ctx, cart); err != nil {
			s.log.Errorw("Failed to reset cart total after checkout", "cartId", cart.ID, "error", err)
		}
	}

	if s.producer != nil {
		go func(ctx context.Context) {
			kafkaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			event := &kafka.InvoiceEvent{
				OrderID:    order.ID.String(),
				Invoice:    *invoice,
				OccurredAt: time.Now(),
			}
			if err := s.producer.PublishInvoiceEvent(kafkaCtx, kafka.TopicOrderConfirmed, event); err != nil {
				s.log.Errorw("Failed to publish order confirmed event", "orderId", order.ID, "error", err)
			}
		}(context.WithoutCancel(ctx))
	}
}

// ownedOrder загружает заказ и проверяет, что корзина заказа принадлежит
// покупателю. Чужой заказ неотличим от несуществующего.
func (s *CheckoutService) ownedOrder(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, *domain.Cart, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("failed to load order: %w", err)
	}

	cart, err := s.cartRepo.GetByID(ctx, order.CartID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order cart: %w", err)
	}
	if cart.CustomerID == nil || *cart.CustomerID != customerID {
		return nil, nil, domain.ErrOrderNotFound
	}
	return order, cart, nil
}

// GetOrder возвращает подтвержденный заказ покупателя: страница
// подтверждения после оформления.
func (s *CheckoutService) GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error) {
	order, _, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RetryInvoice довыпускает счет по подтвержденному заказу, оставшемуся без
// счета после сбоя, и доводит оформление до конца: корзина очищается только
// после успешного выпуска.
func (s *CheckoutService) RetryInvoice(ctx context.Context, customerID uuid.UUID, orderID uuid.UUID) (*domain.CheckoutResult, error) {
	order, cart, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockCart(cart.ID)
	defer unlock()

	invoice, err := s.invoices.Generate(ctx, order.ID)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceAlreadyIssued) {
			existing, getErr := s.invoices.GetByOrderID(ctx, order.ID)
			if getErr != nil {
				return nil, getErr
			}
			return &domain.CheckoutResult{OrderID: order.ID, InvoiceFolio: existing.Folio}, nil
		}
		s.metrics.ObserveFailure(string(domain.CheckoutInvoiceRequested))
		return nil, domain.NewCheckoutError(domain.CheckoutInvoiceRequested, order.ID.String(), err)
	}

	s.finalize(ctx, cart, order, invoice)
	s.metrics.ObserveConfirmed(invoice.Total, 0)

	return &domain.CheckoutResult{
		OrderID:      order.ID,
		InvoiceFolio: invoice.Folio,
	}, nil
}
