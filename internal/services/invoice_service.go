package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/kafka"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// InvoiceService ведет реестр счетов-фактур: создает неизменяемый снимок
// заказа в момент подтверждения. Дальнейший рендер PDF и почтовую доставку
// выполняют внешние потребители, которым финализированный счет уходит событием Kafka;
// мутировать счет они не могут.
type InvoiceService struct {
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	producer     kafka.Producer // может быть nil, если Kafka недоступна
	log          *logger.Logger
}

// NewInvoiceService конструктор реестра счетов
func NewInvoiceService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	producer kafka.Producer,
	log *logger.Logger,
) *InvoiceService {
	if producer == nil {
		log.Warnw("Kafka producer is nil, invoice event publishing will be skipped")
	}
	return &InvoiceService{
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		producer:     producer,
		log:          log,
	}
}

// Generate выпускает счет по заказу: одна строка счета на строку корзины,
// имя товара берется на момент выпуска, цена и подытог из строки корзины.
// Счет и строки сохраняются атомарно. Повторный выпуск для того же заказа
// возвращает ErrInvoiceAlreadyIssued.
func (s *InvoiceService) Generate(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if _, err := s.invoiceRepo.GetByOrderID(ctx, order.ID); err == nil {
		return nil, domain.ErrInvoiceAlreadyIssued
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}

	cart, err := s.cartRepo.GetByID(ctx, order.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order cart: %w", err)
	}
	if cart.CustomerID == nil {
		return nil, fmt.Errorf("%w: order cart has no owner", domain.ErrInternal)
	}
	customer, err := s.customerRepo.GetByID(ctx, *cart.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	now := time.Now()
	invoice := &domain.Invoice{
		ID:         uuid.New(),
		Folio:      domain.NewFolio(now),
		OrderID:    order.ID,
		CustomerID: customer.ID,
		Total:      domain.ComputeTotals(cart.Lines).Total,
		IssuedAt:   now,
	}

	for _, line := range cart.Lines {
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product for invoice line: %w", err)
		}
		invoice.Lines = append(invoice.Lines, domain.InvoiceLine{
			ID:        uuid.New(),
			InvoiceID: invoice.ID,
			ProductID: line.ProductID,
			Name:      product.Description,
			Quantity:  line.Quantity,
			// Снимок: цена строки корзины на момент оформления,
			// последующие изменения цены товара счет не трогают
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Коллизия фолио секундного разрешения или гонка второго
			// выпуска: наружу как конфликт, без тихого ретрая
			s.log.Warnw("Invoice persistence conflict", "orderId", order.ID, "folio", invoice.Folio)
			return nil, fmt.Errorf("%w: folio %s", repository.ErrDuplicate, invoice.Folio)
		}
		return nil, fmt.Errorf("failed to persist invoice: %w", err)
	}

	s.log.Infow("Invoice issued", "folio", invoice.Folio, "orderId", order.ID, "total", invoice.Total)

	// Доставка внешним потребителям идет в режиме fire-and-forget
	if s.producer != nil {
		go s.publishInvoiceEvent(context.WithoutCancel(ctx), invoice)
	}

	return invoice, nil
}

// GetByOrderID возвращает счет заказа.
func (s *InvoiceService) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return invoice, nil
}

// PurchaseHistory возвращает историю покупок покупателя: счета с их
// строками, новые первыми, плюс агрегаты.
func (s *InvoiceService) PurchaseHistory(ctx context.Context, customerID uuid.UUID) (*domain.CustomerPurchaseHistory, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	invoices, err := s.invoiceRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	history := &domain.CustomerPurchaseHistory{
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		PurchaseCount: len(invoices),
		Invoices:      invoices,
	}
	for _, invoice := range invoices {
		history.TotalSpent += invoice.Total
	}
	return history, nil
}

// publishInvoiceEvent отправляет событие о выпущенном счете в Kafka.
// Ошибка публикации логируется и не прерывает основной поток: счет уже
// зафиксирован, доставка повторяема на стороне потребителя.
func (s *InvoiceService) publishInvoiceEvent(ctx context.Context, invoice *domain.Invoice) {
	kafkaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	event := &kafka.InvoiceEvent{
		OrderID:    invoice.OrderID.String(),
		Invoice:    *invoice,
		OccurredAt: time.Now(),
	}
	if err := s.producer.PublishInvoiceEvent(kafkaCtx, kafka.TopicInvoiceIssued, event); err != nil {
		s.log.Errorw("Failed to publish invoice issued event", "folio", invoice.Folio, "error", err)
		return
	}
	s.log.Infow("Invoice issued event published", "folio", invoice.Folio)
}
