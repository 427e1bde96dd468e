package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// InvoiceRepository интерфейс для работы со счетами-фактурами.
// Счета append-only: создаются вместе со строками одной атомарной
// операцией и никогда не изменяются.
type InvoiceRepository interface {
	// Create сохраняет счет вместе со строками атомарно.
	// Возвращает ErrDuplicate при повторе фолио или втором счете заказа.
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error)
	// GetByCustomerID возвращает счета покупателя, новые первыми
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Invoice, error)
}

// InMemoryInvoiceRepository реализация репозитория счетов в памяти
type InMemoryInvoiceRepository struct {
	invoices map[uuid.UUID]domain.Invoice
	byOrder  map[uuid.UUID]uuid.UUID
	byFolio  map[string]uuid.UUID
	mutex    sync.RWMutex
	log      *logger.Logger
}

// NewInMemoryInvoiceRepository создает новый репозиторий счетов в памяти
func NewInMemoryInvoiceRepository(log *logger.Logger) *InMemoryInvoiceRepository {
	return &InMemoryInvoiceRepository{
		invoices: make(map[uuid.UUID]domain.Invoice),
		byOrder:  make(map[uuid.UUID]uuid.UUID),
		byFolio:  make(map[string]uuid.UUID),
		log:      log,
	}
}

// Create сохраняет счет со строками; фолио и заказ уникальны
func (r *InMemoryInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.byOrder[invoice.OrderID]; exists {
		r.log.Warnw("Attempt to issue a second invoice for order", "orderId", invoice.OrderID)
		return ErrDuplicate
	}
	if _, exists := r.byFolio[invoice.Folio]; exists {
		r.log.Warnw("Invoice folio collision", "folio", invoice.Folio)
		return ErrDuplicate
	}

	stored := *invoice
	stored.Lines = make([]domain.InvoiceLine, len(invoice.Lines))
	copy(stored.Lines, invoice.Lines)

	r.invoices[invoice.ID] = stored
	r.byOrder[invoice.OrderID] = invoice.ID
	r.byFolio[invoice.Folio] = invoice.ID
	return nil
}

// GetByOrderID возвращает счет по ID заказа
func (r *InMemoryInvoiceRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	invoiceID, exists := r.byOrder[orderID]
	if !exists {
		return nil, ErrNotFound
	}
	invoice := r.invoices[invoiceID]
	return &invoice, nil
}

// GetByCustomerID возвращает счета покупателя, новые первыми
func (r *InMemoryInvoiceRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Invoice, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	invoices := make([]domain.Invoice, 0)
	for _, invoice := range r.invoices {
		if invoice.CustomerID == customerID {
			invoices = append(invoices, invoice)
		}
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].IssuedAt.After(invoices[j].IssuedAt)
	})
	return invoices, nil
}
