package repository

import (
	"context"
	"sync"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// PaymentMethodRepository интерфейс для работы с сохраненными картами
type PaymentMethodRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error)
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.PaymentMethod, error)
	Create(ctx context.Context, method *domain.PaymentMethod) error
}

// InMemoryPaymentMethodRepository реализация репозитория карт в памяти
type InMemoryPaymentMethodRepository struct {
	methods map[uuid.UUID]domain.PaymentMethod
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryPaymentMethodRepository создает новый репозиторий карт в памяти
func NewInMemoryPaymentMethodRepository(log *logger.Logger) *InMemoryPaymentMethodRepository {
	return &InMemoryPaymentMethodRepository{
		methods: make(map[uuid.UUID]domain.PaymentMethod),
		log:     log,
	}
}

// GetByID возвращает карту по ID
func (r *InMemoryPaymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	method, exists := r.methods[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &method, nil
}

// GetByCustomerID возвращает все карты покупателя
func (r *InMemoryPaymentMethodRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.PaymentMethod, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	methods := make([]domain.PaymentMethod, 0)
	for _, method := range r.methods {
		if method.CustomerID == customerID {
			methods = append(methods, method)
		}
	}
	return methods, nil
}

// Create сохраняет новую карту
func (r *InMemoryPaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.methods[method.ID]; exists {
		return ErrDuplicate
	}
	r.methods[method.ID] = *method
	return nil
}
