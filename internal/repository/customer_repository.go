package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// CustomerRepository интерфейс для работы с покупателями
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) error
}

// InMemoryCustomerRepository реализация репозитория покупателей в памяти
type InMemoryCustomerRepository struct {
	customers map[uuid.UUID]domain.Customer
	byEmail   map[string]uuid.UUID
	mutex     sync.RWMutex
	log       *logger.Logger
}

// NewInMemoryCustomerRepository создает новый репозиторий покупателей в памяти
func NewInMemoryCustomerRepository(log *logger.Logger) *InMemoryCustomerRepository {
	return &InMemoryCustomerRepository{
		customers: make(map[uuid.UUID]domain.Customer),
		byEmail:   make(map[string]uuid.UUID),
		log:       log,
	}
}

// GetByID возвращает покупателя по ID
func (r *InMemoryCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	customer, exists := r.customers[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &customer, nil
}

// GetByEmail возвращает покупателя по email (без учета регистра)
func (r *InMemoryCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	id, exists := r.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, ErrNotFound
	}
	customer := r.customers[id]
	return &customer, nil
}

// Create сохраняет нового покупателя; email уникален
func (r *InMemoryCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := strings.ToLower(customer.Email)
	if _, exists := r.byEmail[key]; exists {
		return ErrDuplicate
	}
	r.customers[customer.ID] = *customer
	r.byEmail[key] = customer.ID
	return nil
}
