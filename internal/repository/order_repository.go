package repository

import (
	"context"
	"sync"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// OrderRepository интерфейс для чтения заказов.
// Создание заказа идет только через CheckoutStore, атомарно со списанием
// остатков. Заказы append-only: обновления и удаления не предусмотрены.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// InMemoryOrderRepository реализация репозитория заказов в памяти
type InMemoryOrderRepository struct {
	orders map[uuid.UUID]domain.Order
	mutex  sync.RWMutex
	log    *logger.Logger
}

// NewInMemoryOrderRepository создает новый репозиторий заказов в памяти
func NewInMemoryOrderRepository(log *logger.Logger) *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders: make(map[uuid.UUID]domain.Order),
		log:    log,
	}
}

// GetByID возвращает заказ по ID
func (r *InMemoryOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &order, nil
}

// put сохраняет заказ. Используется транзакцией оформления.
func (r *InMemoryOrderRepository) put(order *domain.Order) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.orders[order.ID] = *order
}
