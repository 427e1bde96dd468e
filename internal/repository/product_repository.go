package repository

import (
	"context"
	"sync"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// ProductRepository интерфейс для чтения каталога товаров.
// Остаток мутируется только транзакцией оформления заказа (CheckoutStore),
// обычного Update для стока здесь нет намеренно.
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetAll(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
}

// InMemoryProductRepository реализация репозитория товаров в памяти
type InMemoryProductRepository struct {
	products map[uuid.UUID]domain.Product
	mutex    sync.RWMutex
	log      *logger.Logger
}

// NewInMemoryProductRepository создает новый репозиторий товаров в памяти
func NewInMemoryProductRepository(log *logger.Logger) *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[uuid.UUID]domain.Product),
		log:      log,
	}
}

// GetByID возвращает товар по ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &product, nil
}

// GetAll возвращает все товары
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	products := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	return products, nil
}

// Create сохраняет новый товар
func (r *InMemoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return ErrDuplicate
	}
	r.products[product.ID] = *product
	return nil
}

// setStock используется транзакцией оформления (InMemoryCheckoutStore).
// Вызывается под внешней блокировкой стора.
func (r *InMemoryProductRepository) setStock(id uuid.UUID, stock int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if product, exists := r.products[id]; exists {
		product.Stock = stock
		r.products[id] = product
	}
}
