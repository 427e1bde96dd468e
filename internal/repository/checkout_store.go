package repository

import (
	"context"
	"sync"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// CheckoutStore атомарная единица фиксации оформления заказа:
// списание остатков по всем позициям и создание заказа коммитятся вместе:
// либо проходят все строки, либо ни одна. Остаток не может уйти в минус.
type CheckoutStore interface {
	// ReserveStockAndCreateOrder проверяет остатки по всем позициям,
	// списывает их и сохраняет заказ. При нехватке возвращает
	// *domain.InsufficientStockError без каких-либо изменений;
	// при конкурентном конфликте возвращается ErrConcurrency.
	ReserveStockAndCreateOrder(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error
}

// InMemoryCheckoutStore реализация атомарного оформления в памяти.
// Атомарность обеспечивается общим мьютексом поверх репозиториев
// товаров и заказов.
type InMemoryCheckoutStore struct {
	products *InMemoryProductRepository
	orders   *InMemoryOrderRepository
	mutex    sync.Mutex
	log      *logger.Logger
}

// NewInMemoryCheckoutStore создает новый стор оформления в памяти
func NewInMemoryCheckoutStore(products *InMemoryProductRepository, orders *InMemoryOrderRepository, log *logger.Logger) *InMemoryCheckoutStore {
	return &InMemoryCheckoutStore{
		products: products,
		orders:   orders,
		log:      log,
	}
}

// ReserveStockAndCreateOrder списывает остатки и создает заказ атомарно
func (s *InMemoryCheckoutStore) ReserveStockAndCreateOrder(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Первый проход: только проверки, никаких мутаций.
	// Остаток ведется нарастающим итогом: несколько строк одного товара
	// (разные размеры) списываются суммарно.
	remaining := make(map[uuid.UUID]int, len(decrements))
	names := make(map[uuid.UUID]string, len(decrements))
	for _, dec := range decrements {
		available, seen := remaining[dec.ProductID]
		if !seen {
			product, err := s.products.GetByID(ctx, dec.ProductID)
			if err != nil {
				return err
			}
			available = product.Stock
			names[dec.ProductID] = product.Description
		}
		if available < dec.Quantity {
			return &domain.InsufficientStockError{
				ProductName: names[dec.ProductID],
				Requested:   dec.Quantity,
				Available:   available,
			}
		}
		remaining[dec.ProductID] = available - dec.Quantity
	}

	// Второй проход: все проверки пройдены, фиксируем списание
	for productID, rest := range remaining {
		s.products.setStock(productID, rest)
	}
	s.orders.put(order)

	s.log.Debugw("Stock reserved and order persisted", "orderId", order.ID, "lines", len(decrements))
	return nil
}
