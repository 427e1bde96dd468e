package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// CartRepository интерфейс для работы с корзинами и их строками
type CartRepository interface {
	// GetByID возвращает корзину со строками
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	// GetByCustomerID возвращает корзину покупателя (не более одной)
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	// GetAnonymousByID возвращает корзину по ID при условии, что у нее нет владельца
	GetAnonymousByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	Create(ctx context.Context, cart *domain.Cart) error
	// Update сохраняет Total, привязку метода оплаты и UpdatedAt
	Update(ctx context.Context, cart *domain.Cart) error
	// Delete удаляет корзину вместе со строками
	Delete(ctx context.Context, id uuid.UUID) error

	AddLine(ctx context.Context, line *domain.CartLine) error
	GetLine(ctx context.Context, lineID uuid.UUID) (*domain.CartLine, error)
	UpdateLine(ctx context.Context, line *domain.CartLine) error
	RemoveLine(ctx context.Context, lineID uuid.UUID) error
	// ClearLines удаляет все строки корзины
	ClearLines(ctx context.Context, cartID uuid.UUID) error
}

// InMemoryCartRepository реализация репозитория корзин в памяти
type InMemoryCartRepository struct {
	carts map[uuid.UUID]domain.Cart
	lines map[uuid.UUID]domain.CartLine
	mutex sync.RWMutex
	log   *logger.Logger
}

// NewInMemoryCartRepository создает новый репозиторий корзин в памяти
func NewInMemoryCartRepository(log *logger.Logger) *InMemoryCartRepository {
	return &InMemoryCartRepository{
		carts: make(map[uuid.UUID]domain.Cart),
		lines: make(map[uuid.UUID]domain.CartLine),
		log:   log,
	}
}

// linesOf собирает строки корзины. Вызывается под блокировкой.
func (r *InMemoryCartRepository) linesOf(cartID uuid.UUID) []domain.CartLine {
	lines := make([]domain.CartLine, 0)
	for _, line := range r.lines {
		if line.CartID == cartID {
			lines = append(lines, line)
		}
	}
	return lines
}

// GetByID возвращает корзину со строками
func (r *InMemoryCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cart, exists := r.carts[id]
	if !exists {
		return nil, ErrNotFound
	}
	cart.Lines = r.linesOf(id)
	return &cart, nil
}

// GetByCustomerID возвращает корзину покупателя
func (r *InMemoryCartRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, cart := range r.carts {
		if cart.CustomerID != nil && *cart.CustomerID == customerID {
			cart.Lines = r.linesOf(cart.ID)
			return &cart, nil
		}
	}
	return nil, ErrNotFound
}

// GetAnonymousByID возвращает анонимную корзину по ID.
// Корзина, успевшая обрести владельца, считается не найденной.
func (r *InMemoryCartRepository) GetAnonymousByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cart, exists := r.carts[id]
	if !exists || cart.CustomerID != nil {
		return nil, ErrNotFound
	}
	cart.Lines = r.linesOf(id)
	return &cart, nil
}

// Create сохраняет новую корзину
func (r *InMemoryCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.carts[cart.ID]; exists {
		return ErrDuplicate
	}

	// Инвариант: не более одной корзины на покупателя
	if cart.CustomerID != nil {
		for _, existing := range r.carts {
			if existing.CustomerID != nil && *existing.CustomerID == *cart.CustomerID {
				r.log.Warnw("Attempt to create a second cart for customer", "customerId", cart.CustomerID)
				return ErrDuplicate
			}
		}
	}

	stored := *cart
	stored.Lines = nil
	r.carts[cart.ID] = stored
	return nil
}

// Update сохраняет изменяемые поля корзины
func (r *InMemoryCartRepository) Update(ctx context.Context, cart *domain.Cart) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, exists := r.carts[cart.ID]
	if !exists {
		return ErrNotFound
	}

	stored.CustomerID = cart.CustomerID
	stored.PaymentMethodID = cart.PaymentMethodID
	stored.Total = cart.Total
	stored.UpdatedAt = time.Now()
	r.carts[cart.ID] = stored
	return nil
}

// Delete удаляет корзину и каскадно её строки
func (r *InMemoryCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.carts[id]; !exists {
		return ErrNotFound
	}
	delete(r.carts, id)
	for lineID, line := range r.lines {
		if line.CartID == id {
			delete(r.lines, lineID)
		}
	}
	return nil
}

// AddLine сохраняет новую строку корзины
func (r *InMemoryCartRepository) AddLine(ctx context.Context, line *domain.CartLine) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.carts[line.CartID]; !exists {
		return ErrNotFound
	}
	r.lines[line.ID] = *line
	return nil
}

// GetLine возвращает строку корзины по ID
func (r *InMemoryCartRepository) GetLine(ctx context.Context, lineID uuid.UUID) (*domain.CartLine, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	line, exists := r.lines[lineID]
	if !exists {
		return nil, ErrNotFound
	}
	return &line, nil
}

// UpdateLine сохраняет количество и подытог строки
func (r *InMemoryCartRepository) UpdateLine(ctx context.Context, line *domain.CartLine) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.lines[line.ID]; !exists {
		return ErrNotFound
	}
	r.lines[line.ID] = *line
	return nil
}

// RemoveLine удаляет строку корзины
func (r *InMemoryCartRepository) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.lines[lineID]; !exists {
		return ErrNotFound
	}
	delete(r.lines, lineID)
	return nil
}

// ClearLines удаляет все строки корзины
func (r *InMemoryCartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for lineID, line := range r.lines {
		if line.CartID == cartID {
			delete(r.lines, lineID)
		}
	}
	return nil
}
