package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// CartService владеет корзинами и их строками и считает производные итоги.
// Total корзины никогда не авторитетен: пересчитывается из строк при каждом
// чтении и каждой мутации.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	methodRepo  repository.PaymentMethodRepository
	log         *logger.Logger
}

// NewCartService конструктор сервиса корзин
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	methodRepo repository.PaymentMethodRepository,
	log *logger.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		methodRepo:  methodRepo,
		log:         log,
	}
}

// snapshot собирает снимок корзины с пересчитанными итогами.
func snapshot(cart *domain.Cart) *domain.CartSnapshot {
	owner := domain.AnonymousOwner(cart.ID)
	if cart.CustomerID != nil {
		owner = domain.AuthenticatedOwner(*cart.CustomerID)
	}
	return &domain.CartSnapshot{
		CartID: cart.ID,
		Owner:  owner,
		Lines:  cart.Lines,
		Totals: domain.ComputeTotals(cart.Lines),
	}
}

// GetOrCreateCart возвращает корзину владельца, создавая её при отсутствии.
// Для анонимного владельца с идентификатором корзина, успевшая обрести
// хозяина, считается не найденной: создается новая анонимная.
func (s *CartService) GetOrCreateCart(ctx context.Context, owner domain.CartOwner) (*domain.CartSnapshot, error) {
	cart, err := s.lookupCart(ctx, owner)
	if err == nil {
		return s.refresh(ctx, cart)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up cart: %w", err)
	}

	// Корзины нет, создаем пустую
	var customerID *uuid.UUID
	if owner.IsAuthenticated() {
		id := owner.CustomerID
		customerID = &id
	}
	cart = domain.NewCart(customerID)
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && owner.IsAuthenticated() {
			// Гонка создания: корзина покупателя появилась между lookup и create
			if existing, lookupErr := s.cartRepo.GetByCustomerID(ctx, owner.CustomerID); lookupErr == nil {
				return snapshot(existing), nil
			}
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	s.log.Infow("Cart created", "cartId", cart.ID, "kind", owner.Kind)
	return snapshot(cart), nil
}

// lookupCart ищет существующую корзину владельца.
func (s *CartService) lookupCart(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if owner.IsAuthenticated() {
		return s.cartRepo.GetByCustomerID(ctx, owner.CustomerID)
	}
	if owner.HasCartID() {
		return s.cartRepo.GetAnonymousByID(ctx, owner.CartID)
	}
	return nil, repository.ErrNotFound
}

// refresh пересчитывает итог корзины и сохраняет его, если хранимое
// значение разошлось со строками.
func (s *CartService) refresh(ctx context.Context, cart *domain.Cart) (*domain.CartSnapshot, error) {
	totals := domain.ComputeTotals(cart.Lines)
	if cart.Total != totals.Total {
		cart.Total = totals.Total
		if err := s.cartRepo.Update(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to persist recomputed total: %w", err)
		}
	}
	return snapshot(cart), nil
}

// AddLine добавляет строку в корзину. Количество ≤0 трактуется как 1.
// Подытог фиксируется по текущей цене товара; против остатка на этом
// этапе не проверяется: остаток контролируют обновление количества
// и оформление заказа.
func (s *CartService) AddLine(ctx context.Context, cartID uuid.UUID, req domain.AddLineRequest) (*domain.CartSnapshot, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	line := &domain.CartLine{
		ID:         uuid.New(),
		CartID:     cart.ID,
		ProductID:  product.ID,
		Quantity:   quantity,
		Size:       req.Size,
		FrontImage: req.FrontImage,
		BackImage:  req.BackImage,
		UnitPrice:  product.Price,
		Subtotal:   float64(quantity) * product.Price,
	}
	if err := s.cartRepo.AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}
	cart.Lines = append(cart.Lines, *line)

	if err := s.persistTotal(ctx, cart); err != nil {
		return nil, err
	}

	s.log.Infow("Cart line added", "cartId", cart.ID, "productId", product.ID, "quantity", quantity)
	return snapshot(cart), nil
}

// UpdateLineQuantity меняет количество в строке, зажимая его в диапазон
// [1, остаток товара]. Запрошенное ≤0 означает удаление строки, а не ошибку;
// превышение остатка молча обрезается до доступного. Нулевой остаток
// также приводит к удалению строки.
func (s *CartService) UpdateLineQuantity(ctx context.Context, cartID, lineID uuid.UUID, requested int) (*domain.CartSnapshot, error) {
	if requested <= 0 {
		return s.RemoveLine(ctx, cartID, lineID)
	}

	cart, line, err := s.loadCartLine(ctx, cartID, lineID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if product.Stock < 1 {
		// Зажим в [1, 0] невозможен, строка уходит
		return s.RemoveLine(ctx, cartID, lineID)
	}

	quantity := requested
	if quantity > product.Stock {
		quantity = product.Stock
	}

	line.Quantity = quantity
	// Подытог по цене на момент добавления, не по текущей цене товара
	line.Subtotal = float64(quantity) * line.UnitPrice
	if err := s.cartRepo.UpdateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to update cart line: %w", err)
	}

	for i := range cart.Lines {
		if cart.Lines[i].ID == line.ID {
			cart.Lines[i] = *line
		}
	}
	if err := s.persistTotal(ctx, cart); err != nil {
		return nil, err
	}

	s.log.Infow("Cart line quantity updated", "cartId", cart.ID, "lineId", line.ID, "quantity", quantity)
	return snapshot(cart), nil
}

// RemoveLine удаляет строку и пересчитывает итог корзины.
func (s *CartService) RemoveLine(ctx context.Context, cartID, lineID uuid.UUID) (*domain.CartSnapshot, error) {
	cart, line, err := s.loadCartLine(ctx, cartID, lineID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.RemoveLine(ctx, line.ID); err != nil {
		return nil, fmt.Errorf("failed to remove cart line: %w", err)
	}

	remaining := cart.Lines[:0]
	for _, l := range cart.Lines {
		if l.ID != line.ID {
			remaining = append(remaining, l)
		}
	}
	cart.Lines = remaining

	if err := s.persistTotal(ctx, cart); err != nil {
		return nil, err
	}

	s.log.Infow("Cart line removed", "cartId", cart.ID, "lineId", line.ID)
	return snapshot(cart), nil
}

// Clear удаляет все строки корзины и обнуляет итог.
func (s *CartService) Clear(ctx context.Context, cartID uuid.UUID) (*domain.CartSnapshot, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if err := s.cartRepo.ClearLines(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to clear cart lines: %w", err)
	}
	cart.Lines = nil

	if err := s.persistTotal(ctx, cart); err != nil {
		return nil, err
	}

	s.log.Infow("Cart cleared", "cartId", cart.ID)
	return snapshot(cart), nil
}

// AssignPaymentMethod привязывает карту к корзине, проверяя, что и карта,
// и корзина принадлежат одному и тому же покупателю.
func (s *CartService) AssignPaymentMethod(ctx context.Context, customerID, cartID, methodID uuid.UUID) (*domain.CartSnapshot, error) {
	method, err := s.methodRepo.GetByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidPaymentMethod
		}
		return nil, fmt.Errorf("failed to load payment method: %w", err)
	}
	if method.CustomerID != customerID {
		s.log.Warnw("Payment method belongs to another customer",
			"methodId", methodID, "requesterId", customerID, "ownerId", method.CustomerID)
		return nil, domain.ErrInvalidPaymentMethod
	}

	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.CustomerID == nil || *cart.CustomerID != customerID {
		return nil, domain.ErrCartNotFound
	}

	cart.PaymentMethodID = &method.ID
	if err := s.cartRepo.Update(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to assign payment method: %w", err)
	}

	s.log.Infow("Payment method assigned to cart", "cartId", cart.ID, "methodId", method.ID)
	return snapshot(cart), nil
}

// loadCartLine загружает корзину и её строку, проверяя принадлежность.
func (s *CartService) loadCartLine(ctx context.Context, cartID, lineID uuid.UUID) (*domain.Cart, *domain.CartLine, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.ErrCartNotFound
		}
		return nil, nil, fmt.Errorf("failed to load cart: %w", err)
	}

	line, err := s.cartRepo.GetLine(ctx, lineID)
	if err != nil || line.CartID != cart.ID {
		return nil, nil, domain.ErrCartNotFound
	}
	return cart, line, nil
}

// persistTotal пересчитывает и сохраняет итог корзины.
func (s *CartService) persistTotal(ctx context.Context, cart *domain.Cart) error {
	cart.Recalculate()
	if err := s.cartRepo.Update(ctx, cart); err != nil {
		return fmt.Errorf("failed to persist cart total: %w", err)
	}
	return nil
}
