package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrCartNotFound корзина не найдена
	ErrCartNotFound = errors.New("cart not found")

	// ErrProductNotFound товар не найден
	ErrProductNotFound = errors.New("product not found")

	// ErrCustomerNotFound покупатель не найден
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrOrderNotFound заказ не найден
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvoiceNotFound счет не найден
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrEmptyCart попытка оформить пустую корзину
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNoPaymentMethod метод оплаты не указан и к корзине не привязан
	ErrNoPaymentMethod = errors.New("no payment method selected")

	// ErrInvalidPaymentMethod метод оплаты не принадлежит покупателю
	ErrInvalidPaymentMethod = errors.New("invalid payment method for this customer")

	// ErrCardExpired срок действия карты истек
	ErrCardExpired = errors.New("card is expired")

	// ErrEmailTaken email уже зарегистрирован
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials неверные email или пароль
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvoiceAlreadyIssued по заказу уже выпущен счет
	ErrInvoiceAlreadyIssued = errors.New("invoice already issued for this order")

	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("internal error")
)

// InsufficientStockError остатка товара не хватает для списания.
// Несет имя товара: именно его показывают покупателю.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

// Error реализует интерфейс error
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// CheckoutState состояние конечного автомата оформления заказа
type CheckoutState string

const (
	CheckoutValidating       CheckoutState = "Validating"
	CheckoutStockReserving   CheckoutState = "StockReserving"
	CheckoutOrderCreated     CheckoutState = "OrderCreated"
	CheckoutInvoiceRequested CheckoutState = "InvoiceRequested"
	CheckoutCompleted        CheckoutState = "Completed"
)

// CheckoutError ошибка оформления заказа с состоянием, в котором произошел
// отказ. Для состояний после OrderCreated заказ остается подтвержденным:
// списание остатков авторитетно до попытки выпуска счета.
type CheckoutError struct {
	State       CheckoutState
	OrderID     string // заполнено, если заказ уже был создан
	OriginalErr error
}

// Error реализует интерфейс error
func (e *CheckoutError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("checkout failed at %s (order %s confirmed, invoice pending): %v",
			e.State, e.OrderID, e.OriginalErr)
	}
	return fmt.Sprintf("checkout failed at %s: %v", e.State, e.OriginalErr)
}

// Unwrap возвращает оригинальную ошибку
func (e *CheckoutError) Unwrap() error {
	return e.OriginalErr
}

// NewCheckoutError создает ошибку оформления заказа.
func NewCheckoutError(state CheckoutState, orderID string, err error) *CheckoutError {
	return &CheckoutError{State: state, OrderID: orderID, OriginalErr: err}
}

// DownstreamError ошибка внешнего потребителя (рендер/доставка счета).
// Заказ при этом остается подтвержденным.
type DownstreamError struct {
	Stage       string // invoice_render, invoice_delivery, event_publish
	OriginalErr error
}

// Error реализует интерфейс error
func (e *DownstreamError) Error() string {
	return fmt.Sprintf("downstream failure at %s: %v", e.Stage, e.OriginalErr)
}

// Unwrap возвращает оригинальную ошибку
func (e *DownstreamError) Unwrap() error {
	return e.OriginalErr
}
