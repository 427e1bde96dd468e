package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus статус заказа
type OrderStatus string

const (
	// OrderStatusConfirmed заказ подтвержден: остатки списаны, запись неизменяема
	OrderStatusConfirmed OrderStatus = "Confirmed"
)

// Order представляет собой заказ, созданный из корзины при оформлении.
// Запись append-only: ядро никогда не обновляет и не удаляет заказы.
type Order struct {
	ID              uuid.UUID   `json:"id"`
	CartID          uuid.UUID   `json:"cart_id"`
	PaymentMethodID uuid.UUID   `json:"payment_method_id"`
	Status          OrderStatus `json:"status"`
	PlacedAt        time.Time   `json:"placed_at"`
}

// NewOrder создает подтвержденный заказ по корзине и методу оплаты.
func NewOrder(cartID, paymentMethodID uuid.UUID) *Order {
	return &Order{
		ID:              uuid.New(),
		CartID:          cartID,
		PaymentMethodID: paymentMethodID,
		Status:          OrderStatusConfirmed,
		PlacedAt:        time.Now(),
	}
}

// CheckoutRequest запрос на оформление заказа.
type CheckoutRequest struct {
	CartID          string `json:"cart_id" binding:"required,uuid4"`
	PaymentMethodID string `json:"payment_method_id" binding:"omitempty,uuid4"`
}

// CheckoutResult результат успешного оформления заказа.
type CheckoutResult struct {
	OrderID      uuid.UUID `json:"order_id"`
	InvoiceFolio string    `json:"invoice_folio"`
}
