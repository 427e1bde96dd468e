package domain

import (
	"time"

	"github.com/google/uuid"
)

// Константы ценообразования. Формула продублирована в нескольких местах
// исходной витрины, здесь она живет ровно в одном.
const (
	// TaxRate ставка налога (IVA 13%)
	TaxRate = 0.13

	// FreeShippingThreshold порог бесплатной доставки (в единицах валюты)
	FreeShippingThreshold = 25000.0

	// ShippingFee стоимость доставки ниже порога
	ShippingFee = 2500.0
)

// Cart представляет собой корзину покупателя.
// Total является производным значением: пересчитывается из строк при каждом чтении
// и мутации, никогда не является источником истины.
type Cart struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      *uuid.UUID `json:"customer_id,omitempty"`       // nil для анонимной корзины
	PaymentMethodID *uuid.UUID `json:"payment_method_id,omitempty"` // привязанный метод оплаты (опционально)
	Lines           []CartLine `json:"lines"`
	Total           float64    `json:"total"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CartLine представляет собой строку корзины. Subtotal фиксируется в момент
// добавления (quantity × цена товара на тот момент) и не переоценивается
// при последующем изменении цены товара.
type CartLine struct {
	ID         uuid.UUID `json:"id"`
	CartID     uuid.UUID `json:"cart_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Size       string    `json:"size,omitempty"`
	FrontImage string    `json:"front_image,omitempty"` // пользовательский принт (base64), непрозрачный blob
	BackImage  string    `json:"back_image,omitempty"`
	UnitPrice  float64   `json:"unit_price"`
	Subtotal   float64   `json:"subtotal"`
	CreatedAt  time.Time `json:"created_at"`
}

// CartTotals разбивка итоговой суммы корзины.
type CartTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// ComputeTotals вычисляет итоги корзины по её строкам.
// Никаких промежуточных округлений, только арифметика float64,
// округление возможно лишь на уровне отображения.
func ComputeTotals(lines []CartLine) CartTotals {
	if len(lines) == 0 {
		return CartTotals{}
	}

	var subtotal float64
	for _, line := range lines {
		subtotal += line.Subtotal
	}

	tax := subtotal * TaxRate

	shipping := ShippingFee
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	return CartTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal + tax + shipping,
	}
}

// Recalculate пересчитывает Total корзины из её строк.
func (c *Cart) Recalculate() CartTotals {
	totals := ComputeTotals(c.Lines)
	c.Total = totals.Total
	return totals
}

// IsAnonymous сообщает, что корзина не принадлежит ни одному покупателю.
func (c *Cart) IsAnonymous() bool {
	return c.CustomerID == nil
}

// NewCart создает пустую корзину для указанного владельца.
// customerID == nil означает анонимную корзину.
func NewCart(customerID *uuid.UUID) *Cart {
	now := time.Now()
	return &Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		Lines:      []CartLine{},
		Total:      0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CartSnapshot представляет текущее состояние корзины, возвращаемое
// вызывающему слою после каждой операции.
type CartSnapshot struct {
	CartID uuid.UUID  `json:"cart_id"`
	Owner  CartOwner  `json:"owner"`
	Lines  []CartLine `json:"lines"`
	Totals CartTotals `json:"totals"`
}

// AddLineRequest запрос на добавление строки в корзину.
type AddLineRequest struct {
	ProductID  string `json:"product_id" binding:"required,uuid4"`
	Quantity   int    `json:"quantity"`
	Size       string `json:"size"`
	FrontImage string `json:"front_image"`
	BackImage  string `json:"back_image"`
}

// UpdateLineRequest запрос на изменение количества в строке.
type UpdateLineRequest struct {
	Quantity int `json:"quantity"`
}
