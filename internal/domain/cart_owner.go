package domain

import "github.com/google/uuid"

// OwnerKind вид владельца корзины
type OwnerKind string

const (
	OwnerAuthenticated OwnerKind = "authenticated"
	OwnerAnonymous     OwnerKind = "anonymous"
)

// CartOwner описывает размеченное объединение "владелец корзины":
// либо аутентифицированный покупатель, либо анонимная сессия,
// опционально уже держащая идентификатор корзины. Заменяет пару
// nullable-полей с неявным инвариантом из исходной витрины.
type CartOwner struct {
	Kind       OwnerKind `json:"kind"`
	CustomerID uuid.UUID `json:"customer_id,omitempty"` // заполнено только для Kind == authenticated
	CartID     uuid.UUID `json:"cart_id,omitempty"`     // заполнено для анонимного владельца с известной корзиной
}

// AuthenticatedOwner владелец-покупатель.
func AuthenticatedOwner(customerID uuid.UUID) CartOwner {
	return CartOwner{Kind: OwnerAuthenticated, CustomerID: customerID}
}

// AnonymousOwner анонимный владелец с известным идентификатором корзины.
func AnonymousOwner(cartID uuid.UUID) CartOwner {
	return CartOwner{Kind: OwnerAnonymous, CartID: cartID}
}

// NewAnonymousOwner анонимный владелец без корзины (первый визит).
func NewAnonymousOwner() CartOwner {
	return CartOwner{Kind: OwnerAnonymous}
}

// IsAuthenticated сообщает, что владельцем является аутентифицированный покупатель.
func (o CartOwner) IsAuthenticated() bool {
	return o.Kind == OwnerAuthenticated
}

// HasCartID сообщает, что анонимный владелец уже держит идентификатор корзины.
func (o CartOwner) HasCartID() bool {
	return o.CartID != uuid.Nil
}
