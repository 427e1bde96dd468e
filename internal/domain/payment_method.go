package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CardType тип карты, выводится из первых цифр номера
type CardType string

const (
	CardTypeVisa       CardType = "visa"
	CardTypeMastercard CardType = "mastercard"
	CardTypeAmex       CardType = "amex"
	CardTypeDiscover   CardType = "discover"
	CardTypeOther      CardType = "other"
)

// PaymentMethod представляет собой сохраненную карту покупателя.
// Карта принадлежит ровно одному покупателю; срок действия должен быть
// строго в будущем в момент добавления.
type PaymentMethod struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	HolderName string    `json:"holder_name"`
	CardNumber string    `json:"-"` // наружу отдается только маска
	CardType   CardType  `json:"card_type"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Masked возвращает номер карты в виде "****" + последние четыре цифры.
func (m *PaymentMethod) Masked() string {
	if len(m.CardNumber) < 4 {
		return "****"
	}
	return "****" + m.CardNumber[len(m.CardNumber)-4:]
}

// InferCardType определяет тип карты по первой цифре номера.
func InferCardType(number string) CardType {
	switch {
	case strings.HasPrefix(number, "4"):
		return CardTypeVisa
	case strings.HasPrefix(number, "5"):
		return CardTypeMastercard
	case strings.HasPrefix(number, "3"):
		return CardTypeAmex
	case strings.HasPrefix(number, "6"):
		return CardTypeDiscover
	default:
		return CardTypeOther
	}
}

// AddCardRequest запрос на добавление карты.
// CVV проверяется и отбрасывается, в хранилище не попадает.
type AddCardRequest struct {
	HolderName string `json:"holder_name" binding:"required"`
	CardNumber string `json:"card_number" binding:"required,min=13,max=19,numeric"`
	CVV        string `json:"cvv" binding:"required,min=3,max=4,numeric"`
	ExpiresAt  string `json:"expires_at" binding:"required"` // RFC 3339
}

// AssignPaymentMethodRequest запрос на привязку карты к корзине.
type AssignPaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required,uuid4"`
}
