package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer представляет собой покупателя витрины.
// Инвариант: у покупателя в каждый момент времени не более одной корзины.
type Customer struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt-хеш, наружу не отдается
	Name         string    `json:"name"`
	LastName     string    `json:"last_name,omitempty"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest запрос на регистрацию покупателя.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	LastName string `json:"last_name" binding:"required"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	// Анонимная корзина из сессии, подлежащая слиянию после регистрации
	AnonymousCartID string `json:"anonymous_cart_id" binding:"omitempty,uuid4"`
}

// LoginRequest запрос на вход.
type LoginRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	AnonymousCartID string `json:"anonymous_cart_id" binding:"omitempty,uuid4"`
}
