package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product представляет собой товар каталога.
// Stock хранит авторитетное значение остатка: мутируется только оформлением
// заказа и никогда не уходит в минус.
type Product struct {
	ID            uuid.UUID `json:"id"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Stock         int       `json:"stock"`
	Category      string    `json:"category,omitempty"`
	FrontImageURL string    `json:"front_image_url,omitempty"`
	BackImageURL  string    `json:"back_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockDecrement требование на списание остатка одного товара.
type StockDecrement struct {
	ProductID uuid.UUID
	Quantity  int
}
