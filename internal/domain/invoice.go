package domain

import (
	"time"

	"github.com/google/uuid"
)

// FolioPrefix префикс фолио счета-фактуры
const FolioPrefix = "FAC-"

// Invoice представляет собой неизменяемый счет-фактуру: снимок заказа
// в момент подтверждения. Последующие изменения цен товаров никогда не
// затрагивают уже выпущенный счет. Один заказ порождает ровно один счет.
type Invoice struct {
	ID         uuid.UUID     `json:"id"`
	Folio      string        `json:"folio"` // уникальное фолио
	OrderID    uuid.UUID     `json:"order_id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	Total      float64       `json:"total"`
	IssuedAt   time.Time     `json:"issued_at"`
	Lines      []InvoiceLine `json:"lines"`
}

// InvoiceLine строка счета: копия строки корзины на момент выпуска.
type InvoiceLine struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Subtotal  float64   `json:"subtotal"`
}

// NewFolio генерирует фолио по схеме FAC-yyyyMMddHHmmss.
// Секундное разрешение не гарантирует глобальной уникальности при
// конкурентных оформлениях: коллизию ловит уникальный индекс хранилища.
func NewFolio(issuedAt time.Time) string {
	return FolioPrefix + issuedAt.Format("20060102150405")
}

// CustomerPurchaseHistory история покупок покупателя.
type CustomerPurchaseHistory struct {
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	PurchaseCount int       `json:"purchase_count"`
	TotalSpent    float64   `json:"total_spent"`
	Invoices      []Invoice `json:"invoices"`
}
