package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresInvoiceRepository реестр счетов через PostgreSQL.
// Счета append-only: таблицы не знают UPDATE и DELETE.
type PostgresInvoiceRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresInvoiceRepository создает новый репозиторий счетов через PostgreSQL
func NewPostgresInvoiceRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{
		db:  db,
		log: log,
	}
}

// Create сохраняет счет со строками в одной транзакции.
// Уникальные индексы на folio и order_id дают ErrDuplicate и на коллизию
// фолио, и на повторный выпуск по заказу.
func (r *PostgresInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	invoiceQuery := `
		INSERT INTO invoices (id, folio, order_id, customer_id, total, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, invoiceQuery,
		invoice.ID,
		invoice.Folio,
		invoice.OrderID,
		invoice.CustomerID,
		invoice.Total,
		invoice.IssuedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	lineQuery := `
		INSERT INTO invoice_lines (id, invoice_id, product_id, name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, line := range invoice.Lines {
		_, err := tx.Exec(ctx, lineQuery,
			line.ID,
			line.InvoiceID,
			line.ProductID,
			line.Name,
			line.Quantity,
			line.UnitPrice,
			line.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert invoice line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}

	return nil
}

// GetByOrderID возвращает счет заказа вместе со строками
func (r *PostgresInvoiceRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	query := `
		SELECT id, folio, order_id, customer_id, total, issued_at
		FROM invoices
		WHERE order_id = $1
	`

	var invoice domain.Invoice
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&invoice.ID,
		&invoice.Folio,
		&invoice.OrderID,
		&invoice.CustomerID,
		&invoice.Total,
		&invoice.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if err := r.loadLines(ctx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByCustomerID возвращает счета покупателя, новые первыми
func (r *PostgresInvoiceRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Invoice, error) {
	query := `
		SELECT id, folio, order_id, customer_id, total, issued_at
		FROM invoices
		WHERE customer_id = $1
		ORDER BY issued_at DESC
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var invoice domain.Invoice
		err := rows.Scan(
			&invoice.ID,
			&invoice.Folio,
			&invoice.OrderID,
			&invoice.CustomerID,
			&invoice.Total,
			&invoice.IssuedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	for i := range invoices {
		if err := r.loadLines(ctx, &invoices[i]); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// loadLines подгружает строки счета
func (r *PostgresInvoiceRepository) loadLines(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		SELECT id, invoice_id, product_id, name, quantity, unit_price, subtotal
		FROM invoice_lines
		WHERE invoice_id = $1
	`

	rows, err := r.db.Query(ctx, query, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to query invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.InvoiceLine
		err := rows.Scan(
			&line.ID,
			&line.InvoiceID,
			&line.ProductID,
			&line.Name,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to scan invoice line: %w", err)
		}
		invoice.Lines = append(invoice.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating invoice lines: %w", err)
	}

	return nil
}
