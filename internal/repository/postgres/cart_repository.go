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

// PostgresCartRepository реализация репозитория корзин через PostgreSQL
type PostgresCartRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresCartRepository создает новый репозиторий корзин через PostgreSQL
func NewPostgresCartRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresCartRepository {
	return &PostgresCartRepository{
		db:  db,
		log: log,
	}
}

// GetByID возвращает корзину вместе со строками
func (r *PostgresCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, customer_id, payment_method_id, total, created_at, updated_at
		FROM carts
		WHERE id = $1
	`

	var cart domain.Cart
	err := r.db.QueryRow(ctx, query, id).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.PaymentMethodID,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if err := r.loadLines(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetByCustomerID возвращает корзину покупателя (инвариант: не более одной)
func (r *PostgresCartRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, customer_id, payment_method_id, total, created_at, updated_at
		FROM carts
		WHERE customer_id = $1
	`

	var cart domain.Cart
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.PaymentMethodID,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer cart: %w", err)
	}

	if err := r.loadLines(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetAnonymousByID возвращает корзину только если у нее нет владельца
func (r *PostgresCartRepository) GetAnonymousByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, customer_id, payment_method_id, total, created_at, updated_at
		FROM carts
		WHERE id = $1 AND customer_id IS NULL
	`

	var cart domain.Cart
	err := r.db.QueryRow(ctx, query, id).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.PaymentMethodID,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get anonymous cart: %w", err)
	}

	if err := r.loadLines(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create создает новую корзину
func (r *PostgresCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO carts (id, customer_id, payment_method_id, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		cart.ID,
		cart.CustomerID,
		cart.PaymentMethodID,
		cart.Total,
		cart.CreatedAt,
		cart.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Уникальный индекс на customer_id: одна корзина на покупателя
			if pgErr.Code == "23505" {
				return repository.ErrDuplicate
			}
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return nil
}

// Update сохраняет итог корзины, привязку метода оплаты и UpdatedAt
func (r *PostgresCartRepository) Update(ctx context.Context, cart *domain.Cart) error {
	query := `
		UPDATE carts
		SET payment_method_id = $1, total = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(ctx, query,
		cart.PaymentMethodID,
		cart.Total,
		cart.UpdatedAt,
		cart.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete удаляет корзину; строки уходят каскадом по FK
func (r *PostgresCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM carts WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AddLine добавляет строку в корзину
func (r *PostgresCartRepository) AddLine(ctx context.Context, line *domain.CartLine) error {
	query := `
		INSERT INTO cart_lines (id, cart_id, product_id, quantity, size, front_image, back_image, unit_price, subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		line.ID,
		line.CartID,
		line.ProductID,
		line.Quantity,
		line.Size,
		line.FrontImage,
		line.BackImage,
		line.UnitPrice,
		line.Subtotal,
		line.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return repository.ErrDuplicate
			}
			// 23503: корзина или товар не существуют
			if pgErr.Code == "23503" {
				return repository.ErrNotFound
			}
		}
		return fmt.Errorf("failed to add cart line: %w", err)
	}

	return nil
}

// GetLine возвращает строку корзины по ID
func (r *PostgresCartRepository) GetLine(ctx context.Context, lineID uuid.UUID) (*domain.CartLine, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, size, front_image, back_image, unit_price, subtotal, created_at
		FROM cart_lines
		WHERE id = $1
	`

	var line domain.CartLine
	err := r.db.QueryRow(ctx, query, lineID).Scan(
		&line.ID,
		&line.CartID,
		&line.ProductID,
		&line.Quantity,
		&line.Size,
		&line.FrontImage,
		&line.BackImage,
		&line.UnitPrice,
		&line.Subtotal,
		&line.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}

	return &line, nil
}

// UpdateLine сохраняет количество и подытог строки
func (r *PostgresCartRepository) UpdateLine(ctx context.Context, line *domain.CartLine) error {
	query := `
		UPDATE cart_lines
		SET quantity = $1, subtotal = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, line.Quantity, line.Subtotal, line.ID)
	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RemoveLine удаляет строку корзины
func (r *PostgresCartRepository) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	query := `DELETE FROM cart_lines WHERE id = $1`

	result, err := r.db.Exec(ctx, query, lineID)
	if err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ClearLines удаляет все строки корзины
func (r *PostgresCartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_lines WHERE cart_id = $1`

	if _, err := r.db.Exec(ctx, query, cartID); err != nil {
		return fmt.Errorf("failed to clear cart lines: %w", err)
	}

	return nil
}

// loadLines подгружает строки корзины в порядке добавления
func (r *PostgresCartRepository) loadLines(ctx context.Context, cart *domain.Cart) error {
	query := `
		SELECT id, cart_id, product_id, quantity, size, front_image, back_image, unit_price, subtotal, created_at
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, cart.ID)
	if err != nil {
		return fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.Quantity,
			&line.Size,
			&line.FrontImage,
			&line.BackImage,
			&line.UnitPrice,
			&line.Subtotal,
			&line.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating cart lines: %w", err)
	}

	return nil
}
