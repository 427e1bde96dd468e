package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCheckoutStore атомарное списание остатков и создание заказа
// в одной транзакции. Условный UPDATE с блокировкой строк гарантирует,
// что остаток не уйдет в минус; откат транзакции возвращает все
// списания при нехватке любой позиции.
type PostgresCheckoutStore struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresCheckoutStore создает новый стор оформления через PostgreSQL
func NewPostgresCheckoutStore(db *pgxpool.Pool, log *logger.Logger) *PostgresCheckoutStore {
	return &PostgresCheckoutStore{
		db:  db,
		log: log,
	}
}

// ReserveStockAndCreateOrder списывает остатки по всем позициям и
// сохраняет заказ. Все или ничего: нехватка любой позиции откатывает
// транзакцию целиком и возвращает *domain.InsufficientStockError.
// Конфликт сериализации отображается в repository.ErrConcurrency.
func (s *PostgresCheckoutStore) ReserveStockAndCreateOrder(ctx context.Context, order *domain.Order, decrements []domain.StockDecrement) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строки товаров в детерминированном порядке запроса и
	// списываем только при достаточном остатке
	decrementQuery := `
		UPDATE products
		SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1
	`
	for _, d := range decrements {
		result, err := tx.Exec(ctx, decrementQuery, d.Quantity, d.ProductID)
		if err != nil {
			if isSerializationFailure(err) {
				return repository.ErrConcurrency
			}
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if result.RowsAffected() == 0 {
			// Либо товара нет, либо остатка не хватает: выясняем что именно
			insufficientErr, lookupErr := s.describeShortage(ctx, tx, d)
			if lookupErr != nil {
				return lookupErr
			}
			return insufficientErr
		}
	}

	orderQuery := `
		INSERT INTO orders (id, cart_id, payment_method_id, status, placed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, orderQuery,
		order.ID,
		order.CartID,
		order.PaymentMethodID,
		order.Status,
		order.PlacedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return repository.ErrConcurrency
		}
		return fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	return nil
}

// describeShortage строит ошибку нехватки по текущему состоянию товара
func (s *PostgresCheckoutStore) describeShortage(ctx context.Context, tx pgx.Tx, d domain.StockDecrement) (*domain.InsufficientStockError, error) {
	var name string
	var available int
	err := tx.QueryRow(ctx, `SELECT description, stock FROM products WHERE id = $1`, d.ProductID).Scan(&name, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to inspect product stock: %w", err)
	}
	return &domain.InsufficientStockError{
		ProductName: name,
		Requested:   d.Quantity,
		Available:   available,
	}, nil
}

// isSerializationFailure распознает конфликт конкурентных транзакций:
// 40001 serialization_failure и 40P01 deadlock_detected
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
