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

// PostgresPaymentMethodRepository реализация репозитория карт через PostgreSQL
type PostgresPaymentMethodRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresPaymentMethodRepository создает новый репозиторий карт через PostgreSQL
func NewPostgresPaymentMethodRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresPaymentMethodRepository {
	return &PostgresPaymentMethodRepository{
		db:  db,
		log: log,
	}
}

// GetByID возвращает карту по ID
func (r *PostgresPaymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	query := `
		SELECT id, customer_id, holder_name, card_number, card_type, expires_at, created_at
		FROM payment_methods
		WHERE id = $1
	`

	var method domain.PaymentMethod
	err := r.db.QueryRow(ctx, query, id).Scan(
		&method.ID,
		&method.CustomerID,
		&method.HolderName,
		&method.CardNumber,
		&method.CardType,
		&method.ExpiresAt,
		&method.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}

	return &method, nil
}

// GetByCustomerID возвращает карты покупателя
func (r *PostgresPaymentMethodRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.PaymentMethod, error) {
	query := `
		SELECT id, customer_id, holder_name, card_number, card_type, expires_at, created_at
		FROM payment_methods
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var method domain.PaymentMethod
		err := rows.Scan(
			&method.ID,
			&method.CustomerID,
			&method.HolderName,
			&method.CardNumber,
			&method.CardType,
			&method.ExpiresAt,
			&method.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, method)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment methods: %w", err)
	}

	return methods, nil
}

// Create сохраняет карту покупателя
func (r *PostgresPaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (id, customer_id, holder_name, card_number, card_type, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		method.ID,
		method.CustomerID,
		method.HolderName,
		method.CardNumber,
		method.CardType,
		method.ExpiresAt,
		method.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return repository.ErrDuplicate
			}
			if pgErr.Code == "23503" {
				return repository.ErrNotFound
			}
		}
		return fmt.Errorf("failed to create payment method: %w", err)
	}

	return nil
}
