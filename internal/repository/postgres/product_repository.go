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

// PostgresProductRepository реализация каталога товаров через PostgreSQL
type PostgresProductRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresProductRepository создает новый репозиторий товаров через PostgreSQL
func NewPostgresProductRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{
		db:  db,
		log: log,
	}
}

// GetByID возвращает товар по ID
func (r *PostgresProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, description, price, stock, category, front_image, back_image, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Category,
		&product.FrontImageURL,
		&product.BackImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// GetAll возвращает все товары каталога
func (r *PostgresProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, description, price, stock, category, front_image, back_image, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		err := rows.Scan(
			&product.ID,
			&product.Description,
			&product.Price,
			&product.Stock,
			&product.Category,
			&product.FrontImageURL,
			&product.BackImageURL,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Create добавляет товар в каталог
func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, description, price, stock, category, front_image, back_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		product.ID,
		product.Description,
		product.Price,
		product.Stock,
		product.Category,
		product.FrontImageURL,
		product.BackImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return repository.ErrDuplicate
			}
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}
