package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService регистрация и вход покупателей. После успешного входа или
// регистрации анонимная корзина сессии сливается в корзину покупателя.
type AuthService struct {
	customerRepo repository.CustomerRepository
	merge        *MergeService
	log          *logger.Logger
}

// NewAuthService конструктор сервиса аутентификации
func NewAuthService(customerRepo repository.CustomerRepository, merge *MergeService, log *logger.Logger) *AuthService {
	return &AuthService{
		customerRepo: customerRepo,
		merge:        merge,
		log:          log,
	}
}

// AuthResult результат регистрации или входа: покупатель и его корзина
// (после слияния анонимной, если она была).
type AuthResult struct {
	Customer *domain.Customer `json:"customer"`
	CartID   uuid.UUID        `json:"cart_id"`
}

// Register создает покупателя. Email уникален без учета регистра; пароль
// хранится только как bcrypt-хеш.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	customer := &domain.Customer{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		LastName:     req.LastName,
		Address:      req.Address,
		Phone:        req.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.log.Infow("Customer registered", "customerId", customer.ID, "email", customer.Email)

	cartID, err := s.mergeSessionCart(ctx, req.AnonymousCartID, customer.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Customer: customer, CartID: cartID}, nil
}

// Login проверяет учетные данные. Какой именно фактор не совпал,
// наружу не сообщается.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*AuthResult, error) {
	customer, err := s.customerRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	s.log.Infow("Customer logged in", "customerId", customer.ID)

	cartID, err := s.mergeSessionCart(ctx, req.AnonymousCartID, customer.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Customer: customer, CartID: cartID}, nil
}

// mergeSessionCart вливает анонимную корзину сессии (если токен был) в
// корзину покупателя и возвращает ее ID. Нечитаемый токен считается
// отсутствующим.
func (s *AuthService) mergeSessionCart(ctx context.Context, rawCartID string, customerID uuid.UUID) (uuid.UUID, error) {
	var anonymousCartID *uuid.UUID
	if rawCartID != "" {
		if parsed, err := uuid.Parse(rawCartID); err == nil {
			anonymousCartID = &parsed
		} else {
			s.log.Warnw("Ignoring malformed anonymous cart token", "token", rawCartID)
		}
	}

	cartID, err := s.merge.MergeOnLogin(ctx, anonymousCartID, customerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to merge session cart: %w", err)
	}
	return cartID, nil
}
