package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// PaymentMethodService хранит карты покупателей. Полный номер никогда не
// покидает сервис: наружу отдается маска, CVV проверяется на входе и
// отбрасывается.
type PaymentMethodService struct {
	methodRepo repository.PaymentMethodRepository
	log        *logger.Logger
}

// NewPaymentMethodService конструктор сервиса карт
func NewPaymentMethodService(methodRepo repository.PaymentMethodRepository, log *logger.Logger) *PaymentMethodService {
	return &PaymentMethodService{methodRepo: methodRepo, log: log}
}

// MaskedCard карта в виде, пригодном для выдачи наружу.
type MaskedCard struct {
	ID           uuid.UUID       `json:"id"`
	HolderName   string          `json:"holder_name"`
	MaskedNumber string          `json:"masked_number"`
	CardType     domain.CardType `json:"card_type"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// AddCard добавляет карту покупателю. Срок действия должен быть строго в
// будущем; тип карты выводится из номера.
func (s *PaymentMethodService) AddCard(ctx context.Context, customerID uuid.UUID, req *domain.AddCardRequest) (*MaskedCard, error) {
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: expires_at must be RFC 3339", domain.ErrInvalidInput)
	}
	if !expiresAt.After(time.Now()) {
		return nil, domain.ErrCardExpired
	}

	method := &domain.PaymentMethod{
		ID:         uuid.New(),
		CustomerID: customerID,
		HolderName: req.HolderName,
		CardNumber: req.CardNumber,
		CardType:   domain.InferCardType(req.CardNumber),
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}

	if err := s.methodRepo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to save payment method: %w", err)
	}

	s.log.Infow("Payment method added", "customerId", customerID, "cardType", method.CardType, "card", method.Masked())
	return maskedCard(method), nil
}

// ListCards возвращает карты покупателя в замаскированном виде.
func (s *PaymentMethodService) ListCards(ctx context.Context, customerID uuid.UUID) ([]*MaskedCard, error) {
	methods, err := s.methodRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []*MaskedCard{}, nil
		}
		return nil, fmt.Errorf("failed to load payment methods: %w", err)
	}

	cards := make([]*MaskedCard, 0, len(methods))
	for _, method := range methods {
		cards = append(cards, maskedCard(&method))
	}
	return cards, nil
}

func maskedCard(method *domain.PaymentMethod) *MaskedCard {
	return &MaskedCard{
		ID:           method.ID,
		HolderName:   method.HolderName,
		MaskedNumber: method.Masked(),
		CardType:     method.CardType,
		ExpiresAt:    method.ExpiresAt,
	}
}
