package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/metrics"
	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// MergeService сливает анонимную корзину в корзину покупателя при входе
// или регистрации. Вызывается ровно один раз на событие входа, синхронно.
//
// Операция не рассчитана на конкурентный повтор для одной сессии: второй
// одновременный вход того же покупателя до завершения первого слияния
// остается принятой гонкой, а не тихо чинимым случаем.
type MergeService struct {
	cartRepo repository.CartRepository
	metrics  metrics.CheckoutMetrics
	log      *logger.Logger
}

// NewMergeService конструктор сервиса слияния корзин
func NewMergeService(cartRepo repository.CartRepository, m metrics.CheckoutMetrics, log *logger.Logger) *MergeService {
	return &MergeService{cartRepo: cartRepo, metrics: m, log: log}
}

// MergeOnLogin переносит строки анонимной корзины в корзину покупателя
// (создавая её при отсутствии), удаляет анонимную корзину и возвращает
// идентификатор корзины назначения. Строки переносятся дословно:
// товар, количество, размер, кастомизация и подытог сохраняются без
// переоценки.
func (s *MergeService) MergeOnLogin(ctx context.Context, anonymousCartID *uuid.UUID, customerID uuid.UUID) (uuid.UUID, error) {
	// Корзина назначения: существующая корзина покупателя или новая
	dest, err := s.cartRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("failed to load customer cart: %w", err)
		}
		id := customerID
		dest = domain.NewCart(&id)
		if err := s.cartRepo.Create(ctx, dest); err != nil {
			return uuid.Nil, fmt.Errorf("failed to create customer cart: %w", err)
		}
		s.log.Infow("Customer cart created for merge", "cartId", dest.ID, "customerId", customerID)
	}

	if anonymousCartID == nil {
		return dest.ID, nil
	}

	// Анонимная корзина могла исчезнуть или обрести владельца: тогда
	// просто отзываем ссылку на нее
	anon, err := s.cartRepo.GetAnonymousByID(ctx, *anonymousCartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debugw("Anonymous cart gone before merge, reference retired", "cartId", anonymousCartID)
			return dest.ID, nil
		}
		return uuid.Nil, fmt.Errorf("failed to load anonymous cart: %w", err)
	}

	// Перенос строк дословно, без переоценки
	for _, line := range anon.Lines {
		migrated := &domain.CartLine{
			ID:         uuid.New(),
			CartID:     dest.ID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			Size:       line.Size,
			FrontImage: line.FrontImage,
			BackImage:  line.BackImage,
			UnitPrice:  line.UnitPrice,
			Subtotal:   line.Subtotal,
		}
		if err := s.cartRepo.AddLine(ctx, migrated); err != nil {
			return uuid.Nil, fmt.Errorf("failed to migrate cart line: %w", err)
		}
		dest.Lines = append(dest.Lines, *migrated)
	}

	// Анонимная корзина отжила свое: удаляем вместе с исходными строками
	if err := s.cartRepo.Delete(ctx, anon.ID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to delete anonymous cart: %w", err)
	}

	dest.Recalculate()
	if err := s.cartRepo.Update(ctx, dest); err != nil {
		return uuid.Nil, fmt.Errorf("failed to persist merged cart total: %w", err)
	}

	s.metrics.IncCartMerged()
	s.log.Infow("Anonymous cart merged",
		"anonymousCartId", anon.ID, "destinationCartId", dest.ID,
		"customerId", customerID, "migratedLines", len(anon.Lines))
	return dest.ID, nil
}
