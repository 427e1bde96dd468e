package services

import (
	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/google/uuid"
)

// SessionTokens несет пару необязательных токенов из сессии вызывающего слоя.
// Механика cookie/сессий остается снаружи ядра; сюда приходят только
// уже извлеченные значения.
type SessionTokens struct {
	CustomerID      string
	AnonymousCartID string
}

// IdentityResolver классифицирует сессионные токены во владельца корзины.
// Чистая функция без побочных эффектов: ничего не создает и не сохраняет,
// новый идентификатор анонимной корзины в сессию возвращает вызывающий.
type IdentityResolver struct {
	log *logger.Logger
}

// NewIdentityResolver создает новый резолвер владельца корзины
func NewIdentityResolver(log *logger.Logger) *IdentityResolver {
	return &IdentityResolver{log: log}
}

// Resolve возвращает эффективный контекст владельца корзины.
// Токен покупателя имеет приоритет над анонимной корзиной.
// Неразбираемые токены трактуются как отсутствующие: резолвер не ошибается.
func (r *IdentityResolver) Resolve(tokens SessionTokens) domain.CartOwner {
	if tokens.CustomerID != "" {
		if customerID, err := uuid.Parse(tokens.CustomerID); err == nil {
			return domain.AuthenticatedOwner(customerID)
		}
		r.log.Debugw("Unparseable customer token, treating as anonymous", "token", tokens.CustomerID)
	}

	if tokens.AnonymousCartID != "" {
		if cartID, err := uuid.Parse(tokens.AnonymousCartID); err == nil {
			return domain.AnonymousOwner(cartID)
		}
		r.log.Debugw("Unparseable anonymous cart token, ignored", "token", tokens.AnonymousCartID)
	}

	return domain.NewAnonymousOwner()
}
