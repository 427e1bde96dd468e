package middleware

import (
	"github.com/Dhoini/Checkout-microservice/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	// HeaderCustomerID сессионный токен покупателя
	HeaderCustomerID = "X-Customer-ID"
	// HeaderAnonymousCartID сессионный токен анонимной корзины
	HeaderAnonymousCartID = "X-Anonymous-Cart-ID"

	// OwnerContextKey ключ владельца корзины в контексте Gin
	OwnerContextKey = "cartOwner"
)

// IdentityMiddleware извлекает сессионные токены из заголовков и кладет
// разрешенного владельца корзины в контекст запроса. Никогда не отклоняет
// запрос: неразбираемые токены дают анонимного владельца без корзины.
func IdentityMiddleware(resolver *services.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := resolver.Resolve(services.SessionTokens{
			CustomerID:      c.GetHeader(HeaderCustomerID),
			AnonymousCartID: c.GetHeader(HeaderAnonymousCartID),
		})
		c.Set(OwnerContextKey, owner)
		c.Next()
	}
}
