package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Checkout-microservice/internal/api/rest/middleware"
	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/services"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/Dhoini/Checkout-microservice/pkg/req"
	"github.com/Dhoini/Checkout-microservice/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler обработчик корзины
type CartHandler struct {
	service *services.CartService
	log     *logger.Logger
}

// NewCartHandler создает новый обработчик корзины
func NewCartHandler(service *services.CartService, log *logger.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		log:     log,
	}
}

// ownerFromContext достает владельца корзины, положенного IdentityMiddleware
func ownerFromContext(c *gin.Context) domain.CartOwner {
	if value, ok := c.Get(middleware.OwnerContextKey); ok {
		if owner, ok := value.(domain.CartOwner); ok {
			return owner
		}
	}
	return domain.NewAnonymousOwner()
}

// GetCart возвращает корзину владельца, создавая ее при необходимости
func (h *CartHandler) GetCart(c *gin.Context) {
	snapshot, err := h.service.GetOrCreateCart(c.Request.Context(), ownerFromContext(c))
	if err != nil {
		h.log.Error("Failed to get cart: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to get cart")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// AddLine добавляет товар в корзину
func (h *CartHandler) AddLine(c *gin.Context) {
	cartID, ok := parseID(c, c.Param("id"), "cart")
	if !ok {
		return
	}

	body, err := req.HandleBody[domain.AddLineRequest](c)
	if err != nil {
		h.log.Warn("Invalid add line request: %v", err)
		return
	}

	snapshot, err := h.service.AddLine(c.Request.Context(), cartID, *body)
	if err != nil {
		h.respondCartError(c, err, "Failed to add cart line")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// UpdateLine изменяет количество в строке корзины
func (h *CartHandler) UpdateLine(c *gin.Context) {
	cartID, ok := parseID(c, c.Param("id"), "cart")
	if !ok {
		return
	}
	lineID, ok := parseID(c, c.Param("lineId"), "cart line")
	if !ok {
		return
	}

	body, err := req.HandleBody[domain.UpdateLineRequest](c)
	if err != nil {
		h.log.Warn("Invalid update line request: %v", err)
		return
	}

	snapshot, err := h.service.UpdateLineQuantity(c.Request.Context(), cartID, lineID, body.Quantity)
	if err != nil {
		h.respondCartError(c, err, "Failed to update cart line")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// RemoveLine удаляет строку из корзины
func (h *CartHandler) RemoveLine(c *gin.Context) {
	cartID, ok := parseID(c, c.Param("id"), "cart")
	if !ok {
		return
	}
	lineID, ok := parseID(c, c.Param("lineId"), "cart line")
	if !ok {
		return
	}

	snapshot, err := h.service.RemoveLine(c.Request.Context(), cartID, lineID)
	if err != nil {
		h.respondCartError(c, err, "Failed to remove cart line")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Clear удаляет все строки корзины
func (h *CartHandler) Clear(c *gin.Context) {
	cartID, ok := parseID(c, c.Param("id"), "cart")
	if !ok {
		return
	}

	snapshot, err := h.service.Clear(c.Request.Context(), cartID)
	if err != nil {
		h.respondCartError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// AssignPaymentMethod привязывает карту покупателя к корзине
func (h *CartHandler) AssignPaymentMethod(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	cartID, ok := parseID(c, c.Param("id"), "cart")
	if !ok {
		return
	}

	body, err := req.HandleBody[domain.AssignPaymentMethodRequest](c)
	if err != nil {
		h.log.Warn("Invalid assign payment method request: %v", err)
		return
	}

	methodID, err := uuid.Parse(body.PaymentMethodID)
	if err != nil {
		res.Error(c, http.StatusBadRequest, "Invalid payment method ID format")
		return
	}

	snapshot, err := h.service.AssignPaymentMethod(c.Request.Context(), owner.CustomerID, cartID, methodID)
	if err != nil {
		h.respondCartError(c, err, "Failed to assign payment method")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// respondCartError отображает доменные ошибки корзины в HTTP статусы
func (h *CartHandler) respondCartError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrCartNotFound):
		h.log.Warn("Cart not found")
		res.Error(c, http.StatusNotFound, "Cart not found")
	case errors.Is(err, domain.ErrProductNotFound):
		h.log.Warn("Product not found")
		res.Error(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		res.Error(c, http.StatusForbidden, "Payment method does not belong to this customer")
	default:
		h.log.Error("%s: %v", fallback, err)
		res.Error(c, http.StatusInternalServerError, fallback)
	}
}

// parseID разбирает UUID из параметра пути
func parseID(c *gin.Context, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		res.Error(c, http.StatusBadRequest, "Invalid " + what + " ID format")
		return uuid.Nil, false
	}
	return id, true
}
