package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/services"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/Dhoini/Checkout-microservice/pkg/req"
	"github.com/Dhoini/Checkout-microservice/pkg/res"
	"github.com/gin-gonic/gin"
)

// PaymentMethodHandler обработчик сохраненных карт
type PaymentMethodHandler struct {
	service *services.PaymentMethodService
	log     *logger.Logger
}

// NewPaymentMethodHandler создает новый обработчик карт
func NewPaymentMethodHandler(service *services.PaymentMethodService, log *logger.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		service: service,
		log:     log,
	}
}

// AddCard добавляет карту покупателю
func (h *PaymentMethodHandler) AddCard(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	body, err := req.HandleBody[domain.AddCardRequest](c)
	if err != nil {
		h.log.Warn("Invalid add card request: %v", err)
		return
	}

	card, err := h.service.AddCard(c.Request.Context(), owner.CustomerID, body)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCardExpired):
			res.Error(c, http.StatusUnprocessableEntity, "Card expiry must be in the future")
		case errors.Is(err, domain.ErrInvalidInput):
			res.Error(c, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("Failed to add card: %v", err)
			res.Error(c, http.StatusInternalServerError, "Failed to add card")
		}
		return
	}

	c.JSON(http.StatusCreated, card)
}

// ListCards возвращает карты покупателя в замаскированном виде
func (h *PaymentMethodHandler) ListCards(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	cards, err := h.service.ListCards(c.Request.Context(), owner.CustomerID)
	if err != nil {
		h.log.Error("Failed to list cards: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to list cards")
		return
	}

	c.JSON(http.StatusOK, cards)
}
