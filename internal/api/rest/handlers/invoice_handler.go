package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/internal/services"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/Dhoini/Checkout-microservice/pkg/res"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler обработчик истории покупок
type InvoiceHandler struct {
	service *services.InvoiceService
	log     *logger.Logger
}

// NewInvoiceHandler создает новый обработчик счетов
func NewInvoiceHandler(service *services.InvoiceService, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		service: service,
		log:     log,
	}
}

// GetPurchaseHistory возвращает историю покупок покупателя
func (h *InvoiceHandler) GetPurchaseHistory(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	history, err := h.service.PurchaseHistory(c.Request.Context(), owner.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			res.Error(c, http.StatusNotFound, "Customer not found")
			return
		}
		h.log.Error("Failed to get purchase history: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to get purchase history")
		return
	}

	c.JSON(http.StatusOK, history)
}
