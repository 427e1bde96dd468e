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
	"github.com/google/uuid"
)

// CheckoutHandler обработчик оформления заказа
type CheckoutHandler struct {
	checkout *services.CheckoutService
	invoices *services.InvoiceService
	log      *logger.Logger
}

// NewCheckoutHandler создает новый обработчик оформления
func NewCheckoutHandler(checkout *services.CheckoutService, invoices *services.InvoiceService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		invoices: invoices,
		log:      log,
	}
}

// Checkout оформляет заказ по корзине покупателя
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	body, err := req.HandleBody[domain.CheckoutRequest](c)
	if err != nil {
		h.log.Warn("Invalid checkout request: %v", err)
		return
	}

	cartID, err := uuid.Parse(body.CartID)
	if err != nil {
		res.Error(c, http.StatusBadRequest, "Invalid cart ID format")
		return
	}
	var paymentMethodID *uuid.UUID
	if body.PaymentMethodID != "" {
		parsed, err := uuid.Parse(body.PaymentMethodID)
		if err != nil {
			res.Error(c, http.StatusBadRequest, "Invalid payment method ID format")
			return
		}
		paymentMethodID = &parsed
	}

	result, err := h.checkout.Checkout(c.Request.Context(), owner.CustomerID, cartID, paymentMethodID)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// RetryInvoice довыпускает счет по заказу, оставшемуся без счета
func (h *CheckoutHandler) RetryInvoice(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, ok := parseID(c, c.Param("orderId"), "order")
	if !ok {
		return
	}

	result, err := h.checkout.RetryInvoice(c.Request.Context(), owner.CustomerID, orderID)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOrder возвращает подтверждение заказа покупателя
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, ok := parseID(c, c.Param("orderId"), "order")
	if !ok {
		return
	}

	order, err := h.checkout.GetOrder(c.Request.Context(), owner.CustomerID, orderID)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrderInvoice возвращает счет подтвержденного заказа.
// Чужой заказ для вызывающего неотличим от несуществующего.
func (h *CheckoutHandler) GetOrderInvoice(c *gin.Context) {
	owner := ownerFromContext(c)
	if !owner.IsAuthenticated() {
		res.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, ok := parseID(c, c.Param("orderId"), "order")
	if !ok {
		return
	}

	if _, err := h.checkout.GetOrder(c.Request.Context(), owner.CustomerID, orderID); err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	invoice, err := h.invoices.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			res.Error(c, http.StatusNotFound, "Invoice not found")
			return
		}
		h.log.Error("Failed to get invoice: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to get invoice")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// respondCheckoutError отображает ошибки оформления в HTTP статусы.
// Для отказа выпуска счета наружу уходит 502 с идентификатором заказа:
// заказ уже подтвержден, клиенту нужно вызвать довыпуск.
func (h *CheckoutHandler) respondCheckoutError(c *gin.Context, err error) {
	var checkoutErr *domain.CheckoutError
	var stockErr *domain.InsufficientStockError

	switch {
	case errors.As(err, &stockErr):
		res.ErrorWithDetails(c, http.StatusConflict, stockErr.Error(), gin.H{
			"product":   stockErr.ProductName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, domain.ErrCartNotFound):
		res.Error(c, http.StatusNotFound, "Cart not found")
	case errors.Is(err, domain.ErrOrderNotFound):
		res.Error(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrEmptyCart):
		res.Error(c, http.StatusUnprocessableEntity, "Cart is empty")
	case errors.Is(err, domain.ErrNoPaymentMethod):
		res.Error(c, http.StatusUnprocessableEntity, "No payment method selected")
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		res.Error(c, http.StatusForbidden, "Payment method does not belong to this customer")
	case errors.Is(err, domain.ErrCardExpired):
		res.Error(c, http.StatusUnprocessableEntity, "Card is expired")
	case errors.As(err, &checkoutErr) && checkoutErr.State == domain.CheckoutInvoiceRequested:
		h.log.Error("Invoice generation failed, order stands: %v", err)
		res.ErrorWithDetails(c, http.StatusBadGateway,
			"Order confirmed but invoice generation failed, retry invoice issuing",
			gin.H{"order_id": checkoutErr.OrderID})
	default:
		h.log.Error("Checkout failed: %v", err)
		res.Error(c, http.StatusInternalServerError, "Checkout failed")
	}
}
