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

// AuthHandler обработчик регистрации и входа
type AuthHandler struct {
	service *services.AuthService
	log     *logger.Logger
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(service *services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log,
	}
}

// Register регистрирует покупателя и сливает анонимную корзину сессии
func (h *AuthHandler) Register(c *gin.Context) {
	body, err := req.HandleBody[domain.RegisterRequest](c)
	if err != nil {
		h.log.Warn("Invalid register request: %v", err)
		return
	}

	result, err := h.service.Register(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			res.Error(c, http.StatusConflict, "Email is already registered")
			return
		}
		h.log.Error("Failed to register customer: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to register customer")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login аутентифицирует покупателя и сливает анонимную корзину сессии
func (h *AuthHandler) Login(c *gin.Context) {
	body, err := req.HandleBody[domain.LoginRequest](c)
	if err != nil {
		h.log.Warn("Invalid login request: %v", err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			res.Error(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.log.Error("Failed to login customer: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, result)
}
