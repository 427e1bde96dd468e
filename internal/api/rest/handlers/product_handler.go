package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Checkout-microservice/internal/repository"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"
	"github.com/Dhoini/Checkout-microservice/pkg/res"
	"github.com/gin-gonic/gin"
)

// ProductHandler обработчик каталога товаров
type ProductHandler struct {
	products repository.ProductRepository
	log      *logger.Logger
}

// NewProductHandler создает новый обработчик каталога
func NewProductHandler(products repository.ProductRepository, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		log:      log,
	}
}

// GetProducts возвращает весь каталог
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.products.GetAll(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get products: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to get products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct возвращает товар по ID
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"), "product")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			res.Error(c, http.StatusNotFound, "Product not found")
			return
		}
		h.log.Error("Failed to get product: %v", err)
		res.Error(c, http.StatusInternalServerError, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}
