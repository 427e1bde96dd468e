package res

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse представляет формат JSON-ответа для ошибок.
type ErrorResponse struct {
	Error     string `json:"error"`                // Сообщение об ошибке (для пользователя)
	ErrorCode int    `json:"error_code,omitempty"` // Код ошибки (для программной обработки)
	Details   any    `json:"details,omitempty"`    // Детали ошибки (например, ошибки валидации)
}

// Error отправляет JSON ответ ошибки с заданным статусом.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg})
}

// ErrorWithDetails отправляет ответ ошибки с дополнительными деталями.
func ErrorWithDetails(c *gin.Context, status int, msg string, details any) {
	c.JSON(status, ErrorResponse{Error: msg, Details: details})
}
