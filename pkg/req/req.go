package req

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Dhoini/Checkout-microservice/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// DTO размечены тегами gin-биндинга
	v.SetTagName("binding")
	return v
}

// Decode декодирует JSON из io.ReadCloser в структуру типа T.
func Decode[T any](body io.ReadCloser) (T, error) {
	var payload T
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// IsValid валидирует структуру типа T по validate-тегам.
func IsValid[T any](payload T) error {
	return validate.Struct(payload)
}

// HandleBody декодирует и валидирует тело запроса. При ошибке сам
// отправляет 422 и возвращает nil.
func HandleBody[T any](c *gin.Context) (*T, error) {
	body, err := Decode[T](c.Request.Body)
	if err != nil {
		res.Error(c, http.StatusUnprocessableEntity, "malformed request body")
		return nil, err
	}

	if err := IsValid(body); err != nil {
		res.ErrorWithDetails(c, http.StatusUnprocessableEntity, "invalid request data", err.Error())
		return nil, err
	}
	return &body, nil
}
