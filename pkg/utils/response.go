package utils

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "homemassage/pkg/errors"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	})
}

// ErrorResponse переводит внутреннюю ошибку в HTTP-ответ.
// HttpError и ошибки валидации несут свой код, сентинели берутся из ErrorList,
// всё остальное — 500 без деталей наружу.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := http.StatusInternalServerError
	message := "Внутренняя ошибка сервера"

	var httpErr *apperrors.HttpError
	var inputErr *apperrors.InvalidInputError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
	case errors.As(err, &inputErr):
		code = http.StatusUnprocessableEntity
		message = inputErr.Message
	case errors.As(err, &validationErrs):
		code = http.StatusUnprocessableEntity
		message = "Ошибка валидации запроса"
	default:
		for sentinel, statusCode := range apperrors.ErrorList {
			if errors.Is(err, sentinel) {
				code = statusCode
				message = sentinel.Error()
				break
			}
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("необработанная ошибка запроса",
			zap.String("uri", ctx.Request().RequestURI),
			zap.Error(err),
		)
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    struct{}{},
		Message: message,
	})
}
