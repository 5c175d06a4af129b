package errors

import (
	"fmt"
	"net/http"
)

var (
	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidToken       = fmt.Errorf("недопустимый токен")
	ErrTokenExpired       = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotAccess   = fmt.Errorf("токен не является access-токеном")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Бронирование
	ErrSlotTaken          = fmt.Errorf("выбранное время уже занято")
	ErrMasterInactive     = fmt.Errorf("мастер не принимает заказы")
	ErrMasterNotFound     = fmt.Errorf("мастер не найден")
	ErrDateInPast         = fmt.Errorf("дата бронирования в прошлом")
	ErrUnknownDuration    = fmt.Errorf("недопустимая длительность сеанса")
	ErrOrderNotFound      = fmt.Errorf("заказ не найден")
	ErrIllegalTransition  = fmt.Errorf("недопустимый переход статуса")
	ErrCancelReasonNeeded = fmt.Errorf("для отмены требуется причина")
	ErrOrderNotCompleted  = fmt.Errorf("заказ ещё не завершён")
	ErrAlreadyRated       = fmt.Errorf("оценка по этому заказу уже оставлена")
	ErrBookingLockBusy    = fmt.Errorf("мастер сейчас бронируется другим клиентом, повторите попытку")
)

// HttpError несёт HTTP-код, сообщение для клиента и внутреннюю ошибку для логов.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// InvalidInputError — ошибка валидации входных данных.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// ErrorList сопоставляет сентинельные ошибки HTTP-кодам для ErrorResponse.
var ErrorList = map[error]int{
	ErrEmptyAuthHeader:    http.StatusUnauthorized,
	ErrInvalidAuthHeader:  http.StatusUnauthorized,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrTokenIsNotAccess:   http.StatusUnauthorized,
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,

	ErrNotFound:       http.StatusNotFound,
	ErrMasterNotFound: http.StatusNotFound,
	ErrOrderNotFound:  http.StatusNotFound,
	ErrMasterInactive: http.StatusNotFound,

	ErrBadRequest:         http.StatusUnprocessableEntity,
	ErrDateInPast:         http.StatusUnprocessableEntity,
	ErrUnknownDuration:    http.StatusUnprocessableEntity,
	ErrCancelReasonNeeded: http.StatusUnprocessableEntity,
	ErrOrderNotCompleted:  http.StatusUnprocessableEntity,

	ErrSlotTaken:         http.StatusConflict,
	ErrIllegalTransition: http.StatusConflict,
	ErrAlreadyRated:      http.StatusConflict,
	ErrBookingLockBusy:   http.StatusConflict,
}
