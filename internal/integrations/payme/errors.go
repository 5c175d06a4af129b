package payme

// Коды ошибок протокола Payme Merchant API.
const (
	CodeInvalidAuth      = -32504
	CodeMethodNotFound   = -32601
	CodeParseError       = -32700
	CodeWrongAmount      = -31001
	CodeTransactionState = -31008
	CodeOrderNotFound    = -31050
	CodeOrderUnavailable = -31051
	CodeTransactionNotFound = -31003
)

// Error — ошибка в теле JSON-RPC ответа.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    string `json:"data,omitempty"`
}

func newError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func accountError(code int, message string) *Error {
	// Поле data указывает Payme, какой реквизит счёта невалиден.
	return &Error{Code: code, Message: message, Data: "order_id"}
}
