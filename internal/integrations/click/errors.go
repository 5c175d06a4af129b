package click

// Коды ошибок протокола Click SHOP-API.
const (
	CodeSuccess             = 0
	CodeBadSignature        = -1
	CodeWrongAmount         = -2
	CodeActionNotFound      = -3
	CodeAlreadyPaid         = -4
	CodeOrderNotFound       = -5
	CodeTransactionNotFound = -6
	CodeBadRequest          = -8
	CodeTransactionCancelled = -9
)

var errorNotes = map[int]string{
	CodeSuccess:              "Success",
	CodeBadSignature:         "SIGN CHECK FAILED",
	CodeWrongAmount:          "Incorrect parameter amount",
	CodeActionNotFound:       "Action not found",
	CodeAlreadyPaid:          "Already paid",
	CodeOrderNotFound:        "Order does not exist",
	CodeTransactionNotFound:  "Transaction does not exist",
	CodeBadRequest:           "Error in request from click",
	CodeTransactionCancelled: "Transaction cancelled",
}

func errorNote(code int) string {
	if note, ok := errorNotes[code]; ok {
		return note
	}
	return "Unknown error"
}
