package payme

import "encoding/json"

// Request — входящий JSON-RPC 2.0 вызов от Payme.
type Request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response — ответ мерчанта. В протоколе Payme HTTP-статус всегда 200,
// ошибки передаются в поле error.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Account — реквизиты счёта, по которым Payme находит заказ.
type Account struct {
	OrderID string `json:"order_id"`
}

type CheckPerformParams struct {
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type CreateTransactionParams struct {
	ID      string  `json:"id"`
	Time    int64   `json:"time"`
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type PerformTransactionParams struct {
	ID string `json:"id"`
}

type CancelTransactionParams struct {
	ID     string `json:"id"`
	Reason int    `json:"reason"`
}

type CheckTransactionParams struct {
	ID string `json:"id"`
}

type GetStatementParams struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type CheckPerformResult struct {
	Allow bool `json:"allow"`
}

type TransactionResult struct {
	CreateTime  int64  `json:"create_time,omitempty"`
	PerformTime int64  `json:"perform_time,omitempty"`
	CancelTime  int64  `json:"cancel_time,omitempty"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason,omitempty"`
}

type StatementTransaction struct {
	ID          string  `json:"id"`
	Time        int64   `json:"time"`
	Amount      int64   `json:"amount"`
	Account     Account `json:"account"`
	CreateTime  int64   `json:"create_time"`
	PerformTime int64   `json:"perform_time"`
	CancelTime  int64   `json:"cancel_time"`
	Transaction string  `json:"transaction"`
	State       int     `json:"state"`
	Reason      *int    `json:"reason,omitempty"`
}

type StatementResult struct {
	Transactions []StatementTransaction `json:"transactions"`
}
