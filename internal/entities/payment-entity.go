package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"homemassage/pkg/constants"
)

// Payment — попытка оплаты заказа. У заказа может быть несколько попыток,
// external_id уникален в рамках провайдера.
type Payment struct {
	ID            uint64      `json:"id" db:"id"`
	OrderID       uint64      `json:"order_id" db:"order_id"`
	Provider      string      `json:"provider" db:"provider"`
	TransactionID string      `json:"transaction_id" db:"transaction_id"`
	ExternalID    null.String `json:"external_id" db:"external_id"`
	Amount        int64       `json:"amount" db:"amount"`
	Status        string      `json:"status" db:"status"`

	// Временные метки протокола Payme (создание/проведение/отмена).
	PerformTime null.Time `json:"perform_time" db:"perform_time"`
	CancelTime  null.Time `json:"cancel_time" db:"cancel_time"`
	// Код причины отмены по протоколу провайдера.
	CancelReason null.Int64 `json:"cancel_reason" db:"cancel_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (p *Payment) IsPaid() bool {
	return p.Status == constants.PaymentStatusPaid
}

func (p *Payment) IsCancelled() bool {
	return p.Status == constants.PaymentStatusCancelled || p.Status == constants.PaymentStatusRefunded
}

// PaymeState — состояние транзакции в терминах протокола Payme:
// 1 — создана, 2 — проведена, -1 — отменена до проведения, -2 — после.
func (p *Payment) PaymeState() int {
	switch p.Status {
	case constants.PaymentStatusPaid:
		return 2
	case constants.PaymentStatusRefunded:
		return -2
	case constants.PaymentStatusCancelled, constants.PaymentStatusFailed:
		return -1
	default:
		return 1
	}
}
