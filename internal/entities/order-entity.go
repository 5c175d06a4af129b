package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"homemassage/pkg/constants"
)

type Order struct {
	ID          uint64 `json:"id" db:"id"`
	OrderNumber string `json:"order_number" db:"order_number"`

	CustomerID       uint64     `json:"customer_id" db:"customer_id"`
	MasterID         uint64     `json:"master_id" db:"master_id"`
	ServiceTypeID    uint64     `json:"service_type_id" db:"service_type_id"`
	OilID            null.Int64 `json:"oil_id" db:"oil_id"`
	DurationOptionID null.Int64 `json:"duration_option_id" db:"duration_option_id"`

	BookingDate time.Time `json:"booking_date" db:"booking_date"`
	// Окно прибытия мастера, формат "15:04". Фиксируется при создании.
	ArrivalWindowStart string `json:"arrival_window_start" db:"arrival_window_start"`
	ArrivalWindowEnd   string `json:"arrival_window_end" db:"arrival_window_end"`
	DurationMinutes    int    `json:"duration_minutes" db:"duration_minutes"`

	Status        string `json:"status" db:"status"`
	PaymentStatus string `json:"payment_status" db:"payment_status"`

	TotalAmount int64  `json:"total_amount" db:"total_amount"`
	Address     string `json:"address" db:"address"`

	// Сиблинги одного мульти-мастерского бронирования делят этот UUID.
	BookingGroupID null.String `json:"booking_group_id" db:"booking_group_id"`

	CallOutcome  null.String `json:"call_outcome" db:"call_outcome"`
	CancelReason null.String `json:"cancel_reason" db:"cancel_reason"`
	CancelledBy  null.Int64  `json:"cancelled_by" db:"cancelled_by"`
	CancelledAt  null.Time   `json:"cancelled_at" db:"cancelled_at"`

	AutoCompleted bool      `json:"auto_completed" db:"auto_completed"`
	CompletedAt   null.Time `json:"completed_at" db:"completed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsActive — заказ занимает время мастера (не отменён).
func (o *Order) IsActive() bool {
	return o.Status != constants.OrderStatusCancelled
}

// SessionDuration — длительность сеанса с дефолтом, если опция не привязана.
func (o *Order) SessionDuration() int {
	if o.DurationMinutes > 0 {
		return o.DurationMinutes
	}
	return constants.DefaultDurationMinutes
}
