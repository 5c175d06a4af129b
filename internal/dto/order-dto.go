package dto

import "github.com/aarondl/null/v8"

// CreateOrderDTO — создание бронирования. При нескольких мастерах
// создаётся группа заказов с общим booking_group_id.
type CreateOrderDTO struct {
	CustomerID       uint64   `json:"customer_id" validate:"required,gt=0"`
	MasterIDs        []uint64 `json:"master_ids" validate:"required,min=1,dive,gt=0"`
	Date             string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime        string   `json:"start_time" validate:"required,datetime=15:04"`
	DurationOptionID uint64   `json:"duration_option_id" validate:"required,gt=0"`
	ServiceTypeID    uint64   `json:"service_type_id" validate:"required,gt=0"`
	OilID            uint64   `json:"oil_id" validate:"omitempty,gt=0"`
	Address          string   `json:"address" validate:"required"`
	PressureLevel    string   `json:"pressure_level" validate:"omitempty,oneof=soft medium hard"`
}

type OrderDTO struct {
	ID                 uint64      `json:"id"`
	OrderNumber        string      `json:"order_number"`
	CustomerID         uint64      `json:"customer_id"`
	MasterID           uint64      `json:"master_id"`
	BookingDate        string      `json:"booking_date"`
	ArrivalWindowStart string      `json:"arrival_window_start"`
	ArrivalWindowEnd   string      `json:"arrival_window_end"`
	DurationMinutes    int         `json:"duration_minutes"`
	Status             string      `json:"status"`
	PaymentStatus      string      `json:"payment_status"`
	TotalAmount        int64       `json:"total_amount"`
	Address            string      `json:"address"`
	BookingGroupID     null.String `json:"booking_group_id"`
	CreatedAt          string      `json:"created_at"`
}

// TransitionDTO — запрос смены статуса от диспетчерского инструментария.
type TransitionDTO struct {
	TargetStatus string `json:"target_status" validate:"required,oneof=NEW CONFIRMING CONFIRMED IN_PROGRESS COMPLETED CANCELLED"`
	Comment      string `json:"comment" validate:"omitempty,max=1000"`
	// Исход звонка, заполняется при CONFIRMING -> CONFIRMED.
	CallOutcome string `json:"call_outcome" validate:"omitempty,oneof=confirmed reschedule no_answer cancelled"`
	// Причина отмены, обязательна при переходе в CANCELLED.
	CancelReason string `json:"cancel_reason" validate:"omitempty,max=1000"`
}

// RescheduleDTO — перенос заказа на другую дату/время по итогам звонка.
type RescheduleDTO struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	Comment   string `json:"comment" validate:"omitempty,max=1000"`
}

// OrderListFilterDTO — фильтры списка заказов для диспетчера.
type OrderListFilterDTO struct {
	Date     string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Status   string `query:"status" validate:"omitempty"`
	MasterID uint64 `query:"master_id" validate:"omitempty,gt=0"`
	Limit    uint64 `query:"limit"`
	Offset   uint64 `query:"offset"`
}
