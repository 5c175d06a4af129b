package constants

// --- СТАТУСЫ ПЛАТЕЖЕЙ (сущность Payment) ---
const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusProcessing = "PROCESSING"
	PaymentStatusPaid       = "PAID"
	PaymentStatusCancelled  = "CANCELLED"
	PaymentStatusFailed     = "FAILED"
	PaymentStatusRefunded   = "REFUNDED"
)

// --- СТАТУС ОПЛАТЫ ЗАКАЗА (независимая ось от статуса заказа) ---
const (
	OrderPaymentNotPaid   = "NOT_PAID"
	OrderPaymentPending   = "PENDING"
	OrderPaymentPaid      = "PAID"
	OrderPaymentFailed    = "FAILED"
	OrderPaymentRefunded  = "REFUNDED"
	OrderPaymentCancelled = "CANCELLED"
)

// --- ПРОВАЙДЕРЫ ПЛАТЕЖЕЙ ---
const (
	ProviderPayme = "payme"
	ProviderClick = "click"
)
