package constants

// --- СТАТУСЫ ЗАКАЗОВ (Совпадает с кодами в БД) ---
const (
	OrderStatusNew        = "NEW"
	OrderStatusConfirming = "CONFIRMING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// Финальные статусы — из них переходов нет.
var FinalOrderStatuses = []string{
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// AllowedOrderTransitions описывает граф допустимых переходов статусов.
// Автоматические переходы (CONFIRMED -> IN_PROGRESS -> COMPLETED) выполняет
// планировщик, остальные — диспетчер или мастер.
var AllowedOrderTransitions = map[string][]string{
	OrderStatusNew:        {OrderStatusConfirming, OrderStatusCancelled},
	OrderStatusConfirming: {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

func IsFinalOrderStatus(code string) bool {
	for _, s := range FinalOrderStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// IsOrderTransitionAllowed проверяет, допустим ли переход from -> to.
func IsOrderTransitionAllowed(from, to string) bool {
	for _, s := range AllowedOrderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// --- КТО ИНИЦИИРОВАЛ ПЕРЕХОД ---
const (
	ActorDispatcher = "dispatcher"
	ActorMaster     = "master"
	ActorCustomer   = "customer"
	ActorSystem     = "system"
)

// --- ИСХОД ЗВОНКА ПОДТВЕРЖДЕНИЯ ---
const (
	CallOutcomeConfirmed  = "confirmed"
	CallOutcomeReschedule = "reschedule"
	CallOutcomeNoAnswer   = "no_answer"
	CallOutcomeCancelled  = "cancelled"
)
