package constants

// --- ПАРАМЕТРЫ РАСЧЁТА СЛОТОВ ---
const (
	// SlotStepMinutes — шаг перебора времени начала сеанса.
	// Слоты выравниваются по началу смены мастера.
	SlotStepMinutes = 30

	// BookingBufferMinutes — буфер между соседними сеансами одного мастера.
	// Ноль: сеансы могут идти встык, касание границ пересечением не считается.
	BookingBufferMinutes = 0

	// ArrivalWindowMinutes — ширина окна прибытия мастера.
	ArrivalWindowMinutes = 30

	// DefaultDurationMinutes — длительность сеанса, если опция длительности
	// у заказа не найдена.
	DefaultDurationMinutes = 60

	// AutoCompleteDelayMinutes — через сколько после расчётного конца сеанса
	// заказ закрывается автоматически.
	AutoCompleteDelayMinutes = 60
)

// --- УРОВНИ ДАВЛЕНИЯ МАССАЖА ---
const (
	PressureSoft   = "soft"
	PressureMedium = "medium"
	PressureHard   = "hard"
)

// --- ТИПЫ ОЦЕНОК ---
const (
	RatingClientToMaster = "client_to_master"
	RatingMasterToClient = "master_to_client"
)
