package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"homemassage/pkg/constants"
)

type Master struct {
	ID          uint64     `json:"id" db:"id"`
	FullName    string     `json:"full_name" db:"full_name"`
	Phone       string     `json:"phone" db:"phone"`
	// Граница рабочей смены, формат "15:04".
	ShiftStart string `json:"shift_start" db:"shift_start"`
	ShiftEnd   string `json:"shift_end" db:"shift_end"`
	// Поддерживаемые уровни давления. Пустой список — мастер работает
	// со всеми уровнями (сентинел "поддерживает всё").
	PressureLevels []string     `json:"pressure_levels" db:"pressure_levels"`
	Rating         null.Float64 `json:"rating" db:"rating"`
	RatingCount    int          `json:"rating_count" db:"rating_count"`
	Status         bool         `json:"status" db:"status"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// SupportsPressure — единственная точка проверки уровня давления.
func (m *Master) SupportsPressure(level string) bool {
	if len(m.PressureLevels) == 0 {
		return true
	}
	for _, l := range m.PressureLevels {
		if l == level {
			return true
		}
	}
	return false
}

// IsBookable — мастер активен и принимает заказы.
func (m *Master) IsBookable() bool {
	return m.Status
}

var ValidPressureLevels = []string{
	constants.PressureSoft,
	constants.PressureMedium,
	constants.PressureHard,
}
