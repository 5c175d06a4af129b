package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// MasterBlockedTime — период недоступности мастера (отпуск, личное время).
// Если StartTime/EndTime пусты — заблокирован весь день.
type MasterBlockedTime struct {
	ID        uint64      `json:"id" db:"id"`
	MasterID  uint64      `json:"master_id" db:"master_id"`
	BlockDate time.Time   `json:"block_date" db:"block_date"`
	StartTime null.String `json:"start_time" db:"start_time"`
	EndTime   null.String `json:"end_time" db:"end_time"`
	Reason    null.String `json:"reason" db:"reason"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// IsFullDay — блок закрывает весь день целиком.
func (b *MasterBlockedTime) IsFullDay() bool {
	return !b.StartTime.Valid || !b.EndTime.Valid
}
