package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

const (
	SchedulerRunRunning   = "RUNNING"
	SchedulerRunCompleted = "COMPLETED"
	SchedulerRunFailed    = "FAILED"
)

// SchedulerRun — аудит одного запуска планировщика. Пишется логикой
// промоутера, бизнес-логикой никогда не читается.
type SchedulerRun struct {
	ID         uint64      `json:"id" db:"id"`
	RunID      string      `json:"run_id" db:"run_id"`
	Status     string      `json:"status" db:"status"`
	StartedAt  time.Time   `json:"started_at" db:"started_at"`
	FinishedAt null.Time   `json:"finished_at" db:"finished_at"`
	Processed  int         `json:"processed" db:"processed"`
	// Структурированная сводка запуска: номера заказов по типам переходов.
	Details []byte      `json:"details" db:"details"`
	Error   null.String `json:"error" db:"error"`
}
