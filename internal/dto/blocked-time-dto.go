package dto

// CreateBlockedTimeDTO — блокировка времени мастера администратором.
// Без start/end блокируется весь день.
type CreateBlockedTimeDTO struct {
	MasterID  uint64 `json:"master_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Reason    string `json:"reason" validate:"omitempty,max=500"`
}
