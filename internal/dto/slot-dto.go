package dto

// SlotQueryDTO — запрос доступных окон прибытия.
type SlotQueryDTO struct {
	MasterIDs       []uint64 `json:"master_ids" query:"master_ids" validate:"required,min=1,dive,gt=0"`
	Date            string   `json:"date" query:"date" validate:"required,datetime=2006-01-02"`
	DurationMinutes int      `json:"duration" query:"duration" validate:"required,gt=0"`
	PeopleCount     int      `json:"people_count" query:"people_count" validate:"omitempty,gte=1"`
}

type SlotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SlotsResponseDTO struct {
	Date       string    `json:"date"`
	ShiftStart string    `json:"shift_start"`
	ShiftEnd   string    `json:"shift_end"`
	Slots      []SlotDTO `json:"slots"`
}
