package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Rating — одна оценка по заказу в одном направлении
// (client_to_master либо master_to_client). Уникальность по (order_id, type).
// Пока RatedAt пуст — оценка считается ожидающей.
type Rating struct {
	ID      uint64 `json:"id" db:"id"`
	OrderID uint64 `json:"order_id" db:"order_id"`
	Type    string `json:"type" db:"type"`

	OverallRating   int        `json:"overall_rating" db:"overall_rating"`
	Professionalism null.Int64 `json:"professionalism" db:"professionalism"`
	Punctuality     null.Int64 `json:"punctuality" db:"punctuality"`
	Politeness      null.Int64 `json:"politeness" db:"politeness"`

	Feedback null.String `json:"feedback" db:"feedback"`
	RatedAt  null.Time   `json:"rated_at" db:"rated_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
