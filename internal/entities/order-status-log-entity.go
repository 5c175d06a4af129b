package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// OrderStatusLog — append-only журнал переходов статусов.
// Записи никогда не изменяются после вставки.
type OrderStatusLog struct {
	ID        uint64      `db:"id"`
	OrderID   uint64      `db:"order_id"`
	ActorID   null.Int64  `db:"actor_id"`
	ActorType string      `db:"actor_type"`
	OldStatus string      `db:"old_status"`
	NewStatus string      `db:"new_status"`
	Comment   null.String `db:"comment"`
	CreatedAt time.Time   `db:"created_at"`
}
