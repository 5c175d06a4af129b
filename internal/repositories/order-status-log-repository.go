package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homemassage/internal/entities"
)

type OrderStatusLogRepositoryInterface interface {
	AppendInTx(ctx context.Context, tx pgx.Tx, entry *entities.OrderStatusLog) error
	ListByOrder(ctx context.Context, orderID uint64) ([]entities.OrderStatusLog, error)
}

type OrderStatusLogRepository struct {
	storage *pgxpool.Pool
}

func NewOrderStatusLogRepository(storage *pgxpool.Pool) OrderStatusLogRepositoryInterface {
	return &OrderStatusLogRepository{storage: storage}
}

// AppendInTx добавляет запись журнала. Журнал append-only: UPDATE/DELETE
// по этой таблице в коде отсутствуют намеренно.
func (r *OrderStatusLogRepository) AppendInTx(ctx context.Context, tx pgx.Tx, entry *entities.OrderStatusLog) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_logs (order_id, actor_id, actor_type, old_status, new_status, comment)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.OrderID, entry.ActorID, entry.ActorType, entry.OldStatus, entry.NewStatus, entry.Comment,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи журнала статусов: %w", err)
	}
	return nil
}

func (r *OrderStatusLogRepository) ListByOrder(ctx context.Context, orderID uint64) ([]entities.OrderStatusLog, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT id, order_id, actor_id, actor_type, old_status, new_status, comment, created_at
		FROM order_status_logs
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала статусов: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.OrderStatusLog, 0)
	for rows.Next() {
		var e entities.OrderStatusLog
		if err := rows.Scan(&e.ID, &e.OrderID, &e.ActorID, &e.ActorType, &e.OldStatus, &e.NewStatus, &e.Comment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала статусов: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
