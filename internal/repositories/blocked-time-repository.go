package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"homemassage/internal/entities"
	apperrors "homemassage/pkg/errors"
)

type BlockedTimeRepositoryInterface interface {
	GetByMasterAndDate(ctx context.Context, masterID uint64, date time.Time) ([]entities.MasterBlockedTime, error)
	Create(ctx context.Context, block *entities.MasterBlockedTime) (uint64, error)
	Delete(ctx context.Context, id uint64) error
}

type BlockedTimeRepository struct {
	storage *pgxpool.Pool
}

func NewBlockedTimeRepository(storage *pgxpool.Pool) BlockedTimeRepositoryInterface {
	return &BlockedTimeRepository{storage: storage}
}

func (r *BlockedTimeRepository) GetByMasterAndDate(ctx context.Context, masterID uint64, date time.Time) ([]entities.MasterBlockedTime, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT id, master_id, block_date, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), reason, created_at
		FROM master_blocked_times
		WHERE master_id = $1 AND block_date = $2`,
		masterID, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения блокировок мастера: %w", err)
	}
	defer rows.Close()

	blocks := make([]entities.MasterBlockedTime, 0)
	for rows.Next() {
		var b entities.MasterBlockedTime
		if err := rows.Scan(&b.ID, &b.MasterID, &b.BlockDate, &b.StartTime, &b.EndTime, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования блокировки: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *BlockedTimeRepository) Create(ctx context.Context, block *entities.MasterBlockedTime) (uint64, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO master_blocked_times (master_id, block_date, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		block.MasterID, block.BlockDate, block.StartTime, block.EndTime, block.Reason,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания блокировки: %w", err)
	}
	return id, nil
}

func (r *BlockedTimeRepository) Delete(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, `DELETE FROM master_blocked_times WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления блокировки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
