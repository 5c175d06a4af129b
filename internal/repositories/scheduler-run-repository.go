package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SchedulerRunRepositoryInterface interface {
	Start(ctx context.Context, runID string, startedAt time.Time) (uint64, error)
	Finish(ctx context.Context, id uint64, status string, processed int, details []byte, errMsg *string, finishedAt time.Time) error
}

type SchedulerRunRepository struct {
	storage *pgxpool.Pool
}

func NewSchedulerRunRepository(storage *pgxpool.Pool) SchedulerRunRepositoryInterface {
	return &SchedulerRunRepository{storage: storage}
}

func (r *SchedulerRunRepository) Start(ctx context.Context, runID string, startedAt time.Time) (uint64, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO scheduler_runs (run_id, status, started_at)
		VALUES ($1, 'RUNNING', $2)
		RETURNING id`,
		runID, startedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания записи запуска планировщика: %w", err)
	}
	return id, nil
}

func (r *SchedulerRunRepository) Finish(ctx context.Context, id uint64, status string, processed int, details []byte, errMsg *string, finishedAt time.Time) error {
	_, err := r.storage.Exec(ctx, `
		UPDATE scheduler_runs
		SET status = $2, processed = $3, details = $4, error = $5, finished_at = $6
		WHERE id = $1`,
		id, status, processed, details, errMsg, finishedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка завершения записи запуска планировщика: %w", err)
	}
	return nil
}
