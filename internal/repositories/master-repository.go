package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homemassage/internal/entities"
	apperrors "homemassage/pkg/errors"
)

type MasterRepositoryInterface interface {
	FindMaster(ctx context.Context, id uint64) (*entities.Master, error)
	FindMastersByIDs(ctx context.Context, ids []uint64) ([]entities.Master, error)
	UpdateRatingInTx(ctx context.Context, tx pgx.Tx, id uint64, average *float64, count int) error
}

type MasterRepository struct {
	storage *pgxpool.Pool
}

func NewMasterRepository(storage *pgxpool.Pool) MasterRepositoryInterface {
	return &MasterRepository{storage: storage}
}

const masterColumns = `id, full_name, phone, to_char(shift_start, 'HH24:MI'), to_char(shift_end, 'HH24:MI'),
	pressure_levels, rating, rating_count, status, created_at, updated_at`

func scanMaster(row pgx.Row) (*entities.Master, error) {
	var m entities.Master
	err := row.Scan(
		&m.ID, &m.FullName, &m.Phone, &m.ShiftStart, &m.ShiftEnd,
		&m.PressureLevels, &m.Rating, &m.RatingCount, &m.Status,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MasterRepository) FindMaster(ctx context.Context, id uint64) (*entities.Master, error) {
	query := `SELECT ` + masterColumns + ` FROM masters WHERE id = $1`

	m, err := scanMaster(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMasterNotFound
		}
		return nil, fmt.Errorf("ошибка поиска мастера: %w", err)
	}
	return m, nil
}

func (r *MasterRepository) FindMastersByIDs(ctx context.Context, ids []uint64) ([]entities.Master, error) {
	query := `SELECT ` + masterColumns + ` FROM masters WHERE id = ANY($1) ORDER BY id`

	rows, err := r.storage.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения мастеров: %w", err)
	}
	defer rows.Close()

	masters := make([]entities.Master, 0, len(ids))
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования мастера: %w", err)
		}
		masters = append(masters, *m)
	}
	return masters, rows.Err()
}

func (r *MasterRepository) UpdateRatingInTx(ctx context.Context, tx pgx.Tx, id uint64, average *float64, count int) error {
	_, err := tx.Exec(ctx,
		`UPDATE masters SET rating = $2, rating_count = $3, updated_at = now() WHERE id = $1`,
		id, average, count,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления рейтинга мастера: %w", err)
	}
	return nil
}
