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

type DictionaryRepositoryInterface interface {
	FindDurationOption(ctx context.Context, id uint64) (*entities.DurationOption, error)
	FindDurationOptionByMinutes(ctx context.Context, minutes int) (*entities.DurationOption, error)
	FindServiceType(ctx context.Context, id uint64) (*entities.ServiceType, error)
}

type DictionaryRepository struct {
	storage *pgxpool.Pool
}

func NewDictionaryRepository(storage *pgxpool.Pool) DictionaryRepositoryInterface {
	return &DictionaryRepository{storage: storage}
}

func (r *DictionaryRepository) FindDurationOption(ctx context.Context, id uint64) (*entities.DurationOption, error) {
	var d entities.DurationOption
	err := r.storage.QueryRow(ctx,
		`SELECT id, minutes, price, active FROM duration_options WHERE id = $1 AND active`, id,
	).Scan(&d.ID, &d.Minutes, &d.Price, &d.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnknownDuration
		}
		return nil, fmt.Errorf("ошибка поиска опции длительности: %w", err)
	}
	return &d, nil
}

func (r *DictionaryRepository) FindDurationOptionByMinutes(ctx context.Context, minutes int) (*entities.DurationOption, error) {
	var d entities.DurationOption
	err := r.storage.QueryRow(ctx,
		`SELECT id, minutes, price, active FROM duration_options WHERE minutes = $1 AND active`, minutes,
	).Scan(&d.ID, &d.Minutes, &d.Price, &d.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnknownDuration
		}
		return nil, fmt.Errorf("ошибка поиска опции длительности: %w", err)
	}
	return &d, nil
}

func (r *DictionaryRepository) FindServiceType(ctx context.Context, id uint64) (*entities.ServiceType, error) {
	var s entities.ServiceType
	err := r.storage.QueryRow(ctx,
		`SELECT id, name, active FROM service_types WHERE id = $1 AND active`, id,
	).Scan(&s.ID, &s.Name, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска типа услуги: %w", err)
	}
	return &s, nil
}
