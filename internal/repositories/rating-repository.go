package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homemassage/internal/entities"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
)

type RatingRepositoryInterface interface {
	FindByOrderAndType(ctx context.Context, orderID uint64, ratingType string) (*entities.Rating, error)
	CreateInTx(ctx context.Context, tx pgx.Tx, rating *entities.Rating) (uint64, error)
	// Агрегаты считаются только по завершённым оценкам (rated_at IS NOT NULL).
	AggregateForMasterInTx(ctx context.Context, tx pgx.Tx, masterID uint64) (*float64, int, error)
	AggregateForCustomerInTx(ctx context.Context, tx pgx.Tx, customerID uint64) (*float64, int, error)
}

type RatingRepository struct {
	storage *pgxpool.Pool
}

func NewRatingRepository(storage *pgxpool.Pool) RatingRepositoryInterface {
	return &RatingRepository{storage: storage}
}

func (r *RatingRepository) FindByOrderAndType(ctx context.Context, orderID uint64, ratingType string) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.storage.QueryRow(ctx, `
		SELECT id, order_id, type, overall_rating, professionalism, punctuality, politeness, feedback, rated_at, created_at
		FROM ratings
		WHERE order_id = $1 AND type = $2`,
		orderID, ratingType,
	).Scan(
		&rating.ID, &rating.OrderID, &rating.Type, &rating.OverallRating,
		&rating.Professionalism, &rating.Punctuality, &rating.Politeness,
		&rating.Feedback, &rating.RatedAt, &rating.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска оценки: %w", err)
	}
	return &rating, nil
}

func (r *RatingRepository) CreateInTx(ctx context.Context, tx pgx.Tx, rating *entities.Rating) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO ratings (order_id, type, overall_rating, professionalism, punctuality, politeness, feedback, rated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		rating.OrderID, rating.Type, rating.OverallRating,
		rating.Professionalism, rating.Punctuality, rating.Politeness,
		rating.Feedback, rating.RatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания оценки: %w", err)
	}
	return id, nil
}

func (r *RatingRepository) AggregateForMasterInTx(ctx context.Context, tx pgx.Tx, masterID uint64) (*float64, int, error) {
	var avg *float64
	var count int
	err := tx.QueryRow(ctx, `
		SELECT AVG(rt.overall_rating)::float8, COUNT(*)
		FROM ratings rt
		JOIN orders o ON o.id = rt.order_id
		WHERE o.master_id = $1 AND rt.type = $2 AND rt.rated_at IS NOT NULL`,
		masterID, constants.RatingClientToMaster,
	).Scan(&avg, &count)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка расчёта рейтинга мастера: %w", err)
	}
	return avg, count, nil
}

func (r *RatingRepository) AggregateForCustomerInTx(ctx context.Context, tx pgx.Tx, customerID uint64) (*float64, int, error) {
	var avg *float64
	var count int
	err := tx.QueryRow(ctx, `
		SELECT AVG(rt.overall_rating)::float8, COUNT(*)
		FROM ratings rt
		JOIN orders o ON o.id = rt.order_id
		WHERE o.customer_id = $1 AND rt.type = $2 AND rt.rated_at IS NOT NULL`,
		customerID, constants.RatingMasterToClient,
	).Scan(&avg, &count)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка расчёта рейтинга клиента: %w", err)
	}
	return avg, count, nil
}
