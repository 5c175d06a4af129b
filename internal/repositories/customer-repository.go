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

type CustomerRepositoryInterface interface {
	FindCustomer(ctx context.Context, id uint64) (*entities.Customer, error)
	UpdateRatingInTx(ctx context.Context, tx pgx.Tx, id uint64, average *float64, count int) error
}

type CustomerRepository struct {
	storage *pgxpool.Pool
}

func NewCustomerRepository(storage *pgxpool.Pool) CustomerRepositoryInterface {
	return &CustomerRepository{storage: storage}
}

func (r *CustomerRepository) FindCustomer(ctx context.Context, id uint64) (*entities.Customer, error) {
	var c entities.Customer
	err := r.storage.QueryRow(ctx,
		`SELECT id, full_name, phone, rating, rating_count FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.FullName, &c.Phone, &c.Rating, &c.RatingCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска клиента: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) UpdateRatingInTx(ctx context.Context, tx pgx.Tx, id uint64, average *float64, count int) error {
	_, err := tx.Exec(ctx,
		`UPDATE customers SET rating = $2, rating_count = $3 WHERE id = $1`,
		id, average, count,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления рейтинга клиента: %w", err)
	}
	return nil
}
