package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homemassage/internal/entities"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
)

type PaymentRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, payment *entities.Payment) (uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Payment, error)
	FindByExternalID(ctx context.Context, provider, externalID string) (*entities.Payment, error)
	FindByExternalIDInTx(ctx context.Context, tx pgx.Tx, provider, externalID string) (*entities.Payment, error)
	// Незавершённая (PENDING/PROCESSING) попытка оплаты заказа у провайдера.
	FindActiveByOrderInTx(ctx context.Context, tx pgx.Tx, provider string, orderID uint64) (*entities.Payment, error)
	MarkPaidInTx(ctx context.Context, tx pgx.Tx, id uint64, performTime time.Time) error
	MarkCancelledInTx(ctx context.Context, tx pgx.Tx, id uint64, status string, reason int, cancelTime time.Time) error
	ListByProviderAndPeriod(ctx context.Context, provider string, from, to time.Time) ([]entities.Payment, error)
}

type PaymentRepository struct {
	storage *pgxpool.Pool
}

func NewPaymentRepository(storage *pgxpool.Pool) PaymentRepositoryInterface {
	return &PaymentRepository{storage: storage}
}

const paymentColumns = `id, order_id, provider, transaction_id, external_id, amount, status,
	perform_time, cancel_time, cancel_reason, created_at, updated_at`

func scanPayment(row pgx.Row) (*entities.Payment, error) {
	var p entities.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Provider, &p.TransactionID, &p.ExternalID, &p.Amount, &p.Status,
		&p.PerformTime, &p.CancelTime, &p.CancelReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) CreateInTx(ctx context.Context, tx pgx.Tx, payment *entities.Payment) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (order_id, provider, transaction_id, external_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		payment.OrderID, payment.Provider, payment.TransactionID, payment.ExternalID, payment.Amount, payment.Status, payment.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания платежа: %w", err)
	}
	return id, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint64) (*entities.Payment, error) {
	p, err := scanPayment(r.storage.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска платежа: %w", err)
	}
	return p, nil
}

const findByExternalQuery = `SELECT ` + paymentColumns + ` FROM payments WHERE provider = $1 AND external_id = $2`

func (r *PaymentRepository) FindByExternalID(ctx context.Context, provider, externalID string) (*entities.Payment, error) {
	p, err := scanPayment(r.storage.QueryRow(ctx, findByExternalQuery, provider, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска платежа по external_id: %w", err)
	}
	return p, nil
}

// FindByExternalIDInTx — вариант с FOR UPDATE: повторная доставка того же
// вебхука выстраивается в очередь на строке платежа.
func (r *PaymentRepository) FindByExternalIDInTx(ctx context.Context, tx pgx.Tx, provider, externalID string) (*entities.Payment, error) {
	p, err := scanPayment(tx.QueryRow(ctx, findByExternalQuery+` FOR UPDATE`, provider, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска платежа по external_id: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) FindActiveByOrderInTx(ctx context.Context, tx pgx.Tx, provider string, orderID uint64) (*entities.Payment, error) {
	p, err := scanPayment(tx.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE provider = $1 AND order_id = $2 AND status IN ($3, $4)
		 FOR UPDATE`,
		provider, orderID, constants.PaymentStatusPending, constants.PaymentStatusProcessing,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска активного платежа заказа: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) MarkPaidInTx(ctx context.Context, tx pgx.Tx, id uint64, performTime time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET status = $2, perform_time = $3, updated_at = now() WHERE id = $1`,
		id, constants.PaymentStatusPaid, performTime,
	)
	if err != nil {
		return fmt.Errorf("ошибка проведения платежа: %w", err)
	}
	return nil
}

func (r *PaymentRepository) MarkCancelledInTx(ctx context.Context, tx pgx.Tx, id uint64, status string, reason int, cancelTime time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET status = $2, cancel_reason = $3, cancel_time = $4, updated_at = now() WHERE id = $1`,
		id, status, reason, cancelTime,
	)
	if err != nil {
		return fmt.Errorf("ошибка отмены платежа: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListByProviderAndPeriod(ctx context.Context, provider string, from, to time.Time) ([]entities.Payment, error) {
	query, args, err := sq.Select(paymentColumns).
		From("payments").
		Where(sq.Eq{"provider": provider}).
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.LtOrEq{"created_at": to}).
		OrderBy("created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса выписки: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения выписки платежей: %w", err)
	}
	defer rows.Close()

	payments := make([]entities.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования платежа: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
