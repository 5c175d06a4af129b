package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
)

type OrderRepositoryInterface interface {
	CreateOrderInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error)
	NextOrderNumberInTx(ctx context.Context, tx pgx.Tx, date time.Time) (string, error)

	FindOrder(ctx context.Context, id uint64) (*entities.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*entities.Order, error)
	FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error)
	GetOrders(ctx context.Context, filter dto.OrderListFilterDTO) ([]entities.Order, uint64, error)

	// Активные (неотменённые) заказы мастера на дату; вариант InTx берёт
	// блокировку FOR UPDATE и сериализует конкурентные бронирования.
	GetActiveOrdersForDate(ctx context.Context, masterID uint64, date time.Time) ([]entities.Order, error)
	GetActiveOrdersForDateInTx(ctx context.Context, tx pgx.Tx, masterID uint64, date time.Time) ([]entities.Order, error)

	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	UpdateScheduleInTx(ctx context.Context, tx pgx.Tx, id uint64, date time.Time, windowStart, windowEnd string) error
	SetCallOutcomeInTx(ctx context.Context, tx pgx.Tx, id uint64, outcome string) error
	MarkCancelledInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string, cancelledBy *int64) error
	MarkCompletedInTx(ctx context.Context, tx pgx.Tx, id uint64, auto bool, completedAt time.Time) error
	SetPaymentStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, paymentStatus string) error

	// Выборки планировщика.
	GetConfirmedDue(ctx context.Context, date time.Time, nowTime string) ([]entities.Order, error)
	GetInProgressUpTo(ctx context.Context, date time.Time) ([]entities.Order, error)
}

type OrderRepository struct {
	storage *pgxpool.Pool
}

func NewOrderRepository(storage *pgxpool.Pool) OrderRepositoryInterface {
	return &OrderRepository{storage: storage}
}

const orderColumns = `id, order_number, customer_id, master_id, service_type_id, oil_id, duration_option_id,
	booking_date, to_char(arrival_window_start, 'HH24:MI'), to_char(arrival_window_end, 'HH24:MI'),
	duration_minutes, status, payment_status, total_amount, address, booking_group_id,
	call_outcome, cancel_reason, cancelled_by, cancelled_at, auto_completed, completed_at,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.MasterID, &o.ServiceTypeID, &o.OilID, &o.DurationOptionID,
		&o.BookingDate, &o.ArrivalWindowStart, &o.ArrivalWindowEnd,
		&o.DurationMinutes, &o.Status, &o.PaymentStatus, &o.TotalAmount, &o.Address, &o.BookingGroupID,
		&o.CallOutcome, &o.CancelReason, &o.CancelledBy, &o.CancelledAt, &o.AutoCompleted, &o.CompletedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]entities.Order, error) {
	defer rows.Close()

	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) CreateOrderInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error) {
	query := `
		INSERT INTO orders (
			order_number, customer_id, master_id, service_type_id, oil_id, duration_option_id,
			booking_date, arrival_window_start, arrival_window_end, duration_minutes,
			status, payment_status, total_amount, address, booking_group_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	var id uint64
	err := tx.QueryRow(ctx, query,
		order.OrderNumber, order.CustomerID, order.MasterID, order.ServiceTypeID, order.OilID, order.DurationOptionID,
		order.BookingDate, order.ArrivalWindowStart, order.ArrivalWindowEnd, order.DurationMinutes,
		order.Status, order.PaymentStatus, order.TotalAmount, order.Address, order.BookingGroupID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заказа: %w", err)
	}
	return id, nil
}

// NextOrderNumberInTx выдаёт человекочитаемый номер вида HM-20260831-0007.
// Счётчик ведётся по дням: первый заказ каждой даты получает суффикс 0001.
func (r *OrderRepository) NextOrderNumberInTx(ctx context.Context, tx pgx.Tx, date time.Time) (string, error) {
	var seq int64
	err := tx.QueryRow(ctx, `
		INSERT INTO order_number_counters AS c (day, last_value)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_value = c.last_value + 1
		RETURNING last_value`,
		date,
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("ошибка получения номера заказа: %w", err)
	}
	return fmt.Sprintf("HM-%s-%04d", date.Format("20060102"), seq), nil
}

func (r *OrderRepository) FindOrder(ctx context.Context, id uint64) (*entities.Order, error) {
	o, err := scanOrder(r.storage.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("ошибка поиска заказа: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) FindOrderByNumber(ctx context.Context, number string) (*entities.Order, error) {
	o, err := scanOrder(r.storage.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("ошибка поиска заказа по номеру: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("ошибка поиска заказа: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetOrders(ctx context.Context, filter dto.OrderListFilterDTO) ([]entities.Order, uint64, error) {
	builder := sq.Select(orderColumns).
		From("orders").
		OrderBy("booking_date DESC, arrival_window_start").
		PlaceholderFormat(sq.Dollar)

	countBuilder := sq.Select("COUNT(*)").From("orders").PlaceholderFormat(sq.Dollar)

	if filter.Date != "" {
		builder = builder.Where(sq.Eq{"booking_date": filter.Date})
		countBuilder = countBuilder.Where(sq.Eq{"booking_date": filter.Date})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
		countBuilder = countBuilder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.MasterID > 0 {
		builder = builder.Where(sq.Eq{"master_id": filter.MasterID})
		countBuilder = countBuilder.Where(sq.Eq{"master_id": filter.MasterID})
	}

	limit := filter.Limit
	if limit == 0 || limit > 200 {
		limit = 50
	}
	builder = builder.Limit(limit).Offset(filter.Offset)

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса подсчёта: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса списка: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

const activeOrdersForDateQuery = `
	SELECT ` + orderColumns + `
	FROM orders
	WHERE master_id = $1 AND booking_date = $2 AND status <> '` + constants.OrderStatusCancelled + `'
	ORDER BY arrival_window_start`

func (r *OrderRepository) GetActiveOrdersForDate(ctx context.Context, masterID uint64, date time.Time) ([]entities.Order, error) {
	rows, err := r.storage.Query(ctx, activeOrdersForDateQuery, masterID, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказов мастера: %w", err)
	}
	return collectOrders(rows)
}

func (r *OrderRepository) GetActiveOrdersForDateInTx(ctx context.Context, tx pgx.Tx, masterID uint64, date time.Time) ([]entities.Order, error) {
	// FOR UPDATE держит строки занятых заказов до конца транзакции:
	// конкурентная вставка на того же мастера и дату дождётся коммита.
	rows, err := tx.Query(ctx, activeOrdersForDateQuery+` FOR UPDATE`, masterID, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказов мастера: %w", err)
	}
	return collectOrders(rows)
}

func (r *OrderRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

// UpdateScheduleInTx переносит заказ на новую дату и окно прибытия.
func (r *OrderRepository) UpdateScheduleInTx(ctx context.Context, tx pgx.Tx, id uint64, date time.Time, windowStart, windowEnd string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET booking_date = $2, arrival_window_start = $3, arrival_window_end = $4, updated_at = now()
		WHERE id = $1`,
		id, date, windowStart, windowEnd,
	)
	if err != nil {
		return fmt.Errorf("ошибка переноса заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SetCallOutcomeInTx(ctx context.Context, tx pgx.Tx, id uint64, outcome string) error {
	_, err := tx.Exec(ctx, `UPDATE orders SET call_outcome = $2, updated_at = now() WHERE id = $1`, id, outcome)
	if err != nil {
		return fmt.Errorf("ошибка сохранения исхода звонка: %w", err)
	}
	return nil
}

func (r *OrderRepository) MarkCancelledInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string, cancelledBy *int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, cancel_reason = $3, cancelled_by = $4, cancelled_at = now(), updated_at = now()
		WHERE id = $1`,
		id, constants.OrderStatusCancelled, reason, cancelledBy,
	)
	if err != nil {
		return fmt.Errorf("ошибка отмены заказа: %w", err)
	}
	return nil
}

func (r *OrderRepository) MarkCompletedInTx(ctx context.Context, tx pgx.Tx, id uint64, auto bool, completedAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, auto_completed = $3, completed_at = $4, updated_at = now()
		WHERE id = $1`,
		id, constants.OrderStatusCompleted, auto, completedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка завершения заказа: %w", err)
	}
	return nil
}

func (r *OrderRepository) SetPaymentStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, paymentStatus string) error {
	_, err := tx.Exec(ctx, `UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`, id, paymentStatus)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса оплаты заказа: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetConfirmedDue(ctx context.Context, date time.Time, nowTime string) ([]entities.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND booking_date = $2 AND arrival_window_start <= $3
		ORDER BY arrival_window_start`

	rows, err := r.storage.Query(ctx, query, constants.OrderStatusConfirmed, date, nowTime)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки подтверждённых заказов: %w", err)
	}
	return collectOrders(rows)
}

func (r *OrderRepository) GetInProgressUpTo(ctx context.Context, date time.Time) ([]entities.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND booking_date <= $2
		ORDER BY booking_date, arrival_window_start`

	rows, err := r.storage.Query(ctx, query, constants.OrderStatusInProgress, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки заказов в работе: %w", err)
	}
	return collectOrders(rows)
}
