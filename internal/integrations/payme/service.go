package payme

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homemassage/internal/entities"
	"homemassage/internal/events"
	"homemassage/internal/repositories"
	"homemassage/pkg/constants"
	"homemassage/pkg/eventbus"
	apperrors "homemassage/pkg/errors"
)

type ServiceInterface interface {
	CheckPerformTransaction(ctx context.Context, params CheckPerformParams) (interface{}, *Error)
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (interface{}, *Error)
	PerformTransaction(ctx context.Context, params PerformTransactionParams) (interface{}, *Error)
	CancelTransaction(ctx context.Context, params CancelTransactionParams) (interface{}, *Error)
	CheckTransaction(ctx context.Context, params CheckTransactionParams) (interface{}, *Error)
	GetStatement(ctx context.Context, params GetStatementParams) (interface{}, *Error)
}

// Service — адаптер Payme Merchant API. Суммы протокола приходят в тийинах,
// заказ хранит сумму в сумах, поэтому при сверке сумма заказа умножается
// на 100. Повторная доставка perform/cancel идемпотентна: состояние
// транзакции перечитывается под FOR UPDATE и уже применённый переход
// возвращает сохранённый результат.
type Service struct {
	txManager   repositories.TxManagerInterface
	paymentRepo repositories.PaymentRepositoryInterface
	orderRepo   repositories.OrderRepositoryInterface
	bus         *eventbus.Bus
	logger      *zap.Logger

	nowFn func() time.Time
}

func NewService(
	txManager repositories.TxManagerInterface,
	paymentRepo repositories.PaymentRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *Service {
	return &Service{
		txManager:   txManager,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		bus:         bus,
		logger:      logger,
		nowFn:       time.Now,
	}
}

// orderAmountTiyin — сумма заказа в минимальных единицах протокола.
func orderAmountTiyin(order *entities.Order) int64 {
	return order.TotalAmount * 100
}

func msec(t null.Time) int64 {
	if !t.Valid {
		return 0
	}
	return t.Time.UnixMilli()
}

// findPayableOrder находит заказ по реквизитам счёта и проверяет,
// что его можно оплачивать.
func (s *Service) findPayableOrder(ctx context.Context, account Account, amount int64) (*entities.Order, *Error) {
	orderID, err := strconv.ParseUint(account.OrderID, 10, 64)
	if err != nil {
		return nil, accountError(CodeOrderNotFound, "заказ не найден")
	}
	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			return nil, accountError(CodeOrderNotFound, "заказ не найден")
		}
		s.logger.Error("ошибка поиска заказа для Payme", zap.Error(err))
		return nil, newError(CodeOrderUnavailable, "заказ недоступен")
	}
	if order.Status == constants.OrderStatusCancelled || order.PaymentStatus == constants.OrderPaymentPaid {
		return nil, accountError(CodeOrderUnavailable, "заказ недоступен для оплаты")
	}
	if amount != orderAmountTiyin(order) {
		return nil, newError(CodeWrongAmount, "неверная сумма")
	}
	return order, nil
}

func (s *Service) CheckPerformTransaction(ctx context.Context, params CheckPerformParams) (interface{}, *Error) {
	if _, perr := s.findPayableOrder(ctx, params.Account, params.Amount); perr != nil {
		return nil, perr
	}
	return CheckPerformResult{Allow: true}, nil
}

func (s *Service) CreateTransaction(ctx context.Context, params CreateTransactionParams) (interface{}, *Error) {
	// Повторный create с тем же id — идемпотентный ответ.
	existing, err := s.paymentRepo.FindByExternalID(ctx, constants.ProviderPayme, params.ID)
	if err == nil {
		if existing.PaymeState() != 1 {
			return nil, newError(CodeTransactionState, "транзакция в недопустимом состоянии")
		}
		return TransactionResult{
			CreateTime:  existing.CreatedAt.UnixMilli(),
			Transaction: existing.TransactionID,
			State:       1,
		}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Error("ошибка поиска транзакции Payme", zap.Error(err))
		return nil, newError(CodeTransactionState, "внутренняя ошибка")
	}

	order, perr := s.findPayableOrder(ctx, params.Account, params.Amount)
	if perr != nil {
		return nil, perr
	}

	var payment entities.Payment
	txErr := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// У заказа может быть только одна незавершённая транзакция.
		if _, err := s.paymentRepo.FindActiveByOrderInTx(ctx, tx, constants.ProviderPayme, order.ID); err == nil {
			return apperrors.ErrSlotTaken
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		payment = entities.Payment{
			OrderID:       order.ID,
			Provider:      constants.ProviderPayme,
			TransactionID: uuid.NewString(),
			ExternalID:    null.StringFrom(params.ID),
			Amount:        params.Amount,
			Status:        constants.PaymentStatusProcessing,
			CreatedAt:     s.nowFn(),
		}
		id, err := s.paymentRepo.CreateInTx(ctx, tx, &payment)
		if err != nil {
			return err
		}
		payment.ID = id
		return s.orderRepo.SetPaymentStatusInTx(ctx, tx, order.ID, constants.OrderPaymentPending)
	})
	if txErr != nil {
		if errors.Is(txErr, apperrors.ErrSlotTaken) {
			return nil, newError(CodeOrderUnavailable, "по заказу уже есть незавершённая транзакция")
		}
		s.logger.Error("ошибка создания транзакции Payme", zap.Error(txErr))
		return nil, newError(CodeTransactionState, "внутренняя ошибка")
	}

	// Повтор create вернёт created_at из БД: отдаём ту же метку и здесь.
	return TransactionResult{
		CreateTime:  payment.CreatedAt.UnixMilli(),
		Transaction: payment.TransactionID,
		State:       1,
	}, nil
}

func (s *Service) PerformTransaction(ctx context.Context, params PerformTransactionParams) (interface{}, *Error) {
	var result TransactionResult
	var paidOrder *entities.Order
	var paidAmount int64

	txErr := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		payment, err := s.paymentRepo.FindByExternalIDInTx(ctx, tx, constants.ProviderPayme, params.ID)
		if err != nil {
			return err
		}

		switch payment.PaymeState() {
		case 2:
			// Уже проведена: возвращаем сохранённый результат.
			result = TransactionResult{
				Transaction: payment.TransactionID,
				PerformTime: msec(payment.PerformTime),
				State:       2,
			}
			return nil
		case -1, -2:
			return apperrors.ErrIllegalTransition
		}

		now := s.nowFn()
		if err := s.paymentRepo.MarkPaidInTx(ctx, tx, payment.ID, now); err != nil {
			return err
		}
		if err := s.orderRepo.SetPaymentStatusInTx(ctx, tx, payment.OrderID, constants.OrderPaymentPaid); err != nil {
			return err
		}

		order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, payment.OrderID)
		if err == nil {
			paidOrder = order
			paidAmount = payment.Amount
		}

		result = TransactionResult{
			Transaction: payment.TransactionID,
			PerformTime: now.UnixMilli(),
			State:       2,
		}
		return nil
	})
	if txErr != nil {
		return nil, s.mapTransactionError(txErr)
	}

	if paidOrder != nil {
		s.bus.Publish(ctx, events.OrderPaidEvent{
			Order:    *paidOrder,
			Provider: constants.ProviderPayme,
			Amount:   paidAmount,
		})
	}
	return result, nil
}

func (s *Service) CancelTransaction(ctx context.Context, params CancelTransactionParams) (interface{}, *Error) {
	var result TransactionResult

	txErr := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		payment, err := s.paymentRepo.FindByExternalIDInTx(ctx, tx, constants.ProviderPayme, params.ID)
		if err != nil {
			return err
		}

		state := payment.PaymeState()
		if state < 0 {
			reason := intPtrFromNull(payment.CancelReason)
			result = TransactionResult{
				Transaction: payment.TransactionID,
				CancelTime:  msec(payment.CancelTime),
				State:       state,
				Reason:      reason,
			}
			return nil
		}

		now := s.nowFn()
		newState := -1
		status := constants.PaymentStatusCancelled
		orderPayment := constants.OrderPaymentCancelled
		if state == 2 {
			// Отмена проведённой транзакции — возврат.
			newState = -2
			status = constants.PaymentStatusRefunded
			orderPayment = constants.OrderPaymentRefunded
		}

		if err := s.paymentRepo.MarkCancelledInTx(ctx, tx, payment.ID, status, params.Reason, now); err != nil {
			return err
		}
		if err := s.orderRepo.SetPaymentStatusInTx(ctx, tx, payment.OrderID, orderPayment); err != nil {
			return err
		}

		reason := params.Reason
		result = TransactionResult{
			Transaction: payment.TransactionID,
			CancelTime:  now.UnixMilli(),
			State:       newState,
			Reason:      &reason,
		}
		return nil
	})
	if txErr != nil {
		return nil, s.mapTransactionError(txErr)
	}
	return result, nil
}

func (s *Service) CheckTransaction(ctx context.Context, params CheckTransactionParams) (interface{}, *Error) {
	payment, err := s.paymentRepo.FindByExternalID(ctx, constants.ProviderPayme, params.ID)
	if err != nil {
		return nil, s.mapTransactionError(err)
	}
	return TransactionResult{
		CreateTime:  payment.CreatedAt.UnixMilli(),
		PerformTime: msec(payment.PerformTime),
		CancelTime:  msec(payment.CancelTime),
		Transaction: payment.TransactionID,
		State:       payment.PaymeState(),
		Reason:      intPtrFromNull(payment.CancelReason),
	}, nil
}

func (s *Service) GetStatement(ctx context.Context, params GetStatementParams) (interface{}, *Error) {
	from := time.UnixMilli(params.From)
	to := time.UnixMilli(params.To)

	payments, err := s.paymentRepo.ListByProviderAndPeriod(ctx, constants.ProviderPayme, from, to)
	if err != nil {
		s.logger.Error("ошибка формирования выписки Payme", zap.Error(err))
		return nil, newError(CodeTransactionState, "внутренняя ошибка")
	}

	transactions := make([]StatementTransaction, 0, len(payments))
	for i := range payments {
		p := &payments[i]
		transactions = append(transactions, StatementTransaction{
			ID:          p.ExternalID.String,
			Time:        p.CreatedAt.UnixMilli(),
			Amount:      p.Amount,
			Account:     Account{OrderID: strconv.FormatUint(p.OrderID, 10)},
			CreateTime:  p.CreatedAt.UnixMilli(),
			PerformTime: msec(p.PerformTime),
			CancelTime:  msec(p.CancelTime),
			Transaction: p.TransactionID,
			State:       p.PaymeState(),
			Reason:      intPtrFromNull(p.CancelReason),
		})
	}
	return StatementResult{Transactions: transactions}, nil
}

func (s *Service) mapTransactionError(err error) *Error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return newError(CodeTransactionNotFound, "транзакция не найдена")
	}
	if errors.Is(err, apperrors.ErrIllegalTransition) {
		return newError(CodeTransactionState, "транзакция в недопустимом состоянии")
	}
	s.logger.Error("ошибка обработки транзакции Payme", zap.Error(err))
	return newError(CodeTransactionState, "внутренняя ошибка")
}

func intPtrFromNull(v null.Int64) *int {
	if !v.Valid {
		return nil
	}
	r := int(v.Int64)
	return &r
}
