package click

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homemassage/internal/entities"
	"homemassage/internal/events"
	"homemassage/internal/repositories"
	"homemassage/pkg/config"
	"homemassage/pkg/constants"
	"homemassage/pkg/eventbus"
	apperrors "homemassage/pkg/errors"
)

type ServiceInterface interface {
	Handle(ctx context.Context, req Request) Response
}

// Service — адаптер Click SHOP-API (prepare/complete). Ответ всегда
// повторяет click_trans_id и merchant_trans_id запроса дословно,
// даже при ошибке. Суммы Click присылает в сумах строкой с копейками.
type Service struct {
	cfg         config.ClickConfig
	txManager   repositories.TxManagerInterface
	paymentRepo repositories.PaymentRepositoryInterface
	orderRepo   repositories.OrderRepositoryInterface
	bus         *eventbus.Bus
	logger      *zap.Logger

	nowFn func() time.Time
}

func NewService(
	cfg config.ClickConfig,
	txManager repositories.TxManagerInterface,
	paymentRepo repositories.PaymentRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *Service {
	return &Service{
		cfg:         cfg,
		txManager:   txManager,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		bus:         bus,
		logger:      logger,
		nowFn:       time.Now,
	}
}

func (s *Service) Handle(ctx context.Context, req Request) Response {
	resp := Response{
		ClickTransID:    req.ClickTransID,
		MerchantTransID: req.MerchantTransID,
	}

	if !VerifySignature(req, s.cfg.SecretKey) {
		s.logger.Warn("Click: подпись запроса не сошлась",
			zap.Int64("click_trans_id", req.ClickTransID),
			zap.String("merchant_trans_id", req.MerchantTransID),
		)
		return s.fail(resp, CodeBadSignature)
	}

	switch req.Action {
	case ActionPrepare:
		return s.prepare(ctx, req, resp)
	case ActionComplete:
		return s.complete(ctx, req, resp)
	default:
		return s.fail(resp, CodeActionNotFound)
	}
}

func (s *Service) prepare(ctx context.Context, req Request, resp Response) Response {
	order, err := s.orderRepo.FindOrderByNumber(ctx, req.MerchantTransID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			return s.fail(resp, CodeOrderNotFound)
		}
		s.logger.Error("Click prepare: ошибка поиска заказа", zap.Error(err))
		return s.fail(resp, CodeBadRequest)
	}
	if order.PaymentStatus == constants.OrderPaymentPaid {
		return s.fail(resp, CodeAlreadyPaid)
	}
	if order.Status == constants.OrderStatusCancelled {
		return s.fail(resp, CodeOrderNotFound)
	}
	if !amountMatches(req.Amount, order.TotalAmount) {
		return s.fail(resp, CodeWrongAmount)
	}

	externalID := strconv.FormatInt(req.ClickTransID, 10)

	// Повторный prepare с тем же click_trans_id — тот же prepare_id.
	if existing, err := s.paymentRepo.FindByExternalID(ctx, constants.ProviderClick, externalID); err == nil {
		resp.MerchantPrepareID = int64(existing.ID)
		return s.ok(resp)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Error("Click prepare: ошибка поиска транзакции", zap.Error(err))
		return s.fail(resp, CodeBadRequest)
	}

	var payment entities.Payment
	txErr := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		payment = entities.Payment{
			OrderID:       order.ID,
			Provider:      constants.ProviderClick,
			TransactionID: externalID,
			ExternalID:    null.StringFrom(externalID),
			Amount:        order.TotalAmount,
			Status:        constants.PaymentStatusPending,
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
		s.logger.Error("Click prepare: ошибка создания платежа", zap.Error(txErr))
		return s.fail(resp, CodeBadRequest)
	}

	resp.MerchantPrepareID = int64(payment.ID)
	return s.ok(resp)
}

func (s *Service) complete(ctx context.Context, req Request, resp Response) Response {
	externalID := strconv.FormatInt(req.ClickTransID, 10)

	var paidOrder *entities.Order
	var code = CodeSuccess

	txErr := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		payment, err := s.paymentRepo.FindByExternalIDInTx(ctx, tx, constants.ProviderClick, externalID)
		if err != nil {
			return err
		}
		if int64(payment.ID) != req.MerchantPrepareID {
			code = CodeTransactionNotFound
			return nil
		}

		// Click сообщает о своей ошибке отрицательным error: отменяем попытку.
		// Уже проведённый платёж при этом не трогаем.
		if req.Error < 0 {
			if payment.IsPaid() {
				code = CodeAlreadyPaid
				return nil
			}
			if payment.IsCancelled() {
				code = CodeTransactionCancelled
				return nil
			}
			if err := s.paymentRepo.MarkCancelledInTx(ctx, tx, payment.ID, constants.PaymentStatusFailed, req.Error, s.nowFn()); err != nil {
				return err
			}
			if err := s.orderRepo.SetPaymentStatusInTx(ctx, tx, payment.OrderID, constants.OrderPaymentFailed); err != nil {
				return err
			}
			code = CodeTransactionCancelled
			return nil
		}

		if payment.IsCancelled() {
			code = CodeTransactionCancelled
			return nil
		}
		if payment.IsPaid() {
			// Повторный complete: успех без повторного проведения.
			return nil
		}
		if !amountMatches(req.Amount, payment.Amount) {
			code = CodeWrongAmount
			return nil
		}

		if err := s.paymentRepo.MarkPaidInTx(ctx, tx, payment.ID, s.nowFn()); err != nil {
			return err
		}
		if err := s.orderRepo.SetPaymentStatusInTx(ctx, tx, payment.OrderID, constants.OrderPaymentPaid); err != nil {
			return err
		}
		if order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, payment.OrderID); err == nil {
			paidOrder = order
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, apperrors.ErrNotFound) {
			return s.fail(resp, CodeTransactionNotFound)
		}
		s.logger.Error("Click complete: ошибка проведения", zap.Error(txErr))
		return s.fail(resp, CodeBadRequest)
	}
	if code != CodeSuccess {
		return s.fail(resp, code)
	}

	if paidOrder != nil {
		s.bus.Publish(ctx, events.OrderPaidEvent{
			Order:    *paidOrder,
			Provider: constants.ProviderClick,
			Amount:   paidOrder.TotalAmount,
		})
	}

	resp.MerchantConfirmID = req.MerchantPrepareID
	return s.ok(resp)
}

func (s *Service) ok(resp Response) Response {
	resp.Error = CodeSuccess
	resp.ErrorNote = errorNote(CodeSuccess)
	return resp
}

func (s *Service) fail(resp Response, code int) Response {
	resp.Error = code
	resp.ErrorNote = errorNote(code)
	return resp
}

// amountMatches сравнивает сумму запроса ("150000" или "150000.00")
// с суммой заказа в сумах.
func amountMatches(raw string, expected int64) bool {
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false
	}
	diff := parsed - float64(expected)
	return diff > -0.01 && diff < 0.01
}
