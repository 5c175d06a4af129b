package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/internal/events"
	"homemassage/internal/repositories"
	"homemassage/pkg/constants"
	"homemassage/pkg/eventbus"
	apperrors "homemassage/pkg/errors"
)

type OrderStatusServiceInterface interface {
	GetOrder(ctx context.Context, id uint64) (*entities.Order, error)
	GetOrders(ctx context.Context, filter dto.OrderListFilterDTO) ([]entities.Order, uint64, error)
	GetHistory(ctx context.Context, orderID uint64) ([]entities.OrderStatusLog, error)
	Transition(ctx context.Context, orderID uint64, data dto.TransitionDTO, actorID *int64, actorType string) (*entities.Order, error)
}

// OrderStatusService — машина статусов заказа. Единственная точка, через
// которую меняется статус: и диспетчерские переходы, и автоматические
// переходы планировщика идут через applyTransitionInTx, так что журнал
// статусов остаётся полным.
type OrderStatusService struct {
	txManager repositories.TxManagerInterface
	orderRepo repositories.OrderRepositoryInterface
	logRepo   repositories.OrderStatusLogRepositoryInterface
	bus       *eventbus.Bus
	logger    *zap.Logger

	nowFn func() time.Time
}

func NewOrderStatusService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	logRepo repositories.OrderStatusLogRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *OrderStatusService {
	return &OrderStatusService{
		txManager: txManager,
		orderRepo: orderRepo,
		logRepo:   logRepo,
		bus:       bus,
		logger:    logger,
		nowFn:     time.Now,
	}
}

func (s *OrderStatusService) GetOrder(ctx context.Context, id uint64) (*entities.Order, error) {
	return s.orderRepo.FindOrder(ctx, id)
}

func (s *OrderStatusService) GetOrders(ctx context.Context, filter dto.OrderListFilterDTO) ([]entities.Order, uint64, error) {
	return s.orderRepo.GetOrders(ctx, filter)
}

func (s *OrderStatusService) GetHistory(ctx context.Context, orderID uint64) ([]entities.OrderStatusLog, error) {
	if _, err := s.orderRepo.FindOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.logRepo.ListByOrder(ctx, orderID)
}

// Transition выполняет ручной переход статуса. Строка заказа берётся
// под FOR UPDATE, так что конкурентный переход и планировщик не
// перетирают друг друга.
func (s *OrderStatusService) Transition(ctx context.Context, orderID uint64, data dto.TransitionDTO, actorID *int64, actorType string) (*entities.Order, error) {
	if data.TargetStatus == constants.OrderStatusCancelled && data.CancelReason == "" {
		return nil, apperrors.ErrCancelReasonNeeded
	}

	var updated *entities.Order
	var oldStatus string

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		oldStatus = order.Status

		opts := transitionOpts{
			actorID:      actorID,
			actorType:    actorType,
			comment:      data.Comment,
			callOutcome:  data.CallOutcome,
			cancelReason: data.CancelReason,
		}
		if err := s.applyTransitionInTx(ctx, tx, order, data.TargetStatus, opts); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.OrderStatusChangedEvent{
		Order:     *updated,
		OldStatus: oldStatus,
		NewStatus: updated.Status,
		ActorType: actorType,
	})
	return updated, nil
}

type transitionOpts struct {
	actorID      *int64
	actorType    string
	comment      string
	callOutcome  string
	cancelReason string
	// Планировщик помечает завершение как автоматическое.
	autoCompleted bool
}

// applyTransitionInTx проверяет переход по графу, пишет поля перехода и
// строку журнала. Мутирует order до нового состояния.
func (s *OrderStatusService) applyTransitionInTx(ctx context.Context, tx pgx.Tx, order *entities.Order, target string, opts transitionOpts) error {
	if !constants.IsOrderTransitionAllowed(order.Status, target) {
		s.logger.Warn("недопустимый переход статуса",
			zap.Uint64("order_id", order.ID),
			zap.String("from", order.Status),
			zap.String("to", target),
		)
		return apperrors.ErrIllegalTransition
	}

	now := s.nowFn()

	switch target {
	case constants.OrderStatusCancelled:
		if opts.cancelReason == "" {
			return apperrors.ErrCancelReasonNeeded
		}
		if err := s.orderRepo.MarkCancelledInTx(ctx, tx, order.ID, opts.cancelReason, opts.actorID); err != nil {
			return err
		}
		order.CancelReason = null.StringFrom(opts.cancelReason)
		if opts.actorID != nil {
			order.CancelledBy = null.Int64From(*opts.actorID)
		}
		order.CancelledAt = null.TimeFrom(now)

	case constants.OrderStatusCompleted:
		if err := s.orderRepo.MarkCompletedInTx(ctx, tx, order.ID, opts.autoCompleted, now); err != nil {
			return err
		}
		order.AutoCompleted = opts.autoCompleted
		order.CompletedAt = null.TimeFrom(now)

	default:
		if err := s.orderRepo.UpdateStatusInTx(ctx, tx, order.ID, target); err != nil {
			return err
		}
	}

	if target == constants.OrderStatusConfirmed && opts.callOutcome != "" {
		if err := s.orderRepo.SetCallOutcomeInTx(ctx, tx, order.ID, opts.callOutcome); err != nil {
			return err
		}
		order.CallOutcome = null.StringFrom(opts.callOutcome)
	}

	entry := entities.OrderStatusLog{
		OrderID:   order.ID,
		ActorType: opts.actorType,
		OldStatus: order.Status,
		NewStatus: target,
	}
	if opts.comment != "" {
		entry.Comment = null.StringFrom(opts.comment)
	}
	if opts.actorID != nil {
		entry.ActorID = null.Int64From(*opts.actorID)
	}
	if err := s.logRepo.AppendInTx(ctx, tx, &entry); err != nil {
		return err
	}

	order.Status = target
	order.UpdatedAt = now
	return nil
}
