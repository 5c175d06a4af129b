package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homemassage/internal/entities"
	"homemassage/internal/events"
	"homemassage/internal/repositories"
	"homemassage/pkg/constants"
	"homemassage/pkg/utils"
)

type PromoterServiceInterface interface {
	RunOnce(ctx context.Context) (*PromoterReport, error)
}

// PromoterReport — итог одного прохода промоутера.
type PromoterReport struct {
	RunID     string   `json:"run_id"`
	Started   []string `json:"started"`
	Completed []string `json:"completed"`
	Failed    int      `json:"failed"`
}

type promoterFailure struct {
	OrderID uint64 `json:"order_id"`
	Error   string `json:"error"`
}

type promoterDetails struct {
	Started   []string          `json:"started"`
	Completed []string          `json:"completed"`
	Failures  []promoterFailure `json:"failures,omitempty"`
}

// PromoterService выполняет автоматические переходы по расписанию:
// CONFIRMED -> IN_PROGRESS при наступлении окна прибытия и
// IN_PROGRESS -> COMPLETED спустя паузу после расчётного конца сеанса.
// Каждый заказ обрабатывается в своей транзакции: сбой одного не
// останавливает проход.
type PromoterService struct {
	txManager     repositories.TxManagerInterface
	orderRepo     repositories.OrderRepositoryInterface
	runRepo       repositories.SchedulerRunRepositoryInterface
	statusService *OrderStatusService
	loc           *time.Location
	logger        *zap.Logger

	nowFn func() time.Time
}

func NewPromoterService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	runRepo repositories.SchedulerRunRepositoryInterface,
	statusService *OrderStatusService,
	loc *time.Location,
	logger *zap.Logger,
) *PromoterService {
	return &PromoterService{
		txManager:     txManager,
		orderRepo:     orderRepo,
		runRepo:       runRepo,
		statusService: statusService,
		loc:           loc,
		logger:        logger,
		nowFn:         time.Now,
	}
}

// RunOnce — один проход обоих свипов с аудитом в scheduler_runs.
// Проход идемпотентен: повторный запуск на том же состоянии БД
// не находит кандидатов и ничего не меняет.
func (s *PromoterService) RunOnce(ctx context.Context) (*PromoterReport, error) {
	now := s.nowFn().In(s.loc)
	runID := uuid.NewString()

	auditID, err := s.runRepo.Start(ctx, runID, now)
	if err != nil {
		return nil, err
	}

	details := promoterDetails{}

	started, startFailures, startErr := s.sweepConfirmed(ctx, now)
	details.Started = started
	details.Failures = append(details.Failures, startFailures...)

	completed, completeFailures, completeErr := s.sweepInProgress(ctx, now)
	details.Completed = completed
	details.Failures = append(details.Failures, completeFailures...)

	processed := len(details.Started) + len(details.Completed)
	payload, _ := json.Marshal(details)

	// Сбои отдельных заказов остаются в деталях, проход считается
	// состоявшимся. failed — только когда не удалась сама выборка.
	status := entities.SchedulerRunCompleted
	var errMsg *string
	runErr := startErr
	if runErr == nil {
		runErr = completeErr
	}
	if runErr != nil {
		status = entities.SchedulerRunFailed
		msg := runErr.Error()
		errMsg = &msg
	}
	if err := s.runRepo.Finish(ctx, auditID, status, processed, payload, errMsg, s.nowFn().In(s.loc)); err != nil {
		s.logger.Error("не удалось закрыть запись запуска планировщика",
			zap.String("run_id", runID), zap.Error(err))
	}

	s.logger.Info("проход планировщика завершён",
		zap.String("run_id", runID),
		zap.Int("started", len(details.Started)),
		zap.Int("completed", len(details.Completed)),
		zap.Int("failed", len(details.Failures)),
	)

	return &PromoterReport{
		RunID:     runID,
		Started:   details.Started,
		Completed: details.Completed,
		Failed:    len(details.Failures),
	}, nil
}

// sweepConfirmed переводит CONFIRMED -> IN_PROGRESS заказы, чьё окно
// прибытия уже наступило.
func (s *PromoterService) sweepConfirmed(ctx context.Context, now time.Time) ([]string, []promoterFailure, error) {
	today := utils.DateOnly(now, s.loc)
	due, err := s.orderRepo.GetConfirmedDue(ctx, today, now.Format(utils.TimeLayout))
	if err != nil {
		s.logger.Error("выборка подтверждённых заказов не удалась", zap.Error(err))
		return nil, nil, err
	}

	var promoted []string
	var failures []promoterFailure
	for i := range due {
		order := &due[i]
		if err := s.promote(ctx, order.ID, constants.OrderStatusConfirmed, constants.OrderStatusInProgress, false); err != nil {
			s.logger.Error("автоматический переход IN_PROGRESS не удался",
				zap.Uint64("order_id", order.ID), zap.Error(err))
			failures = append(failures, promoterFailure{OrderID: order.ID, Error: err.Error()})
			continue
		}
		promoted = append(promoted, order.OrderNumber)
	}
	return promoted, failures, nil
}

// sweepInProgress завершает IN_PROGRESS заказы спустя
// AutoCompleteDelayMinutes после расчётного конца сеанса.
func (s *PromoterService) sweepInProgress(ctx context.Context, now time.Time) ([]string, []promoterFailure, error) {
	today := utils.DateOnly(now, s.loc)
	inProgress, err := s.orderRepo.GetInProgressUpTo(ctx, today)
	if err != nil {
		s.logger.Error("выборка заказов в работе не удалась", zap.Error(err))
		return nil, nil, err
	}

	var completed []string
	var failures []promoterFailure
	for i := range inProgress {
		order := &inProgress[i]
		if now.Before(s.autoCompleteAt(order)) {
			continue
		}
		if err := s.promote(ctx, order.ID, constants.OrderStatusInProgress, constants.OrderStatusCompleted, true); err != nil {
			s.logger.Error("автоматическое завершение не удалось",
				zap.Uint64("order_id", order.ID), zap.Error(err))
			failures = append(failures, promoterFailure{OrderID: order.ID, Error: err.Error()})
			continue
		}
		completed = append(completed, order.OrderNumber)
	}
	return completed, failures, nil
}

// autoCompleteAt — момент, начиная с которого заказ можно завершать
// автоматически: конец окна прибытия + длительность сеанса + пауза.
func (s *PromoterService) autoCompleteAt(order *entities.Order) time.Time {
	startMin, err := utils.ParseMinutes(order.ArrivalWindowStart)
	if err != nil {
		// Повреждённое время трактуем как "ещё не пора", заказ
		// останется диспетчеру.
		return s.nowFn().In(s.loc).Add(24 * time.Hour)
	}
	endMin := startMin + order.SessionDuration() + constants.AutoCompleteDelayMinutes
	return utils.CombineDateMinutes(order.BookingDate, endMin, s.loc)
}

// promote выполняет один автоматический переход в своей транзакции.
// Статус перечитывается под FOR UPDATE: если диспетчер успел изменить
// заказ между выборкой и переходом, заказ молча пропускается.
func (s *PromoterService) promote(ctx context.Context, orderID uint64, expectedStatus, target string, auto bool) error {
	var changed *entities.Order
	var oldStatus string

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != expectedStatus {
			return nil
		}
		oldStatus = order.Status
		opts := transitionOpts{
			actorType:     constants.ActorSystem,
			autoCompleted: auto,
		}
		if err := s.statusService.applyTransitionInTx(ctx, tx, order, target, opts); err != nil {
			return err
		}
		changed = order
		return nil
	})
	if err != nil {
		return err
	}

	if changed != nil {
		s.statusService.bus.Publish(ctx, events.OrderStatusChangedEvent{
			Order:     *changed,
			OldStatus: oldStatus,
			NewStatus: changed.Status,
			ActorType: constants.ActorSystem,
		})
	}
	return nil
}
