package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homemassage/internal/entities"
	"homemassage/pkg/constants"
	"homemassage/pkg/eventbus"
)

type promoterFixture struct {
	svc       *PromoterService
	orderRepo *fakeOrderRepo
	logRepo   *fakeLogRepo
	runRepo   *fakeRunRepo
}

func newPromoterFixture(now time.Time, orders ...*entities.Order) *promoterFixture {
	orderRepo := newFakeOrderRepo(orders...)
	logRepo := &fakeLogRepo{}
	runRepo := &fakeRunRepo{}
	statusSvc := NewOrderStatusService(
		&fakeTxManager{repos: []txSnapshotter{orderRepo, logRepo}},
		orderRepo,
		logRepo,
		eventbus.New(zap.NewNop()),
		zap.NewNop(),
	)
	svc := NewPromoterService(
		&fakeTxManager{repos: []txSnapshotter{orderRepo, logRepo}},
		orderRepo,
		runRepo,
		statusSvc,
		time.UTC,
		zap.NewNop(),
	)
	nowFn := func() time.Time { return now }
	svc.nowFn = nowFn
	statusSvc.nowFn = nowFn
	return &promoterFixture{svc: svc, orderRepo: orderRepo, logRepo: logRepo, runRepo: runRepo}
}

func scheduledOrder(id uint64, status, start string, duration int) *entities.Order {
	o := orderInStatus(id, status)
	o.ArrivalWindowStart = start
	o.DurationMinutes = duration
	return o
}

func TestRunOnce_StartsDueConfirmed(t *testing.T) {
	// 10:05 — окно прибытия 10:00 уже наступило.
	now := time.Date(2026, 9, 15, 10, 5, 0, 0, time.UTC)
	f := newPromoterFixture(now, scheduledOrder(1, constants.OrderStatusConfirmed, "10:00", 60))

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Started, 1)
	assert.Empty(t, report.Completed)
	assert.Zero(t, report.Failed)

	order, err := f.orderRepo.FindOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusInProgress, order.Status)

	// Автоматический переход тоже попадает в журнал.
	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, constants.ActorSystem, f.logRepo.entries[0].ActorType)
}

func TestRunOnce_LeavesNotYetDueConfirmed(t *testing.T) {
	now := time.Date(2026, 9, 15, 9, 30, 0, 0, time.UTC)
	f := newPromoterFixture(now, scheduledOrder(1, constants.OrderStatusConfirmed, "10:00", 60))

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Started)

	order, _ := f.orderRepo.FindOrder(context.Background(), 1)
	assert.Equal(t, constants.OrderStatusConfirmed, order.Status)
}

func TestRunOnce_AutoCompletesOverdue(t *testing.T) {
	// Сеанс 10:00 + 60 мин + 60 мин паузы = порог 12:00.
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	f := newPromoterFixture(now, scheduledOrder(1, constants.OrderStatusInProgress, "10:00", 60))

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Completed, 1)

	order, err := f.orderRepo.FindOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusCompleted, order.Status)
	assert.True(t, order.AutoCompleted)
	assert.True(t, order.CompletedAt.Valid)
}

func TestRunOnce_DoesNotCompleteEarly(t *testing.T) {
	now := time.Date(2026, 9, 15, 11, 59, 0, 0, time.UTC)
	f := newPromoterFixture(now, scheduledOrder(1, constants.OrderStatusInProgress, "10:00", 60))

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Completed)

	order, _ := f.orderRepo.FindOrder(context.Background(), 1)
	assert.Equal(t, constants.OrderStatusInProgress, order.Status)
	assert.False(t, order.AutoCompleted)
}

func TestRunOnce_Idempotent(t *testing.T) {
	now := time.Date(2026, 9, 15, 13, 0, 0, 0, time.UTC)
	f := newPromoterFixture(now,
		scheduledOrder(1, constants.OrderStatusConfirmed, "12:30", 60),
		scheduledOrder(2, constants.OrderStatusInProgress, "10:00", 60),
	)

	first, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Started, 1)
	assert.Len(t, first.Completed, 1)

	// Повторный проход на том же состоянии кандидатов не находит;
	// заказ 1 стал IN_PROGRESS только что и ещё не дозрел до завершения.
	second, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Started)
	assert.Empty(t, second.Completed)
}

func TestRunOnce_SkipsOrderChangedUnderneath(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 5, 0, 0, time.UTC)
	order := scheduledOrder(1, constants.OrderStatusConfirmed, "10:00", 60)
	f := newPromoterFixture(now, order)

	// Диспетчер отменил заказ между выборкой и переходом: promote
	// перечитывает статус и молча пропускает.
	err := f.svc.promote(context.Background(), 1, constants.OrderStatusInProgress, constants.OrderStatusCompleted, true)
	require.NoError(t, err)

	stored, _ := f.orderRepo.FindOrder(context.Background(), 1)
	assert.Equal(t, constants.OrderStatusConfirmed, stored.Status)
	assert.Empty(t, f.logRepo.entries)
}

func TestRunOnce_RecordsAuditRun(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 5, 0, 0, time.UTC)
	f := newPromoterFixture(now, scheduledOrder(1, constants.OrderStatusConfirmed, "10:00", 60))

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)

	assert.Equal(t, 1, f.runRepo.started)
	require.Len(t, f.runRepo.finished, 1)
	assert.Equal(t, entities.SchedulerRunCompleted, f.runRepo.finished[0])
}

func TestRunOnce_OrderFailureDoesNotFailRun(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 5, 0, 0, time.UTC)
	f := newPromoterFixture(now,
		scheduledOrder(1, constants.OrderStatusConfirmed, "10:00", 60),
		scheduledOrder(2, constants.OrderStatusConfirmed, "10:00", 60),
	)
	f.orderRepo.updateStatusErrs = map[uint64]error{1: errors.New("deadlock detected")}

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	// Сбой одного заказа не останавливает проход и не роняет его статус.
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Started, 1)
	require.Len(t, f.runRepo.finished, 1)
	assert.Equal(t, entities.SchedulerRunCompleted, f.runRepo.finished[0])

	healthy, _ := f.orderRepo.FindOrder(context.Background(), 2)
	assert.Equal(t, constants.OrderStatusInProgress, healthy.Status)
}

func TestRunOnce_SelectFailureFailsRun(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 5, 0, 0, time.UTC)
	f := newPromoterFixture(now, scheduledOrder(1, constants.OrderStatusConfirmed, "10:00", 60))
	f.orderRepo.confirmedDueErr = errors.New("connection refused")

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Started)

	require.Len(t, f.runRepo.finished, 1)
	assert.Equal(t, entities.SchedulerRunFailed, f.runRepo.finished[0])
}

func TestAutoCompleteAt_CorruptTimeDefersOrder(t *testing.T) {
	now := time.Date(2026, 9, 15, 23, 0, 0, 0, time.UTC)
	order := scheduledOrder(1, constants.OrderStatusInProgress, "чепуха", 60)
	f := newPromoterFixture(now, order)

	report, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Completed)

	stored, _ := f.orderRepo.FindOrder(context.Background(), 1)
	assert.Equal(t, constants.OrderStatusInProgress, stored.Status)
}
