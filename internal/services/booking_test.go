package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/pkg/constants"
	"homemassage/pkg/eventbus"
	apperrors "homemassage/pkg/errors"
)

type bookingFixture struct {
	svc       *BookingService
	orderRepo *fakeOrderRepo
	logRepo   *fakeLogRepo
	lockRepo  *fakeLockRepo
}

func newBookingFixture(masters ...*entities.Master) *bookingFixture {
	orderRepo := newFakeOrderRepo()
	logRepo := &fakeLogRepo{}
	lockRepo := newFakeLockRepo()
	svc := NewBookingService(
		&fakeTxManager{repos: []txSnapshotter{orderRepo, logRepo}},
		orderRepo,
		logRepo,
		newFakeMasterRepo(masters...),
		newFakeCustomerRepo(&entities.Customer{ID: 7, FullName: "Клиент"}),
		&fakeBlockedRepo{},
		newFakeDictRepo(),
		lockRepo,
		eventbus.New(zap.NewNop()),
		time.UTC,
		zap.NewNop(),
	)
	svc.nowFn = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return &bookingFixture{svc: svc, orderRepo: orderRepo, logRepo: logRepo, lockRepo: lockRepo}
}

func bookingRequest(masterIDs ...uint64) dto.CreateOrderDTO {
	return dto.CreateOrderDTO{
		CustomerID:       7,
		MasterIDs:        masterIDs,
		Date:             "2026-09-15",
		StartTime:        "10:00",
		DurationOptionID: 1,
		ServiceTypeID:    1,
		Address:          "г. Ташкент, ул. Примерная, 1",
	}
}

func TestCreateBooking_Success(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	orders, err := f.svc.CreateBooking(context.Background(), bookingRequest(1))
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, constants.OrderStatusNew, o.Status)
	assert.Equal(t, constants.OrderPaymentNotPaid, o.PaymentStatus)
	assert.Equal(t, "10:00", o.ArrivalWindowStart)
	assert.Equal(t, "10:30", o.ArrivalWindowEnd)
	assert.Equal(t, int64(250000), o.TotalAmount)
	assert.Regexp(t, `^HM-20260915-\d{4}$`, o.OrderNumber)
	assert.False(t, o.BookingGroupID.Valid)

	// Создание записано в журнал статусов.
	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, constants.OrderStatusNew, f.logRepo.entries[0].NewStatus)
	assert.Equal(t, constants.ActorCustomer, f.logRepo.entries[0].ActorType)

	// Замок снят после бронирования.
	assert.Empty(t, f.lockRepo.locks)
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	existing := activeOrder(1, mustDate(t, "2026-09-15"), "10:00", 60)
	existing.ID = 50
	f.orderRepo.orders[50] = existing

	_, err := f.svc.CreateBooking(context.Background(), bookingRequest(1))
	assert.ErrorIs(t, err, apperrors.ErrSlotTaken)
}

func TestCreateBooking_BoundaryTouchAllowed(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	// Существующий сеанс 09:00-10:00, новый начинается ровно в 10:00.
	existing := activeOrder(1, mustDate(t, "2026-09-15"), "09:00", 60)
	existing.ID = 50
	f.orderRepo.orders[50] = existing

	orders, err := f.svc.CreateBooking(context.Background(), bookingRequest(1))
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCreateBooking_OverlapFromBothSides(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	// 09:30-10:30 пересекает запрошенное окно 10:00-11:00 с левой стороны.
	existing := activeOrder(1, mustDate(t, "2026-09-15"), "09:30", 60)
	existing.ID = 50
	f.orderRepo.orders[50] = existing

	_, err := f.svc.CreateBooking(context.Background(), bookingRequest(1))
	assert.ErrorIs(t, err, apperrors.ErrSlotTaken)
}

func TestCreateBooking_MultiMasterSharesGroup(t *testing.T) {
	f := newBookingFixture(
		testMaster(1, "08:00", "22:00"),
		testMaster(2, "08:00", "22:00"),
	)

	orders, err := f.svc.CreateBooking(context.Background(), bookingRequest(2, 1))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	require.True(t, orders[0].BookingGroupID.Valid)
	assert.Equal(t, orders[0].BookingGroupID.String, orders[1].BookingGroupID.String)
	assert.NotEqual(t, orders[0].MasterID, orders[1].MasterID)
}

func TestCreateBooking_MultiMasterAtomic(t *testing.T) {
	f := newBookingFixture(
		testMaster(1, "08:00", "22:00"),
		testMaster(2, "08:00", "22:00"),
	)

	// Второй мастер занят: не должен создаться ни один заказ группы.
	existing := activeOrder(2, mustDate(t, "2026-09-15"), "10:00", 60)
	existing.ID = 50
	f.orderRepo.orders[50] = existing

	_, err := f.svc.CreateBooking(context.Background(), bookingRequest(1, 2))
	require.ErrorIs(t, err, apperrors.ErrSlotTaken)

	for id, o := range f.orderRepo.orders {
		if id == 50 {
			continue
		}
		t.Fatalf("неожиданный заказ %d (%s)", id, o.OrderNumber)
	}
}

func TestCreateBooking_LockBusy(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	key := bookingLockKey(1, mustDate(t, "2026-09-15"))
	ok, err := f.lockRepo.Acquire(context.Background(), key, bookingLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.CreateBooking(context.Background(), bookingRequest(1))
	assert.ErrorIs(t, err, apperrors.ErrBookingLockBusy)
}

func TestCreateBooking_DateInPast(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	req := bookingRequest(1)
	req.Date = "2026-08-20"
	_, err := f.svc.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrDateInPast)
}

func TestCreateBooking_OffGridStart(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	req := bookingRequest(1)
	req.StartTime = "10:15"
	_, err := f.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrSlotTaken)
}

func TestCreateBooking_OutsideShift(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	req := bookingRequest(1)
	req.StartTime = "21:30"
	_, err := f.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
}

func TestCreateBooking_UnsupportedPressure(t *testing.T) {
	master := testMaster(1, "08:00", "22:00")
	master.PressureLevels = []string{constants.PressureSoft}
	f := newBookingFixture(master)

	req := bookingRequest(1)
	req.PressureLevel = constants.PressureHard
	_, err := f.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
}

func TestCreateBooking_OrderNumbersRestartEachDay(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	first, err := f.svc.CreateBooking(context.Background(), bookingRequest(1))
	require.NoError(t, err)

	next := bookingRequest(1)
	next.Date = "2026-09-16"
	second, err := f.svc.CreateBooking(context.Background(), next)
	require.NoError(t, err)

	assert.Equal(t, "HM-20260915-0001", first[0].OrderNumber)
	assert.Equal(t, "HM-20260916-0001", second[0].OrderNumber)
}

func TestReschedule_MovesOrder(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	order := activeOrder(1, mustDate(t, "2026-09-15"), "10:00", 60)
	order.ID = 1
	order.Status = constants.OrderStatusConfirming
	f.orderRepo.orders[1] = order

	updated, err := f.svc.Reschedule(context.Background(), 1, dto.RescheduleDTO{
		Date:      "2026-09-16",
		StartTime: "14:00",
	}, nil, constants.ActorDispatcher)
	require.NoError(t, err)

	assert.Equal(t, "2026-09-16", updated.BookingDate)
	assert.Equal(t, "14:00", updated.ArrivalWindowStart)
	assert.Equal(t, "14:30", updated.ArrivalWindowEnd)

	// Перенос фиксируется в журнале без смены статуса.
	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, f.logRepo.entries[0].OldStatus, f.logRepo.entries[0].NewStatus)
	assert.True(t, f.logRepo.entries[0].Comment.Valid)
}

func TestReschedule_IgnoresOwnWindow(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	// Перенос в пределах того же дня на время, пересекающееся со старым
	// окном самого заказа, конфликтом не считается.
	order := activeOrder(1, mustDate(t, "2026-09-15"), "10:00", 60)
	order.ID = 1
	order.Status = constants.OrderStatusConfirmed
	f.orderRepo.orders[1] = order

	_, err := f.svc.Reschedule(context.Background(), 1, dto.RescheduleDTO{
		Date:      "2026-09-15",
		StartTime: "10:30",
	}, nil, constants.ActorDispatcher)
	assert.NoError(t, err)
}

func TestReschedule_TargetSlotTaken(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	order := activeOrder(1, mustDate(t, "2026-09-15"), "10:00", 60)
	order.ID = 1
	order.Status = constants.OrderStatusConfirmed
	other := activeOrder(1, mustDate(t, "2026-09-15"), "14:00", 60)
	other.ID = 2
	f.orderRepo.orders[1] = order
	f.orderRepo.orders[2] = other

	_, err := f.svc.Reschedule(context.Background(), 1, dto.RescheduleDTO{
		Date:      "2026-09-15",
		StartTime: "14:00",
	}, nil, constants.ActorDispatcher)
	assert.ErrorIs(t, err, apperrors.ErrSlotTaken)
}

func TestReschedule_DateInPast(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	order := activeOrder(1, mustDate(t, "2026-09-15"), "10:00", 60)
	order.ID = 1
	f.orderRepo.orders[1] = order

	_, err := f.svc.Reschedule(context.Background(), 1, dto.RescheduleDTO{
		Date:      "2026-08-20",
		StartTime: "14:00",
	}, nil, constants.ActorDispatcher)
	assert.ErrorIs(t, err, apperrors.ErrDateInPast)
}

func TestReschedule_LockBusy(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	order := activeOrder(1, mustDate(t, "2026-09-15"), "10:00", 60)
	order.ID = 1
	f.orderRepo.orders[1] = order

	key := bookingLockKey(1, mustDate(t, "2026-09-16"))
	ok, err := f.lockRepo.Acquire(context.Background(), key, bookingLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Reschedule(context.Background(), 1, dto.RescheduleDTO{
		Date:      "2026-09-16",
		StartTime: "14:00",
	}, nil, constants.ActorDispatcher)
	assert.ErrorIs(t, err, apperrors.ErrBookingLockBusy)
}

func TestReschedule_InProgressRejected(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	order := activeOrder(1, mustDate(t, "2026-09-15"), "10:00", 60)
	order.ID = 1
	order.Status = constants.OrderStatusInProgress
	f.orderRepo.orders[1] = order

	_, err := f.svc.Reschedule(context.Background(), 1, dto.RescheduleDTO{
		Date:      "2026-09-16",
		StartTime: "14:00",
	}, nil, constants.ActorDispatcher)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
}

func TestCreateBooking_ConcurrentOneWins(t *testing.T) {
	f := newBookingFixture(testMaster(1, "08:00", "22:00"))

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateBooking(context.Background(), bookingRequest(1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			rejected++
		}
	}
	// Ровно одно бронирование проходит, остальные отбиты замком или
	// повторной проверкой занятости.
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
}
