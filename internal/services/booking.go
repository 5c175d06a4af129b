package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/internal/events"
	"homemassage/internal/repositories"
	"homemassage/pkg/constants"
	"homemassage/pkg/eventbus"
	apperrors "homemassage/pkg/errors"
	"homemassage/pkg/utils"
)

type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, data dto.CreateOrderDTO) ([]dto.OrderDTO, error)
	Reschedule(ctx context.Context, orderID uint64, data dto.RescheduleDTO, actorID *int64, actorType string) (*dto.OrderDTO, error)
}

// BookingService — гвард конфликтов бронирования. Повторно проверяет
// занятость выбранного окна внутри той же транзакции, что и вставка:
// наивное "посчитали слоты, потом вставили" пропускает гонку двух
// одновременных клиентов.
type BookingService struct {
	txManager    repositories.TxManagerInterface
	orderRepo    repositories.OrderRepositoryInterface
	logRepo      repositories.OrderStatusLogRepositoryInterface
	masterRepo   repositories.MasterRepositoryInterface
	customerRepo repositories.CustomerRepositoryInterface
	blockedRepo  repositories.BlockedTimeRepositoryInterface
	dictRepo     repositories.DictionaryRepositoryInterface
	lockRepo     repositories.LockRepositoryInterface
	bus          *eventbus.Bus
	loc          *time.Location
	logger       *zap.Logger

	nowFn func() time.Time
}

func NewBookingService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	logRepo repositories.OrderStatusLogRepositoryInterface,
	masterRepo repositories.MasterRepositoryInterface,
	customerRepo repositories.CustomerRepositoryInterface,
	blockedRepo repositories.BlockedTimeRepositoryInterface,
	dictRepo repositories.DictionaryRepositoryInterface,
	lockRepo repositories.LockRepositoryInterface,
	bus *eventbus.Bus,
	loc *time.Location,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		txManager:    txManager,
		orderRepo:    orderRepo,
		logRepo:      logRepo,
		masterRepo:   masterRepo,
		customerRepo: customerRepo,
		blockedRepo:  blockedRepo,
		dictRepo:     dictRepo,
		lockRepo:     lockRepo,
		bus:          bus,
		loc:          loc,
		logger:       logger,
		nowFn:        time.Now,
	}
}

const bookingLockTTL = 10 * time.Second

func bookingLockKey(masterID uint64, date time.Time) string {
	return fmt.Sprintf("booking:lock:%d:%s", masterID, date.Format(utils.DateLayout))
}

// CreateBooking создаёт один заказ или группу заказов (несколько мастеров
// по одному адресу). Группа атомарна: либо создаются все заказы, либо ни одного.
func (s *BookingService) CreateBooking(ctx context.Context, data dto.CreateOrderDTO) ([]dto.OrderDTO, error) {
	date, err := utils.ParseDate(data.Date, s.loc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("неверная дата: %s", data.Date)
	}
	startMin, err := utils.ParseMinutes(data.StartTime)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("неверное время начала: %s", data.StartTime)
	}

	now := s.nowFn().In(s.loc)
	if utils.IsDateInPast(date, now, s.loc) {
		return nil, apperrors.ErrDateInPast
	}

	option, err := s.dictRepo.FindDurationOption(ctx, data.DurationOptionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.FindCustomer(ctx, data.CustomerID); err != nil {
		return nil, err
	}

	// Стабильный порядок взятия замков, чтобы две группы с общими мастерами
	// не встали в дедлок.
	masterIDs := append([]uint64(nil), data.MasterIDs...)
	sort.Slice(masterIDs, func(i, j int) bool { return masterIDs[i] < masterIDs[j] })

	masters := make([]*entities.Master, 0, len(masterIDs))
	for _, id := range masterIDs {
		master, err := s.masterRepo.FindMaster(ctx, id)
		if err != nil {
			return nil, err
		}
		if !master.IsBookable() {
			return nil, apperrors.ErrMasterInactive
		}
		if data.PressureLevel != "" && !master.SupportsPressure(data.PressureLevel) {
			return nil, apperrors.NewInvalidInputError("мастер %d не работает с уровнем давления %q", id, data.PressureLevel)
		}
		if err := s.checkWindowFitsShift(master, startMin, option.Minutes); err != nil {
			return nil, err
		}
		masters = append(masters, master)
	}

	acquired := make([]string, 0, len(masterIDs))
	defer func() {
		for _, key := range acquired {
			if err := s.lockRepo.Release(context.Background(), key); err != nil {
				s.logger.Warn("не удалось снять замок бронирования", zap.String("key", key), zap.Error(err))
			}
		}
	}()

	for _, id := range masterIDs {
		key := bookingLockKey(id, date)
		ok, err := s.lockRepo.Acquire(ctx, key, bookingLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.ErrBookingLockBusy
		}
		acquired = append(acquired, key)
	}

	var groupID null.String
	if len(masterIDs) > 1 {
		groupID = null.StringFrom(uuid.NewString())
	}

	created := make([]entities.Order, 0, len(masterIDs))

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, master := range masters {
			// Повторная проверка занятости под блокировкой строк —
			// сердце гварда.
			existing, err := s.orderRepo.GetActiveOrdersForDateInTx(ctx, tx, master.ID, date)
			if err != nil {
				return err
			}
			if err := s.checkWindowIsFree(ctx, master.ID, date, startMin, option.Minutes, existing); err != nil {
				return err
			}

			number, err := s.orderRepo.NextOrderNumberInTx(ctx, tx, date)
			if err != nil {
				return err
			}

			order := entities.Order{
				OrderNumber:        number,
				CustomerID:         data.CustomerID,
				MasterID:           master.ID,
				ServiceTypeID:      data.ServiceTypeID,
				DurationOptionID:   null.Int64From(int64(option.ID)),
				BookingDate:        date,
				ArrivalWindowStart: utils.FormatMinutes(startMin),
				ArrivalWindowEnd:   utils.FormatMinutes(startMin + constants.ArrivalWindowMinutes),
				DurationMinutes:    option.Minutes,
				Status:             constants.OrderStatusNew,
				PaymentStatus:      constants.OrderPaymentNotPaid,
				TotalAmount:        option.Price,
				Address:            data.Address,
				BookingGroupID:     groupID,
			}
			if data.OilID > 0 {
				order.OilID = null.Int64From(int64(data.OilID))
			}

			id, err := s.orderRepo.CreateOrderInTx(ctx, tx, &order)
			if err != nil {
				return err
			}
			order.ID = id

			logEntry := entities.OrderStatusLog{
				OrderID:   id,
				ActorID:   null.Int64From(int64(data.CustomerID)),
				ActorType: constants.ActorCustomer,
				OldStatus: "",
				NewStatus: constants.OrderStatusNew,
			}
			if err := s.logRepo.AppendInTx(ctx, tx, &logEntry); err != nil {
				return err
			}

			created = append(created, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]dto.OrderDTO, 0, len(created))
	for i := range created {
		o := &created[i]
		s.bus.Publish(ctx, events.OrderCreatedEvent{Order: *o})
		result = append(result, orderToDTO(o))
	}

	s.logger.Info("бронирование создано",
		zap.String("date", data.Date),
		zap.String("start", data.StartTime),
		zap.Int("orders", len(result)),
	)
	return result, nil
}

// Reschedule переносит заказ на новую дату и время (итог звонка
// "перенести"). Новое окно проходит через тот же гвард конфликтов,
// что и создание; текущее окно самого заказа при проверке не учитывается.
func (s *BookingService) Reschedule(ctx context.Context, orderID uint64, data dto.RescheduleDTO, actorID *int64, actorType string) (*dto.OrderDTO, error) {
	date, err := utils.ParseDate(data.Date, s.loc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("неверная дата: %s", data.Date)
	}
	startMin, err := utils.ParseMinutes(data.StartTime)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("неверное время начала: %s", data.StartTime)
	}

	now := s.nowFn().In(s.loc)
	if utils.IsDateInPast(date, now, s.loc) {
		return nil, apperrors.ErrDateInPast
	}

	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Переносить можно только до выезда мастера.
	switch order.Status {
	case constants.OrderStatusNew, constants.OrderStatusConfirming, constants.OrderStatusConfirmed:
	default:
		return nil, apperrors.ErrIllegalTransition
	}

	master, err := s.masterRepo.FindMaster(ctx, order.MasterID)
	if err != nil {
		return nil, err
	}
	if !master.IsBookable() {
		return nil, apperrors.ErrMasterInactive
	}
	if err := s.checkWindowFitsShift(master, startMin, order.SessionDuration()); err != nil {
		return nil, err
	}

	key := bookingLockKey(master.ID, date)
	ok, err := s.lockRepo.Acquire(ctx, key, bookingLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrBookingLockBusy
	}
	defer func() {
		if err := s.lockRepo.Release(context.Background(), key); err != nil {
			s.logger.Warn("не удалось снять замок бронирования", zap.String("key", key), zap.Error(err))
		}
	}()

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.orderRepo.GetActiveOrdersForDateInTx(ctx, tx, master.ID, date)
		if err != nil {
			return err
		}
		others := make([]entities.Order, 0, len(existing))
		for _, o := range existing {
			if o.ID != order.ID {
				others = append(others, o)
			}
		}
		if err := s.checkWindowIsFree(ctx, master.ID, date, startMin, order.SessionDuration(), others); err != nil {
			return err
		}

		windowStart := utils.FormatMinutes(startMin)
		windowEnd := utils.FormatMinutes(startMin + constants.ArrivalWindowMinutes)
		if err := s.orderRepo.UpdateScheduleInTx(ctx, tx, order.ID, date, windowStart, windowEnd); err != nil {
			return err
		}

		logEntry := entities.OrderStatusLog{
			OrderID:   order.ID,
			ActorType: actorType,
			OldStatus: order.Status,
			NewStatus: order.Status,
			Comment:   null.StringFrom(fmt.Sprintf("перенос на %s %s", data.Date, data.StartTime)),
		}
		if actorID != nil {
			logEntry.ActorID = null.Int64From(*actorID)
		}
		if data.Comment != "" {
			logEntry.Comment = null.StringFrom(data.Comment)
		}
		if err := s.logRepo.AppendInTx(ctx, tx, &logEntry); err != nil {
			return err
		}

		order.BookingDate = date
		order.ArrivalWindowStart = windowStart
		order.ArrivalWindowEnd = windowEnd
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("заказ перенесён",
		zap.Uint64("order_id", order.ID),
		zap.String("date", data.Date),
		zap.String("start", data.StartTime),
	)
	result := orderToDTO(order)
	return &result, nil
}

func (s *BookingService) checkWindowFitsShift(master *entities.Master, startMin, durationMinutes int) error {
	shiftStart, err := utils.ParseMinutes(master.ShiftStart)
	if err != nil {
		return err
	}
	shiftEnd, err := utils.ParseMinutes(master.ShiftEnd)
	if err != nil {
		return err
	}
	if startMin < shiftStart || startMin+durationMinutes > shiftEnd {
		return apperrors.NewInvalidInputError("время %s вне смены мастера %d", utils.FormatMinutes(startMin), master.ID)
	}
	if (startMin-shiftStart)%constants.SlotStepMinutes != 0 {
		return apperrors.NewInvalidInputError("время %s не совпадает с сеткой слотов", utils.FormatMinutes(startMin))
	}
	return nil
}

func (s *BookingService) checkWindowIsFree(ctx context.Context, masterID uint64, date time.Time, startMin, durationMinutes int, existing []entities.Order) error {
	newStart := startMin
	newEnd := startMin + durationMinutes + constants.BookingBufferMinutes

	for _, o := range existing {
		if !o.IsActive() {
			continue
		}
		os, err := utils.ParseMinutes(o.ArrivalWindowStart)
		if err != nil {
			return err
		}
		oe := os + o.SessionDuration() + constants.BookingBufferMinutes
		// Строгие неравенства: сеансы встык конфликтом не считаются.
		if os < newEnd && oe > newStart {
			return apperrors.ErrSlotTaken
		}
	}

	blocks, err := s.blockedRepo.GetByMasterAndDate(ctx, masterID, date)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if b.IsFullDay() {
			return apperrors.ErrSlotTaken
		}
		bs, err := utils.ParseMinutes(b.StartTime.String)
		if err != nil {
			return err
		}
		be, err := utils.ParseMinutes(b.EndTime.String)
		if err != nil {
			return err
		}
		if bs < newEnd && be > newStart {
			return apperrors.ErrSlotTaken
		}
	}
	return nil
}

func orderToDTO(o *entities.Order) dto.OrderDTO {
	return dto.OrderDTO{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		CustomerID:         o.CustomerID,
		MasterID:           o.MasterID,
		BookingDate:        o.BookingDate.Format(utils.DateLayout),
		ArrivalWindowStart: o.ArrivalWindowStart,
		ArrivalWindowEnd:   o.ArrivalWindowEnd,
		DurationMinutes:    o.DurationMinutes,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		TotalAmount:        o.TotalAmount,
		Address:            o.Address,
		BookingGroupID:     o.BookingGroupID,
		CreatedAt:          o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
