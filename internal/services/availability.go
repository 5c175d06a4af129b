package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/internal/repositories"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
	"homemassage/pkg/utils"
)

type AvailabilityServiceInterface interface {
	ComputeSlots(ctx context.Context, query dto.SlotQueryDTO) (*dto.SlotsResponseDTO, error)
}

type AvailabilityService struct {
	masterRepo  repositories.MasterRepositoryInterface
	orderRepo   repositories.OrderRepositoryInterface
	blockedRepo repositories.BlockedTimeRepositoryInterface
	dictRepo    repositories.DictionaryRepositoryInterface
	loc         *time.Location
	leadTime    time.Duration
	logger      *zap.Logger

	// подменяется в тестах
	nowFn func() time.Time
}

func NewAvailabilityService(
	masterRepo repositories.MasterRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	blockedRepo repositories.BlockedTimeRepositoryInterface,
	dictRepo repositories.DictionaryRepositoryInterface,
	loc *time.Location,
	leadTimeMinutes int,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		masterRepo:  masterRepo,
		orderRepo:   orderRepo,
		blockedRepo: blockedRepo,
		dictRepo:    dictRepo,
		loc:         loc,
		leadTime:    time.Duration(leadTimeMinutes) * time.Minute,
		logger:      logger,
		nowFn:       time.Now,
	}
}

// ComputeSlots возвращает упорядоченный список окон прибытия, в которые
// все запрошенные мастера свободны на всю длительность сеанса.
func (s *AvailabilityService) ComputeSlots(ctx context.Context, query dto.SlotQueryDTO) (*dto.SlotsResponseDTO, error) {
	date, err := utils.ParseDate(query.Date, s.loc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("неверная дата: %s", query.Date)
	}

	// Длительность должна соответствовать активной опции — молча не округляем.
	if _, err := s.dictRepo.FindDurationOptionByMinutes(ctx, query.DurationMinutes); err != nil {
		return nil, err
	}

	now := s.nowFn().In(s.loc)

	resp := &dto.SlotsResponseDTO{
		Date:  query.Date,
		Slots: []dto.SlotDTO{},
	}

	// Дата в прошлом — пустой список, не ошибка.
	past := utils.IsDateInPast(date, now, s.loc)

	var common map[int]bool
	shiftLow, shiftHigh := 0, 24*60

	for i, masterID := range query.MasterIDs {
		master, err := s.masterRepo.FindMaster(ctx, masterID)
		if err != nil {
			return nil, err
		}
		if !master.IsBookable() {
			return nil, apperrors.ErrMasterInactive
		}

		shiftStart, err := utils.ParseMinutes(master.ShiftStart)
		if err != nil {
			return nil, err
		}
		shiftEnd, err := utils.ParseMinutes(master.ShiftEnd)
		if err != nil {
			return nil, err
		}
		if shiftStart > shiftLow {
			shiftLow = shiftStart
		}
		if shiftEnd < shiftHigh {
			shiftHigh = shiftEnd
		}

		if past {
			continue
		}

		blocks, err := s.blockedRepo.GetByMasterAndDate(ctx, masterID, date)
		if err != nil {
			return nil, err
		}
		orders, err := s.orderRepo.GetActiveOrdersForDate(ctx, masterID, date)
		if err != nil {
			return nil, err
		}

		starts, err := masterFreeStarts(master, blocks, orders, query.DurationMinutes)
		if err != nil {
			return nil, err
		}

		// Пересечение множеств стартов по всем мастерам.
		set := make(map[int]bool, len(starts))
		for _, st := range starts {
			set[st] = true
		}
		if i == 0 {
			common = set
		} else {
			for st := range common {
				if !set[st] {
					delete(common, st)
				}
			}
		}
	}

	resp.ShiftStart = utils.FormatMinutes(shiftLow)
	resp.ShiftEnd = utils.FormatMinutes(shiftHigh)

	if past {
		return resp, nil
	}

	// Сегодняшние слоты дополнительно ограничены минимальным лид-таймом.
	minStart := -1
	if utils.IsSameDay(date, now, s.loc) {
		earliest := now.Add(s.leadTime)
		minStart = earliest.Hour()*60 + earliest.Minute()
	}

	ordered := make([]int, 0, len(common))
	for st := range common {
		if st >= minStart {
			ordered = append(ordered, st)
		}
	}
	sort.Ints(ordered)

	for _, st := range ordered {
		resp.Slots = append(resp.Slots, dto.SlotDTO{
			Start: utils.FormatMinutes(st),
			End:   utils.FormatMinutes(st + constants.ArrivalWindowMinutes),
		})
	}

	s.logger.Debug("слоты рассчитаны",
		zap.String("date", query.Date),
		zap.Int("masters", len(query.MasterIDs)),
		zap.Int("slots", len(resp.Slots)),
	)
	return resp, nil
}

// interval — полуинтервал [start, end) в минутах от полуночи.
type interval struct {
	start int
	end   int
}

// masterFreeStarts строит множество допустимых стартов сеанса одного мастера:
// смена минус блокировки минус занятые заказами интервалы, перебор с шагом
// SlotStepMinutes от начала смены.
func masterFreeStarts(master *entities.Master, blocks []entities.MasterBlockedTime, orders []entities.Order, durationMinutes int) ([]int, error) {
	shiftStart, err := utils.ParseMinutes(master.ShiftStart)
	if err != nil {
		return nil, err
	}
	shiftEnd, err := utils.ParseMinutes(master.ShiftEnd)
	if err != nil {
		return nil, err
	}

	free := []interval{{start: shiftStart, end: shiftEnd}}

	for _, b := range blocks {
		if b.IsFullDay() {
			return []int{}, nil
		}
		bs, err := utils.ParseMinutes(b.StartTime.String)
		if err != nil {
			return nil, err
		}
		be, err := utils.ParseMinutes(b.EndTime.String)
		if err != nil {
			return nil, err
		}
		free = subtractInterval(free, interval{start: bs, end: be})
	}

	for _, o := range orders {
		if !o.IsActive() {
			continue
		}
		os, err := utils.ParseMinutes(o.ArrivalWindowStart)
		if err != nil {
			return nil, err
		}
		// Заказ занимает время сеанса плюс буфер между соседними сеансами.
		free = subtractInterval(free, interval{start: os, end: os + o.SessionDuration() + constants.BookingBufferMinutes})
	}

	return enumerateStarts(free, durationMinutes, shiftStart), nil
}

// subtractInterval вычитает busy из каждого свободного интервала.
// Касание границ пересечением не считается.
func subtractInterval(free []interval, busy interval) []interval {
	result := make([]interval, 0, len(free)+1)
	for _, f := range free {
		if busy.end <= f.start || busy.start >= f.end {
			result = append(result, f)
			continue
		}
		if busy.start > f.start {
			result = append(result, interval{start: f.start, end: busy.start})
		}
		if busy.end < f.end {
			result = append(result, interval{start: busy.end, end: f.end})
		}
	}
	return result
}

// enumerateStarts перечисляет старты, при которых сеанс целиком помещается
// в свободный интервал. Сетка стартов выровнена по началу смены.
func enumerateStarts(free []interval, durationMinutes, shiftStart int) []int {
	starts := make([]int, 0)
	for _, f := range free {
		// Первый старт сетки внутри интервала.
		offset := f.start - shiftStart
		if rem := offset % constants.SlotStepMinutes; rem != 0 {
			offset += constants.SlotStepMinutes - rem
		}
		for st := shiftStart + offset; st+durationMinutes <= f.end; st += constants.SlotStepMinutes {
			starts = append(starts, st)
		}
	}
	return starts
}
