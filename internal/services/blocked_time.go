package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/internal/repositories"
	apperrors "homemassage/pkg/errors"
	"homemassage/pkg/utils"
)

type BlockedTimeServiceInterface interface {
	Create(ctx context.Context, data dto.CreateBlockedTimeDTO) (*entities.MasterBlockedTime, error)
	List(ctx context.Context, masterID uint64, date string) ([]entities.MasterBlockedTime, error)
	Delete(ctx context.Context, id uint64) error
}

// BlockedTimeService — административные блокировки времени мастеров
// (обед, выезд, отпуск). Блокировки вычитаются из сетки слотов.
type BlockedTimeService struct {
	blockedRepo repositories.BlockedTimeRepositoryInterface
	masterRepo  repositories.MasterRepositoryInterface
	loc         *time.Location
	logger      *zap.Logger
}

func NewBlockedTimeService(
	blockedRepo repositories.BlockedTimeRepositoryInterface,
	masterRepo repositories.MasterRepositoryInterface,
	loc *time.Location,
	logger *zap.Logger,
) *BlockedTimeService {
	return &BlockedTimeService{
		blockedRepo: blockedRepo,
		masterRepo:  masterRepo,
		loc:         loc,
		logger:      logger,
	}
}

func (s *BlockedTimeService) Create(ctx context.Context, data dto.CreateBlockedTimeDTO) (*entities.MasterBlockedTime, error) {
	if _, err := s.masterRepo.FindMaster(ctx, data.MasterID); err != nil {
		return nil, err
	}
	date, err := utils.ParseDate(data.Date, s.loc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("неверная дата: %s", data.Date)
	}

	// Частичная блокировка задаётся только парой start/end.
	if (data.StartTime == "") != (data.EndTime == "") {
		return nil, apperrors.NewInvalidInputError("start_time и end_time задаются вместе")
	}
	if data.StartTime != "" {
		start, err := utils.ParseMinutes(data.StartTime)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("неверное время начала: %s", data.StartTime)
		}
		end, err := utils.ParseMinutes(data.EndTime)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("неверное время конца: %s", data.EndTime)
		}
		if end <= start {
			return nil, apperrors.NewInvalidInputError("конец блокировки должен быть позже начала")
		}
	}

	block := entities.MasterBlockedTime{
		MasterID:  data.MasterID,
		BlockDate: date,
	}
	if data.StartTime != "" {
		block.StartTime = null.StringFrom(data.StartTime)
		block.EndTime = null.StringFrom(data.EndTime)
	}
	if data.Reason != "" {
		block.Reason = null.StringFrom(data.Reason)
	}

	id, err := s.blockedRepo.Create(ctx, &block)
	if err != nil {
		return nil, err
	}
	block.ID = id

	s.logger.Info("создана блокировка времени мастера",
		zap.Uint64("master_id", data.MasterID),
		zap.String("date", data.Date),
	)
	return &block, nil
}

func (s *BlockedTimeService) List(ctx context.Context, masterID uint64, date string) ([]entities.MasterBlockedTime, error) {
	parsed, err := utils.ParseDate(date, s.loc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("неверная дата: %s", date)
	}
	return s.blockedRepo.GetByMasterAndDate(ctx, masterID, parsed)
}

func (s *BlockedTimeService) Delete(ctx context.Context, id uint64) error {
	return s.blockedRepo.Delete(ctx, id)
}
