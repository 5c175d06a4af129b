package services

import (
	"context"
	"errors"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/internal/repositories"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
)

type RatingServiceInterface interface {
	SubmitRating(ctx context.Context, data dto.SubmitRatingDTO) (*entities.Rating, error)
}

// RatingService принимает двусторонние оценки по завершённым заказам и
// в той же транзакции пересчитывает кэшированный агрегат на профиле
// мастера или клиента. Агрегат всегда пересчитывается с нуля из таблицы
// ratings: инкрементальное average+1 накапливает ошибку округления.
type RatingService struct {
	txManager    repositories.TxManagerInterface
	orderRepo    repositories.OrderRepositoryInterface
	ratingRepo   repositories.RatingRepositoryInterface
	masterRepo   repositories.MasterRepositoryInterface
	customerRepo repositories.CustomerRepositoryInterface
	logger       *zap.Logger

	nowFn func() time.Time
}

func NewRatingService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	ratingRepo repositories.RatingRepositoryInterface,
	masterRepo repositories.MasterRepositoryInterface,
	customerRepo repositories.CustomerRepositoryInterface,
	logger *zap.Logger,
) *RatingService {
	return &RatingService{
		txManager:    txManager,
		orderRepo:    orderRepo,
		ratingRepo:   ratingRepo,
		masterRepo:   masterRepo,
		customerRepo: customerRepo,
		logger:       logger,
		nowFn:        time.Now,
	}
}

func (s *RatingService) SubmitRating(ctx context.Context, data dto.SubmitRatingDTO) (*entities.Rating, error) {
	order, err := s.orderRepo.FindOrder(ctx, data.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusCompleted {
		return nil, apperrors.ErrOrderNotCompleted
	}

	switch _, err := s.ratingRepo.FindByOrderAndType(ctx, data.OrderID, data.Type); {
	case err == nil:
		return nil, apperrors.ErrAlreadyRated
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	rating := entities.Rating{
		OrderID:       data.OrderID,
		Type:          data.Type,
		OverallRating: data.OverallRating,
		RatedAt:       null.TimeFrom(s.nowFn()),
	}
	if data.Professionalism > 0 {
		rating.Professionalism = null.Int64From(int64(data.Professionalism))
	}
	if data.Punctuality > 0 {
		rating.Punctuality = null.Int64From(int64(data.Punctuality))
	}
	if data.Politeness > 0 {
		rating.Politeness = null.Int64From(int64(data.Politeness))
	}
	if data.Feedback != "" {
		rating.Feedback = null.StringFrom(data.Feedback)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.ratingRepo.CreateInTx(ctx, tx, &rating)
		if err != nil {
			return err
		}
		rating.ID = id

		switch data.Type {
		case constants.RatingClientToMaster:
			average, count, err := s.ratingRepo.AggregateForMasterInTx(ctx, tx, order.MasterID)
			if err != nil {
				return err
			}
			return s.masterRepo.UpdateRatingInTx(ctx, tx, order.MasterID, average, count)
		case constants.RatingMasterToClient:
			average, count, err := s.ratingRepo.AggregateForCustomerInTx(ctx, tx, order.CustomerID)
			if err != nil {
				return err
			}
			return s.customerRepo.UpdateRatingInTx(ctx, tx, order.CustomerID, average, count)
		}
		return apperrors.NewInvalidInputError("неизвестный тип оценки: %s", data.Type)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("оценка сохранена",
		zap.Uint64("order_id", data.OrderID),
		zap.String("type", data.Type),
		zap.Int("overall", data.OverallRating),
	)
	return &rating, nil
}
