package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
)

type ratingFixture struct {
	svc          *RatingService
	orderRepo    *fakeOrderRepo
	ratingRepo   *fakeRatingRepo
	masterRepo   *fakeMasterRepo
	customerRepo *fakeCustomerRepo
}

func newRatingFixture(orders ...*entities.Order) *ratingFixture {
	orderRepo := newFakeOrderRepo(orders...)
	ratingRepo := newFakeRatingRepo(orderRepo)
	masterRepo := newFakeMasterRepo(testMaster(1, "08:00", "22:00"))
	customerRepo := newFakeCustomerRepo(&entities.Customer{ID: 7, FullName: "Клиент"})
	svc := NewRatingService(
		&fakeTxManager{repos: []txSnapshotter{ratingRepo}},
		orderRepo,
		ratingRepo,
		masterRepo,
		customerRepo,
		zap.NewNop(),
	)
	svc.nowFn = func() time.Time { return time.Date(2026, 9, 16, 9, 0, 0, 0, time.UTC) }
	return &ratingFixture{
		svc:          svc,
		orderRepo:    orderRepo,
		ratingRepo:   ratingRepo,
		masterRepo:   masterRepo,
		customerRepo: customerRepo,
	}
}

func completedOrder(id uint64) *entities.Order {
	o := orderInStatus(id, constants.OrderStatusCompleted)
	return o
}

func ratingRequest(orderID uint64, overall int) dto.SubmitRatingDTO {
	return dto.SubmitRatingDTO{
		OrderID:       orderID,
		Type:          constants.RatingClientToMaster,
		OverallRating: overall,
	}
}

func TestSubmitRating_RecalculatesMasterAggregate(t *testing.T) {
	f := newRatingFixture(completedOrder(1), completedOrder(2), completedOrder(3))

	for orderID, overall := range map[uint64]int{1: 5, 2: 3, 3: 4} {
		rating, err := f.svc.SubmitRating(context.Background(), ratingRequest(orderID, overall))
		require.NoError(t, err)
		assert.True(t, rating.RatedAt.Valid)
	}

	require.NotNil(t, f.masterRepo.ratings[1])
	assert.InDelta(t, 4.0, *f.masterRepo.ratings[1], 0.0001)
	assert.Equal(t, 3, f.masterRepo.counts[1])
}

func TestSubmitRating_MasterToClientUpdatesCustomer(t *testing.T) {
	f := newRatingFixture(completedOrder(1))

	req := ratingRequest(1, 5)
	req.Type = constants.RatingMasterToClient
	req.Punctuality = 4
	req.Feedback = "пунктуальный клиент"

	rating, err := f.svc.SubmitRating(context.Background(), req)
	require.NoError(t, err)
	require.True(t, rating.Punctuality.Valid)
	assert.Equal(t, int64(4), rating.Punctuality.Int64)
	assert.False(t, rating.Professionalism.Valid)

	require.NotNil(t, f.customerRepo.ratings[7])
	assert.InDelta(t, 5.0, *f.customerRepo.ratings[7], 0.0001)
	assert.Equal(t, 1, f.customerRepo.counts[7])
}

func TestSubmitRating_OrderNotCompleted(t *testing.T) {
	f := newRatingFixture(orderInStatus(1, constants.OrderStatusInProgress))

	_, err := f.svc.SubmitRating(context.Background(), ratingRequest(1, 5))
	assert.ErrorIs(t, err, apperrors.ErrOrderNotCompleted)
}

func TestSubmitRating_DuplicateRejected(t *testing.T) {
	f := newRatingFixture(completedOrder(1))

	_, err := f.svc.SubmitRating(context.Background(), ratingRequest(1, 5))
	require.NoError(t, err)

	_, err = f.svc.SubmitRating(context.Background(), ratingRequest(1, 4))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRated)

	// Обратное направление по тому же заказу — отдельная оценка.
	req := ratingRequest(1, 5)
	req.Type = constants.RatingMasterToClient
	_, err = f.svc.SubmitRating(context.Background(), req)
	assert.NoError(t, err)
}

func TestSubmitRating_UnknownOrder(t *testing.T) {
	f := newRatingFixture()

	_, err := f.svc.SubmitRating(context.Background(), ratingRequest(42, 5))
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}
