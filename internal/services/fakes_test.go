package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
)

// Транзакции в юнит-тестах моделируются снимками состояния фейков:
// ошибка замыкания откатывает все зарегистрированные репозитории.
type txSnapshotter interface {
	snapshot() func()
}

type fakeTxManager struct {
	repos []txSnapshotter
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	restores := make([]func(), len(f.repos))
	for i, r := range f.repos {
		restores[i] = r.snapshot()
	}
	err := fn(nil)
	if err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
	return err
}

type fakeMasterRepo struct {
	mu      sync.Mutex
	masters map[uint64]*entities.Master
	ratings map[uint64]*float64
	counts  map[uint64]int
}

func newFakeMasterRepo(masters ...*entities.Master) *fakeMasterRepo {
	r := &fakeMasterRepo{
		masters: make(map[uint64]*entities.Master),
		ratings: make(map[uint64]*float64),
		counts:  make(map[uint64]int),
	}
	for _, m := range masters {
		r.masters[m.ID] = m
	}
	return r
}

func (r *fakeMasterRepo) FindMaster(ctx context.Context, id uint64) (*entities.Master, error) {
	m, ok := r.masters[id]
	if !ok {
		return nil, apperrors.ErrMasterNotFound
	}
	return m, nil
}

func (r *fakeMasterRepo) FindMastersByIDs(ctx context.Context, ids []uint64) ([]entities.Master, error) {
	out := make([]entities.Master, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.masters[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMasterRepo) UpdateRatingInTx(ctx context.Context, tx pgx.Tx, id uint64, average *float64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[id] = average
	r.counts[id] = count
	return nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uint64]*entities.Customer
	ratings   map[uint64]*float64
	counts    map[uint64]int
}

func newFakeCustomerRepo(customers ...*entities.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{
		customers: make(map[uint64]*entities.Customer),
		ratings:   make(map[uint64]*float64),
		counts:    make(map[uint64]int),
	}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) FindCustomer(ctx context.Context, id uint64) (*entities.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) UpdateRatingInTx(ctx context.Context, tx pgx.Tx, id uint64, average *float64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[id] = average
	r.counts[id] = count
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uint64]*entities.Order
	nextID uint64
	seqs   map[string]int64

	// Инъекция сбоев для негативных сценариев.
	updateStatusErrs map[uint64]error
	confirmedDueErr  error
}

func newFakeOrderRepo(orders ...*entities.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{
		orders: make(map[uint64]*entities.Order),
		seqs:   make(map[string]int64),
	}
	for _, o := range orders {
		r.orders[o.ID] = o
		if o.ID > r.nextID {
			r.nextID = o.ID
		}
	}
	return r
}

func (r *fakeOrderRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make(map[uint64]*entities.Order, len(r.orders))
	for id, o := range r.orders {
		cp := *o
		orders[id] = &cp
	}
	seqs := make(map[string]int64, len(r.seqs))
	for day, n := range r.seqs {
		seqs[day] = n
	}
	nextID := r.nextID
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.orders = orders
		r.seqs = seqs
		r.nextID = nextID
	}
}

func (r *fakeOrderRepo) CreateOrderInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *order
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	r.orders[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeOrderRepo) NextOrderNumberInTx(ctx context.Context, tx pgx.Tx, date time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := date.Format("20060102")
	r.seqs[day]++
	return fmt.Sprintf("HM-%s-%04d", day, r.seqs[day]), nil
}

func (r *fakeOrderRepo) FindOrder(ctx context.Context, id uint64) (*entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindOrderByNumber(ctx context.Context, number string) (*entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperrors.ErrOrderNotFound
}

func (r *fakeOrderRepo) FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error) {
	return r.FindOrder(ctx, id)
}

func (r *fakeOrderRepo) GetOrders(ctx context.Context, filter dto.OrderListFilterDTO) ([]entities.Order, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Order, 0)
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.MasterID != 0 && o.MasterID != filter.MasterID {
			continue
		}
		out = append(out, *o)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeOrderRepo) GetActiveOrdersForDate(ctx context.Context, masterID uint64, date time.Time) ([]entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Order, 0)
	for _, o := range r.orders {
		if o.MasterID == masterID && o.BookingDate.Equal(date) && o.Status != constants.OrderStatusCancelled {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetActiveOrdersForDateInTx(ctx context.Context, tx pgx.Tx, masterID uint64, date time.Time) ([]entities.Order, error) {
	return r.GetActiveOrdersForDate(ctx, masterID, date)
}

func (r *fakeOrderRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateStatusErrs[id]; err != nil {
		return err
	}
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) UpdateScheduleInTx(ctx context.Context, tx pgx.Tx, id uint64, date time.Time, windowStart, windowEnd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	o.BookingDate = date
	o.ArrivalWindowStart = windowStart
	o.ArrivalWindowEnd = windowEnd
	return nil
}

func (r *fakeOrderRepo) SetCallOutcomeInTx(ctx context.Context, tx pgx.Tx, id uint64, outcome string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.CallOutcome.SetValid(outcome)
	}
	return nil
}

func (r *fakeOrderRepo) MarkCancelledInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string, cancelledBy *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	o.Status = constants.OrderStatusCancelled
	o.CancelReason.SetValid(reason)
	if cancelledBy != nil {
		o.CancelledBy.SetValid(*cancelledBy)
	}
	o.CancelledAt.SetValid(time.Now())
	return nil
}

func (r *fakeOrderRepo) MarkCompletedInTx(ctx context.Context, tx pgx.Tx, id uint64, auto bool, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	o.Status = constants.OrderStatusCompleted
	o.AutoCompleted = auto
	o.CompletedAt.SetValid(completedAt)
	return nil
}

func (r *fakeOrderRepo) SetPaymentStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.PaymentStatus = paymentStatus
	}
	return nil
}

func (r *fakeOrderRepo) GetConfirmedDue(ctx context.Context, date time.Time, nowTime string) ([]entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.confirmedDueErr != nil {
		return nil, r.confirmedDueErr
	}
	out := make([]entities.Order, 0)
	for _, o := range r.orders {
		if o.Status == constants.OrderStatusConfirmed && o.BookingDate.Equal(date) && o.ArrivalWindowStart <= nowTime {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetInProgressUpTo(ctx context.Context, date time.Time) ([]entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Order, 0)
	for _, o := range r.orders {
		if o.Status == constants.OrderStatusInProgress && !o.BookingDate.After(date) {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []entities.OrderStatusLog
}

func (r *fakeLogRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]entities.OrderStatusLog, len(r.entries))
	copy(entries, r.entries)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.entries = entries
	}
}

func (r *fakeLogRepo) AppendInTx(ctx context.Context, tx pgx.Tx, entry *entities.OrderStatusLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	cp.ID = uint64(len(r.entries) + 1)
	cp.CreatedAt = time.Now()
	r.entries = append(r.entries, cp)
	return nil
}

func (r *fakeLogRepo) ListByOrder(ctx context.Context, orderID uint64) ([]entities.OrderStatusLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.OrderStatusLog, 0)
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeBlockedRepo struct {
	mu     sync.Mutex
	blocks []entities.MasterBlockedTime
	nextID uint64
}

func (r *fakeBlockedRepo) GetByMasterAndDate(ctx context.Context, masterID uint64, date time.Time) ([]entities.MasterBlockedTime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.MasterBlockedTime, 0)
	for _, b := range r.blocks {
		if b.MasterID == masterID && b.BlockDate.Equal(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBlockedRepo) Create(ctx context.Context, block *entities.MasterBlockedTime) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *block
	cp.ID = r.nextID
	r.blocks = append(r.blocks, cp)
	return cp.ID, nil
}

func (r *fakeBlockedRepo) Delete(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.blocks {
		if b.ID == id {
			r.blocks = append(r.blocks[:i], r.blocks[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type fakeDictRepo struct {
	options []entities.DurationOption
}

func newFakeDictRepo() *fakeDictRepo {
	return &fakeDictRepo{options: []entities.DurationOption{
		{ID: 1, Minutes: 60, Price: 250000, Active: true},
		{ID: 2, Minutes: 90, Price: 350000, Active: true},
		{ID: 3, Minutes: 120, Price: 450000, Active: true},
	}}
}

func (r *fakeDictRepo) FindDurationOption(ctx context.Context, id uint64) (*entities.DurationOption, error) {
	for i := range r.options {
		if r.options[i].ID == id {
			return &r.options[i], nil
		}
	}
	return nil, apperrors.ErrUnknownDuration
}

func (r *fakeDictRepo) FindDurationOptionByMinutes(ctx context.Context, minutes int) (*entities.DurationOption, error) {
	for i := range r.options {
		if r.options[i].Minutes == minutes {
			return &r.options[i], nil
		}
	}
	return nil, apperrors.ErrUnknownDuration
}

func (r *fakeDictRepo) FindServiceType(ctx context.Context, id uint64) (*entities.ServiceType, error) {
	return &entities.ServiceType{ID: id, Name: "Классический массаж", Active: true}, nil
}

// fakeLockRepo повторяет семантику SET NX.
type fakeLockRepo struct {
	mu    sync.Mutex
	locks map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locks: make(map[string]bool)}
}

func (r *fakeLockRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks[key] {
		return false, nil
	}
	r.locks[key] = true
	return true, nil
}

func (r *fakeLockRepo) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, key)
	return nil
}

type fakeRunRepo struct {
	mu       sync.Mutex
	started  int
	finished []string
}

func (r *fakeRunRepo) Start(ctx context.Context, runID string, startedAt time.Time) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return uint64(r.started), nil
}

func (r *fakeRunRepo) Finish(ctx context.Context, id uint64, status string, processed int, details []byte, errMsg *string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, status)
	return nil
}

type ratingKey struct {
	orderID uint64
	typ     string
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	ratings map[ratingKey]*entities.Rating
	orders  map[uint64]*entities.Order
	nextID  uint64
}

func newFakeRatingRepo(orderRepo *fakeOrderRepo) *fakeRatingRepo {
	return &fakeRatingRepo{
		ratings: make(map[ratingKey]*entities.Rating),
		orders:  orderRepo.orders,
	}
}

func (r *fakeRatingRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	ratings := make(map[ratingKey]*entities.Rating, len(r.ratings))
	for k, rt := range r.ratings {
		cp := *rt
		ratings[k] = &cp
	}
	nextID := r.nextID
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ratings = ratings
		r.nextID = nextID
	}
}

func (r *fakeRatingRepo) FindByOrderAndType(ctx context.Context, orderID uint64, ratingType string) (*entities.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.ratings[ratingKey{orderID, ratingType}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (r *fakeRatingRepo) CreateInTx(ctx context.Context, tx pgx.Tx, rating *entities.Rating) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *rating
	cp.ID = r.nextID
	r.ratings[ratingKey{rating.OrderID, rating.Type}] = &cp
	return cp.ID, nil
}

func (r *fakeRatingRepo) aggregate(filter func(o *entities.Order) bool, typ string) (*float64, int) {
	var sum, count int
	for key, rt := range r.ratings {
		if key.typ != typ || !rt.RatedAt.Valid {
			continue
		}
		o, ok := r.orders[key.orderID]
		if !ok || !filter(o) {
			continue
		}
		sum += rt.OverallRating
		count++
	}
	if count == 0 {
		return nil, 0
	}
	avg := float64(sum) / float64(count)
	return &avg, count
}

func (r *fakeRatingRepo) AggregateForMasterInTx(ctx context.Context, tx pgx.Tx, masterID uint64) (*float64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	avg, count := r.aggregate(func(o *entities.Order) bool { return o.MasterID == masterID }, constants.RatingClientToMaster)
	return avg, count, nil
}

func (r *fakeRatingRepo) AggregateForCustomerInTx(ctx context.Context, tx pgx.Tx, customerID uint64) (*float64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	avg, count := r.aggregate(func(o *entities.Order) bool { return o.CustomerID == customerID }, constants.RatingMasterToClient)
	return avg, count, nil
}
