package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"homemassage/internal/services"
)

// Scheduler периодически запускает промоутер статусов.
type Scheduler struct {
	promoter services.PromoterServiceInterface
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}

	// Защита от наложения проходов при медленной БД.
	runMu sync.Mutex
}

func NewScheduler(promoter services.PromoterServiceInterface, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		promoter: promoter,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновый цикл планировщика.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Запуск фонового планировщика", zap.Duration("interval", s.interval))
	go s.runLoop(ctx)
}

// Stop останавливает фоновый цикл.
func (s *Scheduler) Stop() {
	s.logger.Info("Остановка фонового планировщика")
	close(s.stopChan)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	// Первый проход сразу при старте.
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("Цикл планировщика остановлен")
			return
		case <-ctx.Done():
			s.logger.Info("Цикл планировщика отменён")
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.runMu.TryLock() {
		s.logger.Warn("Предыдущий проход планировщика ещё выполняется, пропуск")
		return
	}
	defer s.runMu.Unlock()

	if _, err := s.promoter.RunOnce(ctx); err != nil {
		s.logger.Error("Проход планировщика завершился ошибкой", zap.Error(err))
	}
}
