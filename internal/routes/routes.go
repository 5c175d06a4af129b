package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/integrations/click"
	"homemassage/internal/integrations/payme"
	"homemassage/internal/listeners"
	"homemassage/internal/repositories"
	"homemassage/internal/services"
	"homemassage/pkg/config"
	"homemassage/pkg/eventbus"
	"homemassage/pkg/middleware"
	"homemassage/pkg/service"
	"homemassage/pkg/telegram"
)

// InitRouter собирает все зависимости и маршруты приложения.
// Возвращает промоутер статусов: его периодический запуск подключает
// планировщик на уровне приложения.
func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	bus *eventbus.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) services.PromoterServiceInterface {
	logger.Info("InitRouter: создание маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	txManager := repositories.NewTxManager(dbConn)

	// --- РЕПОЗИТОРИИ ---
	masterRepo := repositories.NewMasterRepository(dbConn)
	customerRepo := repositories.NewCustomerRepository(dbConn)
	orderRepo := repositories.NewOrderRepository(dbConn)
	logRepo := repositories.NewOrderStatusLogRepository(dbConn)
	blockedRepo := repositories.NewBlockedTimeRepository(dbConn)
	dictRepo := repositories.NewDictionaryRepository(dbConn)
	paymentRepo := repositories.NewPaymentRepository(dbConn)
	ratingRepo := repositories.NewRatingRepository(dbConn)
	runRepo := repositories.NewSchedulerRunRepository(dbConn)
	lockRepo := repositories.NewRedisLockRepository(redisClient)

	// --- СЕРВИСЫ ---
	availabilityService := services.NewAvailabilityService(
		masterRepo, orderRepo, blockedRepo, dictRepo,
		cfg.Location, cfg.Booking.LeadTimeMinutes, logger,
	)
	bookingService := services.NewBookingService(
		txManager, orderRepo, logRepo, masterRepo, customerRepo,
		blockedRepo, dictRepo, lockRepo, bus, cfg.Location, logger,
	)
	statusService := services.NewOrderStatusService(txManager, orderRepo, logRepo, bus, logger)
	promoterService := services.NewPromoterService(txManager, orderRepo, runRepo, statusService, cfg.Location, logger)
	ratingService := services.NewRatingService(txManager, orderRepo, ratingRepo, masterRepo, customerRepo, logger)
	blockedTimeService := services.NewBlockedTimeService(blockedRepo, masterRepo, cfg.Location, logger)
	paymeService := payme.NewService(txManager, paymentRepo, orderRepo, bus, logger)
	clickService := click.NewService(cfg.Click, txManager, paymentRepo, orderRepo, bus, logger)

	// --- СЛУШАТЕЛИ СОБЫТИЙ ---
	telegramService := telegram.NewService(cfg.Telegram.BotToken)
	notificationListener := listeners.NewNotificationListener(telegramService, cfg.Telegram, logger)
	notificationListener.Register(bus)

	// --- РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runSlotRouter(api, availabilityService, logger)
	runOrderRouter(api, secureGroup, bookingService, statusService, logger)
	runBlockedTimeRouter(secureGroup, blockedTimeService, logger)
	runRatingRouter(api, ratingService, logger)
	runPaymentRouter(api, paymeService, clickService, cfg, logger)
	runReportRouter(secureGroup, statusService, logger)

	logger.Info("InitRouter: маршруты созданы")
	return promoterService
}
