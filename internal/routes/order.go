package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/controllers"
	"homemassage/internal/services"
)

func runOrderRouter(
	public *echo.Group,
	secure *echo.Group,
	bookingService services.BookingServiceInterface,
	statusService services.OrderStatusServiceInterface,
	logger *zap.Logger,
) {
	ctrl := controllers.NewOrderController(bookingService, statusService, logger)

	// Клиентское создание бронирования доступно без авторизации.
	public.POST("/orders", ctrl.CreateOrder)

	secure.GET("/orders", ctrl.GetOrders)
	secure.GET("/orders/:id", ctrl.FindOrder)
	secure.GET("/orders/:id/history", ctrl.GetHistory)
	secure.POST("/orders/:id/transition", ctrl.Transition)
	secure.POST("/orders/:id/reschedule", ctrl.Reschedule)
}
