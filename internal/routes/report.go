package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/controllers"
	"homemassage/internal/services"
)

func runReportRouter(secure *echo.Group, statusService services.OrderStatusServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewReportController(statusService, logger)

	secure.GET("/reports/daily", ctrl.GetDailyReport)
}
