package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/controllers"
	"homemassage/internal/services"
)

func runBlockedTimeRouter(secure *echo.Group, blockedTimeService services.BlockedTimeServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewBlockedTimeController(blockedTimeService, logger)

	secure.POST("/blocked-times", ctrl.Create)
	secure.GET("/blocked-times", ctrl.List)
	secure.DELETE("/blocked-times/:id", ctrl.Delete)
}
