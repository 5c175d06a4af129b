package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/controllers"
	"homemassage/internal/services"
)

func runSlotRouter(g *echo.Group, availabilityService services.AvailabilityServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewSlotController(availabilityService, logger)

	g.GET("/slots", ctrl.GetSlots)
}
