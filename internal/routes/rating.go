package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/controllers"
	"homemassage/internal/services"
)

func runRatingRouter(g *echo.Group, ratingService services.RatingServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewRatingController(ratingService, logger)

	g.POST("/ratings", ctrl.SubmitRating)
}
