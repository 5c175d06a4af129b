package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/services"
	"homemassage/pkg/utils"
)

type RatingController struct {
	ratingService services.RatingServiceInterface
	logger        *zap.Logger
}

func NewRatingController(ratingService services.RatingServiceInterface, logger *zap.Logger) *RatingController {
	return &RatingController{ratingService: ratingService, logger: logger}
}

func (c *RatingController) SubmitRating(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data dto.SubmitRatingDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	rating, err := c.ratingService.SubmitRating(reqCtx, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, rating, "Оценка сохранена", http.StatusCreated)
}
