package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/services"
	apperrors "homemassage/pkg/errors"
	"homemassage/pkg/utils"
)

type BlockedTimeController struct {
	blockedTimeService services.BlockedTimeServiceInterface
	logger             *zap.Logger
}

func NewBlockedTimeController(blockedTimeService services.BlockedTimeServiceInterface, logger *zap.Logger) *BlockedTimeController {
	return &BlockedTimeController{blockedTimeService: blockedTimeService, logger: logger}
}

func (c *BlockedTimeController) Create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data dto.CreateBlockedTimeDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	block, err := c.blockedTimeService.Create(reqCtx, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, block, "Блокировка времени создана", http.StatusCreated)
}

func (c *BlockedTimeController) List(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	masterID, err := strconv.ParseUint(ctx.QueryParam("master_id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный master_id", err, nil),
			c.logger,
		)
	}

	blocks, err := c.blockedTimeService.List(reqCtx, masterID, ctx.QueryParam("date"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, blocks, "Блокировки времени получены", http.StatusOK)
}

func (c *BlockedTimeController) Delete(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.blockedTimeService.Delete(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Блокировка времени удалена", http.StatusOK)
}
