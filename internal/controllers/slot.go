package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/services"
	"homemassage/pkg/utils"
)

type SlotController struct {
	availabilityService services.AvailabilityServiceInterface
	logger              *zap.Logger
}

func NewSlotController(availabilityService services.AvailabilityServiceInterface, logger *zap.Logger) *SlotController {
	return &SlotController{availabilityService: availabilityService, logger: logger}
}

// GetSlots возвращает доступные окна прибытия для мастера (или группы
// мастеров) на дату.
func (c *SlotController) GetSlots(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var query dto.SlotQueryDTO
	if err := ctx.Bind(&query); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&query); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.availabilityService.ComputeSlots(reqCtx, query)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Доступные слоты рассчитаны", http.StatusOK)
}
