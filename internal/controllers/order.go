package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/services"
	"homemassage/pkg/constants"
	apperrors "homemassage/pkg/errors"
	"homemassage/pkg/utils"
)

type OrderController struct {
	bookingService services.BookingServiceInterface
	statusService  services.OrderStatusServiceInterface
	logger         *zap.Logger
}

func NewOrderController(
	bookingService services.BookingServiceInterface,
	statusService services.OrderStatusServiceInterface,
	logger *zap.Logger,
) *OrderController {
	return &OrderController{
		bookingService: bookingService,
		statusService:  statusService,
		logger:         logger,
	}
}

func (c *OrderController) CreateOrder(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data dto.CreateOrderDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	orders, err := c.bookingService.CreateBooking(reqCtx, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, orders, "Бронирование успешно создано", http.StatusCreated)
}

func (c *OrderController) GetOrders(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var filter dto.OrderListFilterDTO
	if err := ctx.Bind(&filter); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&filter); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	orders, total, err := c.statusService.GetOrders(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]interface{}{
		"list":  orders,
		"total": total,
	}, "Список заказов получен", http.StatusOK)
}

func (c *OrderController) FindOrder(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	order, err := c.statusService.GetOrder(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ найден", http.StatusOK)
}

func (c *OrderController) GetHistory(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	history, err := c.statusService.GetHistory(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, history, "История заказа получена", http.StatusOK)
}

// Transition выполняет ручной переход статуса диспетчером или мастером.
func (c *OrderController) Transition(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.TransitionDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var actorID *int64
	actorType := constants.ActorDispatcher
	if userID, err := utils.GetUserIDFromCtx(reqCtx); err == nil {
		actorID = &userID
	}
	if role, err := utils.GetUserRoleFromCtx(reqCtx); err == nil && role != "" {
		actorType = role
	}

	order, err := c.statusService.Transition(reqCtx, id, data, actorID, actorType)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Статус заказа изменён", http.StatusOK)
}

// Reschedule переносит заказ на другую дату/время (итог звонка "перенести").
func (c *OrderController) Reschedule(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.RescheduleDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var actorID *int64
	actorType := constants.ActorDispatcher
	if userID, err := utils.GetUserIDFromCtx(reqCtx); err == nil {
		actorID = &userID
	}
	if role, err := utils.GetUserRoleFromCtx(reqCtx); err == nil && role != "" {
		actorType = role
	}

	order, err := c.bookingService.Reschedule(reqCtx, id, data, actorID, actorType)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ перенесён", http.StatusOK)
}

func parseIDParam(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный ID",
			err,
			map[string]interface{}{"param": ctx.Param("id")},
		)
	}
	return id, nil
}
