package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/integrations/click"
)

// ClickController — вебхук Click SHOP-API. Запросы приходят формой,
// ответ всегда HTTP 200 с кодом ошибки в теле.
type ClickController struct {
	clickService click.ServiceInterface
	logger       *zap.Logger
}

func NewClickController(clickService click.ServiceInterface, logger *zap.Logger) *ClickController {
	return &ClickController{clickService: clickService, logger: logger}
}

func (c *ClickController) Handle(ctx echo.Context) error {
	var req click.Request
	if err := ctx.Bind(&req); err != nil {
		c.logger.Warn("Click: ошибка разбора запроса", zap.Error(err))
		return ctx.JSON(http.StatusOK, click.Response{
			Error:     click.CodeBadRequest,
			ErrorNote: "Error in request from click",
		})
	}

	resp := c.clickService.Handle(ctx.Request().Context(), req)
	return ctx.JSON(http.StatusOK, resp)
}
