package controllers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/integrations/payme"
	"homemassage/pkg/config"
)

// PaymeController — вебхук Payme Merchant API. Протокол JSON-RPC 2.0:
// HTTP-статус всегда 200, авторизация по Basic с паролем мерчанта.
type PaymeController struct {
	paymeService payme.ServiceInterface
	cfg          config.PaymeConfig
	logger       *zap.Logger
}

func NewPaymeController(paymeService payme.ServiceInterface, cfg config.PaymeConfig, logger *zap.Logger) *PaymeController {
	return &PaymeController{paymeService: paymeService, cfg: cfg, logger: logger}
}

func (c *PaymeController) Handle(ctx echo.Context) error {
	var req payme.Request
	if err := json.NewDecoder(ctx.Request().Body).Decode(&req); err != nil {
		return ctx.JSON(http.StatusOK, payme.Response{
			Error: &payme.Error{Code: payme.CodeParseError, Message: "ошибка разбора запроса"},
		})
	}

	if !c.authorized(ctx) {
		c.logger.Warn("Payme: неавторизованный запрос", zap.String("method", req.Method))
		return c.respond(ctx, req, nil, &payme.Error{Code: payme.CodeInvalidAuth, Message: "неверная авторизация"})
	}

	reqCtx := ctx.Request().Context()
	result, perr := c.dispatch(reqCtx, req)
	return c.respond(ctx, req, result, perr)
}

func (c *PaymeController) dispatch(reqCtx context.Context, req payme.Request) (interface{}, *payme.Error) {
	switch req.Method {
	case "CheckPerformTransaction":
		var params payme.CheckPerformParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &payme.Error{Code: payme.CodeParseError, Message: "ошибка разбора параметров"}
		}
		return c.paymeService.CheckPerformTransaction(reqCtx, params)
	case "CreateTransaction":
		var params payme.CreateTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &payme.Error{Code: payme.CodeParseError, Message: "ошибка разбора параметров"}
		}
		return c.paymeService.CreateTransaction(reqCtx, params)
	case "PerformTransaction":
		var params payme.PerformTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &payme.Error{Code: payme.CodeParseError, Message: "ошибка разбора параметров"}
		}
		return c.paymeService.PerformTransaction(reqCtx, params)
	case "CancelTransaction":
		var params payme.CancelTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &payme.Error{Code: payme.CodeParseError, Message: "ошибка разбора параметров"}
		}
		return c.paymeService.CancelTransaction(reqCtx, params)
	case "CheckTransaction":
		var params payme.CheckTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &payme.Error{Code: payme.CodeParseError, Message: "ошибка разбора параметров"}
		}
		return c.paymeService.CheckTransaction(reqCtx, params)
	case "GetStatement":
		var params payme.GetStatementParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &payme.Error{Code: payme.CodeParseError, Message: "ошибка разбора параметров"}
		}
		return c.paymeService.GetStatement(reqCtx, params)
	default:
		return nil, &payme.Error{Code: payme.CodeMethodNotFound, Message: "метод не поддерживается"}
	}
}

func (c *PaymeController) authorized(ctx echo.Context) bool {
	login, password, ok := ctx.Request().BasicAuth()
	if !ok {
		return false
	}
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(c.cfg.Login)) == 1
	keyOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.cfg.Key)) == 1
	return loginOK && keyOK
}

func (c *PaymeController) respond(ctx echo.Context, req payme.Request, result interface{}, perr *payme.Error) error {
	return ctx.JSON(http.StatusOK, payme.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   perr,
	})
}
