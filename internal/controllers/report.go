package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"homemassage/internal/dto"
	"homemassage/internal/entities"
	"homemassage/internal/services"
	"homemassage/pkg/utils"
)

// ReportController — суточная выгрузка заказов для диспетчера в XLSX.
type ReportController struct {
	statusService services.OrderStatusServiceInterface
	logger        *zap.Logger
}

func NewReportController(statusService services.OrderStatusServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{statusService: statusService, logger: logger}
}

func (c *ReportController) GetDailyReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	date := ctx.QueryParam("date")
	if date == "" {
		date = time.Now().Format(utils.DateLayout)
	}

	filter := dto.OrderListFilterDTO{
		Date:  date,
		Limit: 10000, // выгружаем весь день целиком
	}
	orders, total, err := c.statusService.GetOrders(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if ctx.QueryParam("format") != "xlsx" {
		return utils.SuccessResponse(ctx, map[string]interface{}{
			"list":  orders,
			"total": total,
		}, "Суточный отчёт сформирован", http.StatusOK)
	}
	return c.respondWithXLSX(ctx, date, orders)
}

var reportHeaders = []string{
	"№ заказа", "Дата", "Окно прибытия", "Длительность (мин)", "Мастер",
	"Клиент", "Статус", "Оплата", "Сумма", "Адрес", "Причина отмены",
}

func orderToReportRow(o entities.Order) []interface{} {
	window := fmt.Sprintf("%s–%s", o.ArrivalWindowStart, o.ArrivalWindowEnd)
	return []interface{}{
		o.OrderNumber, o.BookingDate.Format("02.01.2006"), window, o.DurationMinutes,
		o.MasterID, o.CustomerID, o.Status, o.PaymentStatus, o.TotalAmount,
		o.Address, o.CancelReason.String,
	}
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, date string, orders []entities.Order) error {
	f := excelize.NewFile()
	sheet := "Заказы за день"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &reportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "K1", style)

	for i, order := range orders {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := orderToReportRow(order)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "C", "C", 15)
	f.SetColWidth(sheet, "J", "J", 40)
	f.SetColWidth(sheet, "K", "K", 30)

	fileName := fmt.Sprintf("orders_%s.xlsx", date)
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
