package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"homemassage/internal/controllers"
	"homemassage/internal/integrations/click"
	"homemassage/internal/integrations/payme"
	"homemassage/pkg/config"
)

// Вебхуки платёжных провайдеров. Авторизация протокольная
// (Basic у Payme, подпись у Click), JWT-мидлварь здесь не нужна.
func runPaymentRouter(
	g *echo.Group,
	paymeService payme.ServiceInterface,
	clickService click.ServiceInterface,
	cfg *config.Config,
	logger *zap.Logger,
) {
	paymeCtrl := controllers.NewPaymeController(paymeService, cfg.Payme, logger)
	clickCtrl := controllers.NewClickController(clickService, logger)

	g.POST("/payments/payme", paymeCtrl.Handle)
	g.POST("/payments/click", clickCtrl.Handle)
}
