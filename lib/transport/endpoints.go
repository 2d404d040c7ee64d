package transport

import (
	"github.com/labstack/echo/v4"
	"github.com/staglieno/soulhub/controllers"
	"github.com/staglieno/soulhub/lib/service"
)

func RegisterEndpoints(svc *service.SoulService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	soulCtrl := controllers.NewSoulController(svc)
	invoiceCtrl := controllers.NewInvoiceController(svc)
	cashuCtrl := controllers.NewCashuController(svc)
	qrCtrl := controllers.NewQrController(svc)

	cacheClient := CreateCacheClient()

	e.GET("/health", controllers.NewHealthController().Check)
	e.GET("/v2/tiers", controllers.NewTiersController(svc).GetTiers, cacheClient.Middleware(), logMw)

	e.POST("/v2/souls", soulCtrl.PreserveSoul, strictRateLimitMiddleware, logMw)
	e.DELETE("/v2/souls/:payment_hash", soulCtrl.AbandonSoul, logMw)
	e.GET("/v2/souls", soulCtrl.ListSouls, logMw)

	e.GET("/v2/invoices/:payment_hash", invoiceCtrl.GetInvoice, logMw)
	e.GET("/v2/invoices/:payment_hash/qr", qrCtrl.InvoiceQr, logMw)

	// melting spends the submitted proofs, so the strict limit applies
	e.POST("/v2/payments/cashu", cashuCtrl.PayWithCashu, strictRateLimitMiddleware, logMw)
}
