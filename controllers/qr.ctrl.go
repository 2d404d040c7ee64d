package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/staglieno/soulhub/lib/responses"
	"github.com/staglieno/soulhub/lib/service"
)

const qrSize = 250

// QrController renders an invoice as a scannable PNG.
type QrController struct {
	svc *service.SoulService
}

func NewQrController(svc *service.SoulService) *QrController {
	return &QrController{svc: svc}
}

func (controller *QrController) InvoiceQr(c echo.Context) error {
	rHash := c.Param("payment_hash")
	invoice, err := controller.svc.FindInvoiceByPaymentHash(c.Request().Context(), rHash)
	if err != nil {
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	}

	// uppercase bolt11 encodes in the smaller alphanumeric QR mode
	png, err := qrcode.Encode(strings.ToUpper(invoice.PaymentRequest), qrcode.Medium, qrSize)
	if err != nil {
		c.Logger().Errorf("QR generation failed payment_hash:%s error: %v", rHash, err)
		return err
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
