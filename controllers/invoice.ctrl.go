package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/lib/responses"
	"github.com/staglieno/soulhub/lib/service"
)

// InvoiceController : invoice status for client polling
type InvoiceController struct {
	svc *service.SoulService
}

func NewInvoiceController(svc *service.SoulService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

type InvoiceResponseBody struct {
	PaymentHash    string    `json:"payment_hash"`
	PaymentRequest string    `json:"payment_request"`
	Amount         int64     `json:"amount"`
	Tier           string    `json:"tier"`
	State          string    `json:"state"`
	IsPaid         bool      `json:"is_paid"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	SettledAt      time.Time `json:"settled_at,omitempty"`
}

func (controller *InvoiceController) GetInvoice(c echo.Context) error {
	rHash := c.Param("payment_hash")
	invoice, err := controller.svc.FindInvoiceByPaymentHash(c.Request().Context(), rHash)
	if err != nil {
		c.Logger().Errorf("Invalid invoice status request payment_hash:%s", rHash)
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	}

	return c.JSON(http.StatusOK, &InvoiceResponseBody{
		PaymentHash:    invoice.RHash,
		PaymentRequest: invoice.PaymentRequest,
		Amount:         invoice.Amount,
		Tier:           invoice.Tier,
		State:          invoice.State,
		IsPaid:         invoice.State == common.InvoiceStateSettled,
		CreatedAt:      invoice.CreatedAt,
		ExpiresAt:      invoice.ExpiresAt.Time,
		SettledAt:      invoice.SettledAt.Time,
	})
}
