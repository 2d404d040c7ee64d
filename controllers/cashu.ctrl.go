package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/staglieno/soulhub/db/models"
	"github.com/staglieno/soulhub/lib/responses"
	"github.com/staglieno/soulhub/lib/service"
	"github.com/staglieno/soulhub/lnaddress"
	"github.com/staglieno/soulhub/mint"
)

// CashuController : offline token settlement
type CashuController struct {
	svc *service.SoulService
}

func NewCashuController(svc *service.SoulService) *CashuController {
	return &CashuController{svc: svc}
}

type CashuPaymentRequestBody struct {
	PaymentHash string `json:"payment_hash" validate:"required"`
	Token       string `json:"token" validate:"required"`
}

type CashuPaymentResponseBody struct {
	SoulID     string `json:"soul_id"`
	Amount     uint64 `json:"amount"`
	AmountSent uint64 `json:"amount_sent"`
	Fee        uint64 `json:"fee"`
	Mint       string `json:"mint"`
}

// PayWithCashu settles an open session with a cashu token instead of
// paying the lightning invoice. The orchestration runs under the
// session's in-flight guard so a double submit cannot melt twice.
func (controller *CashuController) PayWithCashu(c echo.Context) error {
	var body CashuPaymentRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load cashu payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid cashu payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	session, ok := controller.svc.Session(body.PaymentHash)
	if !ok {
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	}
	if err := session.Begin(); err != nil {
		if errors.Is(err, service.ErrPaymentInFlight) {
			return c.JSON(responses.PaymentInFlightError.HttpStatusCode, responses.PaymentInFlightError)
		}
		return c.JSON(responses.SessionClosedError.HttpStatusCode, responses.SessionClosedError)
	}
	defer session.End()

	ctx := c.Request().Context()
	invoice, err := controller.svc.FindInvoiceByPaymentHash(ctx, body.PaymentHash)
	if err != nil {
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	}
	draft := models.SoulDraft{}
	if err = json.Unmarshal([]byte(invoice.SoulJSON), &draft); err != nil {
		c.Logger().Errorf("Invoice without soul draft payment_hash:%s error: %v", invoice.RHash, err)
		return c.JSON(responses.GeneralServerError.HttpStatusCode, responses.GeneralServerError)
	}

	result, err := controller.svc.ProcessCashuPayment(ctx, body.Token, uint64(session.Amount), draft.Name)
	if err != nil {
		c.Logger().Errorf("Cashu payment failed payment_hash:%s error: %v", body.PaymentHash, err)
		return controller.paymentErrorResponse(c, err)
	}

	// money has moved at this point: the soul is persisted even if
	// another transition raced the session
	session.Settle()
	soul, err := controller.svc.HandleCashuSettlement(ctx, invoice, body.Token, result)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	return c.JSON(http.StatusOK, &CashuPaymentResponseBody{
		SoulID:     soul.ID,
		Amount:     result.Amount,
		AmountSent: result.AmountSent,
		Fee:        result.Fee,
		Mint:       result.Mint,
	})
}

func (controller *CashuController) paymentErrorResponse(c echo.Context, err error) error {
	var insufficientFunds *service.InsufficientFundsError
	var addressErr *lnaddress.Error
	switch {
	case errors.Is(err, mint.ErrInvalidToken):
		return c.JSON(responses.TokenDecodeError.HttpStatusCode, responses.TokenDecodeError.WithMessage(err.Error()))
	case errors.Is(err, mint.ErrWrongMint),
		errors.Is(err, mint.ErrInsufficientAmount),
		errors.Is(err, mint.ErrNoProofs):
		return c.JSON(responses.TokenVerificationError.HttpStatusCode, responses.TokenVerificationError.WithMessage(err.Error()))
	case errors.As(err, &insufficientFunds):
		return c.JSON(responses.InsufficientFundsError.HttpStatusCode, responses.InsufficientFundsError.WithMessage(err.Error()))
	case errors.As(err, &addressErr):
		return c.JSON(responses.LightningAddressError.HttpStatusCode, responses.LightningAddressError)
	case errors.Is(err, service.ErrSettlementFailed):
		return c.JSON(responses.SettlementError.HttpStatusCode, responses.SettlementError)
	default:
		sentry.CaptureException(err)
		return c.JSON(responses.GeneralServerError.HttpStatusCode, responses.GeneralServerError)
	}
}
