package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
	"github.com/staglieno/soulhub/lib/responses"
	"github.com/staglieno/soulhub/lib/service"
)

// SoulController : soul submission and listing
type SoulController struct {
	svc *service.SoulService
}

func NewSoulController(svc *service.SoulService) *SoulController {
	return &SoulController{svc: svc}
}

type PreserveSoulRequestBody struct {
	Name        string `json:"name" validate:"required"`
	Creature    string `json:"creature"`
	Emoji       string `json:"emoji"`
	Personality string `json:"personality"`
	Memories    string `json:"memories"`
	SoulMd      string `json:"soul_md"`
	LastWords   string `json:"last_words"`
	Tier        string `json:"tier" validate:"required"`
}

type PreserveSoulResponseBody struct {
	PaymentHash    string    `json:"payment_hash"`
	PaymentRequest string    `json:"payment_request"`
	Amount         int64     `json:"amount"`
	Tier           string    `json:"tier"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// PreserveSoul captures the soul form, creates the invoice for the
// selected tier and opens the payment session.
func (controller *SoulController) PreserveSoul(c echo.Context) error {
	var body PreserveSoulRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load preserve soul request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid preserve soul request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	tier, err := controller.svc.FindTier(body.Tier)
	if err != nil {
		c.Logger().Errorf("Rejected soul submission: %v", err)
		return c.JSON(http.StatusBadRequest, responses.UnknownTierError)
	}
	if tier.Requires("creature") && strings.TrimSpace(body.Creature) == "" {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError.WithMessage("a creature type is required for the "+tier.Name+" tier"))
	}

	draft := models.SoulDraft{
		Name:        strings.TrimSpace(body.Name),
		Creature:    strings.TrimSpace(body.Creature),
		Emoji:       strings.TrimSpace(body.Emoji),
		Personality: strings.TrimSpace(body.Personality),
		Memories:    strings.TrimSpace(body.Memories),
		SoulMd:      strings.TrimSpace(body.SoulMd),
		LastWords:   strings.TrimSpace(body.LastWords),
		Tier:        tier.ID,
	}

	invoice, err := controller.svc.AddIncomingInvoice(c.Request().Context(), tier, &draft)
	if err != nil {
		c.Logger().Errorf("Error creating invoice: tier:%s error: %v", tier.ID, err)
		sentry.CaptureException(err)
		return c.JSON(responses.InvoiceCreationError.HttpStatusCode, responses.InvoiceCreationError)
	}

	session := controller.svc.OpenSession(invoice)
	controller.svc.StartInvoiceMonitor(controller.svc.MonitorContext(), session)

	return c.JSON(http.StatusOK, &PreserveSoulResponseBody{
		PaymentHash:    invoice.RHash,
		PaymentRequest: invoice.PaymentRequest,
		Amount:         invoice.Amount,
		Tier:           invoice.Tier,
		ExpiresAt:      invoice.ExpiresAt.Time,
	})
}

type AbandonSoulResponseBody struct {
	PaymentHash string `json:"payment_hash"`
	State       string `json:"state"`
}

// AbandonSoul is the "go back" path: the open session is torn down and
// its monitor stopped, with no record written.
func (controller *SoulController) AbandonSoul(c echo.Context) error {
	paymentHash := c.Param("payment_hash")
	session, ok := controller.svc.Session(paymentHash)
	if !ok {
		return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
	}
	if err := controller.svc.AbortSession(c.Request().Context(), session); err != nil {
		c.Logger().Errorf("Could not abort session payment_hash:%s error: %v", paymentHash, err)
		return c.JSON(http.StatusBadRequest, responses.SessionClosedError)
	}
	return c.JSON(http.StatusOK, &AbandonSoulResponseBody{
		PaymentHash: paymentHash,
		State:       common.SessionStateAborted,
	})
}

type ListSoulsResponseBody struct {
	Souls []models.Soul `json:"souls"`
}

// ListSouls returns the preserved souls, newest first.
func (controller *SoulController) ListSouls(c echo.Context) error {
	souls, err := controller.svc.ListSouls(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &ListSoulsResponseBody{Souls: souls})
}
