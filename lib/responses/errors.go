package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var UnknownTierError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "unknown tier",
	HttpStatusCode: 400,
}

var InvoiceNotFoundError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "invoice not found",
	HttpStatusCode: 404,
}

var SessionClosedError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "payment session is no longer open",
	HttpStatusCode: 400,
}

var PaymentInFlightError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "a payment for this session is already being processed",
	HttpStatusCode: 409,
}

var TokenDecodeError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "could not decode cashu token",
	HttpStatusCode: 400,
}

var TokenVerificationError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "cashu token was rejected",
	HttpStatusCode: 400,
}

var InsufficientFundsError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "token cannot cover the mint fee",
	HttpStatusCode: 400,
}

var InvoiceCreationError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "could not create invoice. Please try again later",
	HttpStatusCode: 500,
}

var LightningAddressError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "could not resolve a lightning invoice for the receiving address",
	HttpStatusCode: 502,
}

var SettlementError = ErrorResponse{
	Error:          true,
	Code:           5,
	Message:        "mint did not complete the payment",
	HttpStatusCode: 502,
}

// WithMessage returns a copy of the response carrying a specific
// user-facing message, for errors that must name amounts.
func (e ErrorResponse) WithMessage(msg string) ErrorResponse {
	e.Message = msg
	return e
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}
