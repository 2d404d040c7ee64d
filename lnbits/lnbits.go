package lnbits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ErrNoPaymentRequest is returned when the wallet backend answered the
// create call without a usable encoded invoice.
var ErrNoPaymentRequest = errors.New("wallet backend returned no payment request")

type Config struct {
	Url           string `envconfig:"LNBITS_URL" required:"true"`
	ApiKey        string `envconfig:"LNBITS_API_KEY" required:"true"`
	InvoiceExpiry int64  `envconfig:"INVOICE_EXPIRY" default:"3600"` // seconds
	Timeout       int64  `envconfig:"LNBITS_TIMEOUT" default:"30"`   // seconds
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}

	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Client is the wallet backend boundary consumed by the service. It is
// an interface so tests can run against a stub backend.
type Client interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (*Invoice, error)
	InvoiceStatus(ctx context.Context, paymentHash string) (*InvoiceStatus, error)
	InvoiceExpiry() time.Duration
}

type Invoice struct {
	PaymentHash    string
	PaymentRequest string
	Amount         int64
	ExpiresAt      time.Time
}

type InvoiceStatus struct {
	Paid bool
}

type LNBitsWrapper struct {
	config *Config
	client *http.Client
}

func NewLNBitsClient(config *Config) *LNBitsWrapper {
	return &LNBitsWrapper{
		config: config,
		client: &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
	}
}

type createPaymentRequestBody struct {
	Out    bool   `json:"out"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
	Expiry int64  `json:"expiry"`
}

type createPaymentResponseBody struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
	Bolt11         string `json:"bolt11"`
}

type paymentStatusResponseBody struct {
	Paid bool `json:"paid"`
}

func (wrapper *LNBitsWrapper) CreateInvoice(ctx context.Context, amountSats int64, memo string) (*Invoice, error) {
	body := createPaymentRequestBody{
		Out:    false,
		Amount: amountSats,
		Memo:   memo,
		Expiry: wrapper.config.InvoiceExpiry,
	}
	payload := new(bytes.Buffer)
	if err := json.NewEncoder(payload).Encode(&body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wrapper.config.Url+"/api/v1/payments", payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", wrapper.config.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := wrapper.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wallet backend returned status %d", resp.StatusCode)
	}

	responseBody := createPaymentResponseBody{}
	if err = json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return nil, err
	}

	// older backends use bolt11 instead of payment_request
	paymentRequest := responseBody.PaymentRequest
	if paymentRequest == "" {
		paymentRequest = responseBody.Bolt11
	}
	if paymentRequest == "" {
		return nil, ErrNoPaymentRequest
	}

	return &Invoice{
		PaymentHash:    responseBody.PaymentHash,
		PaymentRequest: paymentRequest,
		Amount:         amountSats,
		ExpiresAt:      time.Now().Add(wrapper.InvoiceExpiry()),
	}, nil
}

func (wrapper *LNBitsWrapper) InvoiceStatus(ctx context.Context, paymentHash string) (*InvoiceStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wrapper.config.Url+"/api/v1/payments/"+paymentHash, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", wrapper.config.ApiKey)

	resp, err := wrapper.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wallet backend returned status %d", resp.StatusCode)
	}

	responseBody := paymentStatusResponseBody{}
	if err = json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return nil, err
	}
	return &InvoiceStatus{Paid: responseBody.Paid}, nil
}

func (wrapper *LNBitsWrapper) InvoiceExpiry() time.Duration {
	return time.Duration(wrapper.config.InvoiceExpiry) * time.Second
}
