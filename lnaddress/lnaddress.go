package lnaddress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error wraps every failure of the LNURL-pay resolution so callers can
// attribute it to the lightning address stage of a payment.
type Error struct {
	Address string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lightning address %s: %s: %v", e.Address, e.Reason, e.Err)
	}
	return fmt.Sprintf("lightning address %s: %s", e.Address, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Resolver turns a human-readable lightning address into a bolt11
// invoice for a given amount.
type Resolver interface {
	ResolveInvoice(ctx context.Context, address string, amountSats uint64, comment string) (string, error)
}

// payResponse is the LNURL-pay descriptor served under the well-known
// path (LUD-06/LUD-16).
type payResponse struct {
	Callback string `json:"callback"`
	Tag      string `json:"tag"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
}

type invoiceResponse struct {
	Payreq string `json:"pr"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type LNURLResolver struct {
	client *http.Client
}

func NewResolver() *LNURLResolver {
	return &LNURLResolver{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *LNURLResolver) ResolveInvoice(ctx context.Context, address string, amountSats uint64, comment string) (string, error) {
	user, domain, found := strings.Cut(address, "@")
	if !found || user == "" || domain == "" {
		return "", &Error{Address: address, Reason: "invalid lightning address"}
	}

	descriptor := payResponse{}
	err := r.getJSON(ctx, fmt.Sprintf("https://%s/.well-known/lnurlp/%s", domain, user), &descriptor)
	if err != nil {
		return "", &Error{Address: address, Reason: "could not fetch lnurlp descriptor", Err: err}
	}
	if descriptor.Status == "ERROR" {
		return "", &Error{Address: address, Reason: errorReason(descriptor.Reason)}
	}

	callback, err := url.Parse(descriptor.Callback)
	if err != nil {
		return "", &Error{Address: address, Reason: "invalid callback url", Err: err}
	}
	query := callback.Query()
	query.Set("amount", strconv.FormatUint(amountSats*1000, 10)) // millisatoshi
	if comment != "" {
		query.Set("comment", comment)
	}
	callback.RawQuery = query.Encode()

	invoice := invoiceResponse{}
	err = r.getJSON(ctx, callback.String(), &invoice)
	if err != nil {
		return "", &Error{Address: address, Reason: "could not generate invoice", Err: err}
	}
	if invoice.Status == "ERROR" {
		return "", &Error{Address: address, Reason: errorReason(invoice.Reason)}
	}
	if invoice.Payreq == "" {
		return "", &Error{Address: address, Reason: "callback returned no invoice"}
	}

	return invoice.Payreq, nil
}

func (r *LNURLResolver) getJSON(ctx context.Context, rawURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func errorReason(reason string) string {
	if reason == "" {
		return "lnurl endpoint reported an error"
	}
	return reason
}
