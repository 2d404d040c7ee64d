package mint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elnosh/gonuts/cashu"
)

// MeltQuote is the mint's price for paying a bolt11 invoice out of
// proofs. The fee reserve is only known once a quote exists.
type MeltQuote struct {
	Quote      string `json:"quote"`
	Amount     uint64 `json:"amount"`
	FeeReserve uint64 `json:"fee_reserve"`
	Paid       bool   `json:"paid"`
	Expiry     int64  `json:"expiry"`
}

// MeltResult is the mint's response to executing a melt. Change holds
// blinded signatures for any overpaid fee reserve.
type MeltResult struct {
	Paid     bool                    `json:"paid"`
	Preimage string                  `json:"payment_preimage"`
	Change   cashu.BlindedSignatures `json:"change,omitempty"`
}

// MeltingWallet is the mint capability the payment orchestrator
// consumes: price a melt, then execute it with a set of proofs. The
// proofs are consumed by the mint on a successful melt and must not
// be reused.
type MeltingWallet interface {
	MeltQuote(ctx context.Context, invoice string) (*MeltQuote, error)
	Melt(ctx context.Context, quote string, proofs cashu.Proofs) (*MeltResult, error)
}

// Client talks to a cashu mint's bolt11 melt endpoints (NUT-05). The
// token cryptography itself lives in the mint and the gonuts types;
// this client only moves proofs it was handed.
type Client struct {
	mintURL string
	client  *http.Client
}

func NewClient(mintURL string) *Client {
	return &Client{
		mintURL: strings.TrimSuffix(mintURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

const unitSat = "sat"

type meltQuoteRequestBody struct {
	Request string `json:"request"`
	Unit    string `json:"unit"`
}

type meltRequestBody struct {
	Quote  string       `json:"quote"`
	Inputs cashu.Proofs `json:"inputs"`
}

func (c *Client) MeltQuote(ctx context.Context, invoice string) (*MeltQuote, error) {
	quote := MeltQuote{}
	err := c.postJSON(ctx, "/v1/melt/quote/bolt11", &meltQuoteRequestBody{
		Request: invoice,
		Unit:    unitSat,
	}, &quote)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *Client) Melt(ctx context.Context, quote string, proofs cashu.Proofs) (*MeltResult, error) {
	result := MeltResult{}
	err := c.postJSON(ctx, "/v1/melt/bolt11", &meltRequestBody{
		Quote:  quote,
		Inputs: proofs,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, target interface{}) error {
	payload := new(bytes.Buffer)
	if err := json.NewEncoder(payload).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.mintURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mint returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
