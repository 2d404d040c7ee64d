package mint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elnosh/gonuts/cashu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeltQuote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/melt/quote/bolt11", r.URL.Path)

		body := meltQuoteRequestBody{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "lnbc2100n1probe", body.Request)
		assert.Equal(t, "sat", body.Unit)

		json.NewEncoder(w).Encode(&MeltQuote{
			Quote:      "quote-id-1",
			Amount:     2100,
			FeeReserve: 50,
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	quote, err := client.MeltQuote(context.Background(), "lnbc2100n1probe")
	require.NoError(t, err)
	assert.Equal(t, "quote-id-1", quote.Quote)
	assert.Equal(t, uint64(50), quote.FeeReserve)
}

func TestMelt(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/melt/bolt11", r.URL.Path)

		body := meltRequestBody{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "quote-id-1", body.Quote)
		require.Len(t, body.Inputs, 1)
		assert.Equal(t, uint64(2100), body.Inputs[0].Amount)

		json.NewEncoder(w).Encode(&MeltResult{
			Paid:     true,
			Preimage: "00aa",
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	result, err := client.Melt(context.Background(), "quote-id-1", cashu.Proofs{
		{Amount: 2100, Id: "009a1f293253e41e", Secret: "secret", C: "02"},
	})
	require.NoError(t, err)
	assert.True(t, result.Paid)
	assert.Equal(t, "00aa", result.Preimage)
}

func TestMeltErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quote expired"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.MeltQuote(context.Background(), "lnbc1")
	assert.Error(t, err)
}
