package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/elnosh/gonuts/cashu"
	"github.com/staglieno/soulhub/mint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziflex/lecho/v3"
)

const testMint = "https://mint.cubabitcoin.org"

func encodeTestToken(t *testing.T, mintURL string, amounts ...uint64) string {
	t.Helper()
	proofs := cashu.Proofs{}
	for i, amount := range amounts {
		proofs = append(proofs, cashu.Proof{
			Amount: amount,
			Id:     "009a1f293253e41e",
			Secret: fmt.Sprintf("secret-%d", i),
			C:      "02bc9097997d81afb2cc7346b5e4345a9346bd2a506eb7958598a72f0cf85163ea",
		})
	}
	token := cashu.NewToken(proofs, mintURL, "sat")
	return token.ToString()
}

type fakeResolver struct {
	amounts []uint64
	err     error
}

func (r *fakeResolver) ResolveInvoice(ctx context.Context, address string, amountSats uint64, comment string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.amounts = append(r.amounts, amountSats)
	return fmt.Sprintf("lnbc%d_invoice_%d", amountSats, len(r.amounts)), nil
}

type fakeWallet struct {
	feeReserve uint64
	quoted     []string
	melted     []cashu.Proofs
	meltPaid   bool
	meltErr    error
}

func (w *fakeWallet) MeltQuote(ctx context.Context, invoice string) (*mint.MeltQuote, error) {
	w.quoted = append(w.quoted, invoice)
	return &mint.MeltQuote{
		Quote:      fmt.Sprintf("quote-%d", len(w.quoted)),
		FeeReserve: w.feeReserve,
	}, nil
}

func (w *fakeWallet) Melt(ctx context.Context, quote string, proofs cashu.Proofs) (*mint.MeltResult, error) {
	if w.meltErr != nil {
		return nil, w.meltErr
	}
	w.melted = append(w.melted, proofs)
	return &mint.MeltResult{Paid: w.meltPaid, Preimage: "preimage"}, nil
}

func cashuTestService(resolver *fakeResolver, wallet *fakeWallet) *SoulService {
	return &SoulService{
		Config: &Config{
			AllowedMint:      testMint,
			LightningAddress: "soul@staglieno.me",
		},
		Logger:     lecho.New(io.Discard),
		Resolver:   resolver,
		MintWallet: wallet,
	}
}

func TestProcessCashuPayment(t *testing.T) {
	resolver := &fakeResolver{}
	wallet := &fakeWallet{feeReserve: 50, meltPaid: true}
	svc := cashuTestService(resolver, wallet)

	token := encodeTestToken(t, testMint, 2048, 32, 16, 4)
	result, err := svc.ProcessCashuPayment(context.Background(), token, 2100, "Ada")
	require.NoError(t, err)

	assert.Equal(t, uint64(2100), result.Amount)
	assert.Equal(t, uint64(2050), result.AmountSent)
	assert.Equal(t, uint64(50), result.Fee)
	assert.Equal(t, testMint, result.Mint)

	// one probe invoice for the full amount, one fee-adjusted final
	require.Equal(t, []uint64{2100, 2050}, resolver.amounts)
	require.Len(t, wallet.quoted, 2)
	assert.Equal(t, "quote-2", result.Quote)

	// all four proofs handed to the melt, untouched
	require.Len(t, wallet.melted, 1)
	assert.Len(t, wallet.melted[0], 4)
}

func TestProcessCashuPaymentInsufficientForFee(t *testing.T) {
	resolver := &fakeResolver{}
	wallet := &fakeWallet{feeReserve: 25, meltPaid: true}
	svc := cashuTestService(resolver, wallet)

	token := encodeTestToken(t, testMint, 16, 4, 1)
	_, err := svc.ProcessCashuPayment(context.Background(), token, 21, "Ada")

	insufficientErr := &InsufficientFundsError{}
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, uint64(25), insufficientErr.Fee)
	assert.Equal(t, uint64(26), insufficientErr.Minimum)
	assert.Contains(t, err.Error(), "26")

	// aborts after the probe, before any second invoice or melt
	assert.Equal(t, []uint64{21}, resolver.amounts)
	assert.Len(t, wallet.quoted, 1)
	assert.Empty(t, wallet.melted)
}

func TestProcessCashuPaymentWrongMint(t *testing.T) {
	resolver := &fakeResolver{}
	wallet := &fakeWallet{feeReserve: 50, meltPaid: true}
	svc := cashuTestService(resolver, wallet)

	token := encodeTestToken(t, "https://other.mint.example", 2048, 64)
	_, err := svc.ProcessCashuPayment(context.Background(), token, 2100, "Ada")

	assert.ErrorIs(t, err, mint.ErrWrongMint)
	assert.Empty(t, resolver.amounts)
	assert.Empty(t, wallet.quoted)
}

func TestProcessCashuPaymentTokenTooSmall(t *testing.T) {
	resolver := &fakeResolver{}
	wallet := &fakeWallet{feeReserve: 50, meltPaid: true}
	svc := cashuTestService(resolver, wallet)

	token := encodeTestToken(t, testMint, 1024, 512)
	_, err := svc.ProcessCashuPayment(context.Background(), token, 2100, "Ada")

	assert.ErrorIs(t, err, mint.ErrInsufficientAmount)
	assert.Empty(t, resolver.amounts)
}

func TestProcessCashuPaymentMeltNotPaid(t *testing.T) {
	resolver := &fakeResolver{}
	wallet := &fakeWallet{feeReserve: 50, meltPaid: false}
	svc := cashuTestService(resolver, wallet)

	token := encodeTestToken(t, testMint, 2048, 64)
	_, err := svc.ProcessCashuPayment(context.Background(), token, 2100, "Ada")

	assert.ErrorIs(t, err, ErrSettlementFailed)
}

func TestProcessCashuPaymentMeltError(t *testing.T) {
	resolver := &fakeResolver{}
	wallet := &fakeWallet{feeReserve: 50, meltErr: errors.New("mint unreachable")}
	svc := cashuTestService(resolver, wallet)

	token := encodeTestToken(t, testMint, 2048, 64)
	_, err := svc.ProcessCashuPayment(context.Background(), token, 2100, "Ada")

	assert.ErrorIs(t, err, ErrSettlementFailed)
	assert.Contains(t, err.Error(), "mint unreachable")
}

func TestProcessCashuPaymentResolverFailure(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("lnurl endpoint down")}
	wallet := &fakeWallet{feeReserve: 50, meltPaid: true}
	svc := cashuTestService(resolver, wallet)

	token := encodeTestToken(t, testMint, 2048, 64)
	_, err := svc.ProcessCashuPayment(context.Background(), token, 2100, "Ada")

	require.Error(t, err)
	assert.Empty(t, wallet.quoted)
}
