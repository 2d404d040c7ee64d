package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/elnosh/gonuts/cashu"
	"github.com/staglieno/soulhub/mint"
)

// ErrSettlementFailed is returned when the mint accepted the melt call
// but did not report the payment as completed.
var ErrSettlementFailed = errors.New("melt did not complete the payment")

// InsufficientFundsError : the token cannot cover the mint's fee
// reserve. Minimum names the smallest acceptable token amount.
type InsufficientFundsError struct {
	Fee     uint64
	Minimum uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("token insufficient: need at least %d sats (fee: %d sats)", e.Minimum, e.Fee)
}

// CashuPaymentResult is the accounting of a completed token
// settlement.
type CashuPaymentResult struct {
	Amount     uint64                  `json:"amount"`
	AmountSent uint64                  `json:"amount_sent"`
	Fee        uint64                  `json:"fee"`
	Mint       string                  `json:"mint"`
	Invoice    string                  `json:"invoice"`
	Quote      string                  `json:"quote"`
	Change     cashu.BlindedSignatures `json:"change,omitempty"`
}

// ProcessCashuPayment converts an offline cashu token into a lightning
// payment to the configured address. The sequence is strictly ordered
// and aborts on the first failure; nothing is retried, and the proofs
// only leave the process at the final melt.
//
// The fee is unknown until a melt quote exists, but the outgoing
// invoice must already be net of the fee before the binding quote is
// taken. So a first invoice for the full token amount is resolved
// purely to price the fee and then discarded.
func (svc *SoulService) ProcessCashuPayment(ctx context.Context, tokenStr string, amountSats uint64, soulName string) (*CashuPaymentResult, error) {
	token, err := mint.VerifyToken(tokenStr, amountSats, svc.Config.AllowedMint)
	if err != nil {
		return nil, err
	}
	svc.Logger.Infof("Verified cashu token: %d sats from %s (%d proofs)", token.Amount, token.Mint, len(token.Proofs))

	memo := "Staglieno Soul: " + soulName

	// fee discovery phase
	probeInvoice, err := svc.Resolver.ResolveInvoice(ctx, svc.Config.LightningAddress, token.Amount, memo)
	if err != nil {
		return nil, err
	}
	probeQuote, err := svc.MintWallet.MeltQuote(ctx, probeInvoice)
	if err != nil {
		return nil, err
	}
	fee := probeQuote.FeeReserve
	svc.Logger.Infof("Mint fee reserve for %d sats: %d sats", token.Amount, fee)

	if token.Amount <= fee {
		return nil, &InsufficientFundsError{Fee: fee, Minimum: fee + 1}
	}
	finalAmount := token.Amount - fee

	// settlement phase
	finalInvoice, err := svc.Resolver.ResolveInvoice(ctx, svc.Config.LightningAddress, finalAmount, memo)
	if err != nil {
		return nil, err
	}
	finalQuote, err := svc.MintWallet.MeltQuote(ctx, finalInvoice)
	if err != nil {
		return nil, err
	}

	meltResult, err := svc.MintWallet.Melt(ctx, finalQuote.Quote, token.Proofs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	if meltResult == nil || !meltResult.Paid {
		return nil, ErrSettlementFailed
	}
	svc.Logger.Infof("Melt completed: sent %d sats of %d (fee %d)", finalAmount, token.Amount, fee)

	return &CashuPaymentResult{
		Amount:     token.Amount,
		AmountSent: finalAmount,
		Fee:        fee,
		Mint:       token.Mint,
		Invoice:    finalInvoice,
		Quote:      finalQuote.Quote,
		Change:     meltResult.Change,
	}, nil
}
