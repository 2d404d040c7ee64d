package mint

import (
	"errors"
	"fmt"

	"github.com/elnosh/gonuts/cashu"
)

var (
	// ErrInvalidToken wraps every decode failure.
	ErrInvalidToken = errors.New("invalid cashu token")
	// ErrWrongMint : the token was issued by a mint outside the allow-list.
	ErrWrongMint = errors.New("token issued by a different mint")
	// ErrInsufficientAmount : the summed proofs do not cover the price.
	ErrInsufficientAmount = errors.New("token amount is insufficient")
	// ErrNoProofs : the token carries no redeemable proofs.
	ErrNoProofs = errors.New("token contains no proofs")
)

// Token is a decoded cashu token bundle.
type Token struct {
	Mint   string
	Proofs cashu.Proofs
	Amount uint64
	Unit   string
	Memo   string
}

// DecodeToken decodes a serialized cashu token and extracts its first
// entry. Tokens that parse but carry no entries are invalid.
func DecodeToken(tokenStr string) (*Token, error) {
	decoded, err := cashu.DecodeToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(decoded.Token) == 0 {
		return nil, fmt.Errorf("%w: token has no entries", ErrInvalidToken)
	}

	entry := decoded.Token[0]
	var amount uint64
	for _, proof := range entry.Proofs {
		amount += proof.Amount
	}

	unit := decoded.Unit
	if unit == "" {
		unit = "sat"
	}

	return &Token{
		Mint:   entry.Mint,
		Proofs: entry.Proofs,
		Amount: amount,
		Unit:   unit,
		Memo:   decoded.Memo,
	}, nil
}

// VerifyToken decodes tokenStr and checks, in order: the issuing mint
// against the allow-listed mint, the summed amount against
// requiredAmount, and that the proof list is non-empty. The token is
// never mutated; any failure rejects the whole token.
func VerifyToken(tokenStr string, requiredAmount uint64, allowedMint string) (*Token, error) {
	token, err := DecodeToken(tokenStr)
	if err != nil {
		return nil, err
	}

	if token.Mint != allowedMint {
		return nil, fmt.Errorf("%w: only tokens from %s are accepted, got %s", ErrWrongMint, allowedMint, token.Mint)
	}
	if token.Amount < requiredAmount {
		return nil, fmt.Errorf("%w: token has %d sats, %d sats required", ErrInsufficientAmount, token.Amount, requiredAmount)
	}
	if len(token.Proofs) == 0 {
		return nil, ErrNoProofs
	}

	return token, nil
}
