package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
	"github.com/uptrace/bun"
)

func (svc *SoulService) FindInvoiceByPaymentHash(ctx context.Context, rHash string) (*models.Invoice, error) {
	var invoice models.Invoice

	err := svc.DB.NewSelect().Model(&invoice).Where("r_hash = ?", rHash).Limit(1).Scan(ctx)
	if err != nil {
		return &invoice, err
	}
	return &invoice, nil
}

// AddIncomingInvoice asks the wallet backend for an invoice covering
// the tier price and stores it together with the pending soul draft.
func (svc *SoulService) AddIncomingInvoice(ctx context.Context, tier *Tier, draft *models.SoulDraft) (*models.Invoice, error) {
	memo := fmt.Sprintf("Staglieno Soul: %s (%s)", draft.Name, tier.Name)

	lnInvoice, err := svc.LnClient.CreateInvoice(ctx, tier.Price, memo)
	if err != nil {
		return nil, err
	}

	soulJSON, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		RHash:          lnInvoice.PaymentHash,
		PaymentRequest: lnInvoice.PaymentRequest,
		Amount:         tier.Price,
		Memo:           memo,
		Tier:           tier.ID,
		State:          common.InvoiceStateOpen,
		SoulJSON:       string(soulJSON),
		ExpiresAt:      bun.NullTime{Time: lnInvoice.ExpiresAt},
	}
	_, err = svc.DB.NewInsert().Model(invoice).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (svc *SoulService) MarkInvoiceState(ctx context.Context, invoice *models.Invoice, state string) error {
	invoice.State = state
	if state == common.InvoiceStateSettled {
		invoice.SettledAt = bun.NullTime{Time: time.Now()}
	}
	_, err := svc.DB.NewUpdate().Model(invoice).WherePK().Exec(ctx)
	return err
}

// OpenInvoices returns every invoice still waiting for payment, used
// to resume monitors after a restart.
func (svc *SoulService) OpenInvoices(ctx context.Context) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	err := svc.DB.NewSelect().Model(&invoices).Where("state = ?", common.InvoiceStateOpen).Scan(ctx)
	return invoices, err
}
