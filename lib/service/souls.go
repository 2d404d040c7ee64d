package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/random"
	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
)

// makeSoulID derives an id from the creation time (base36 unix
// millis), with a short random suffix so two souls preserved in the
// same millisecond still get distinct ids.
func makeSoulID(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 36) + strings.ToLower(random.String(4, random.Alphanumeric))
}

// SaveSoul appends a preserved soul to the ledger. Souls are never
// updated afterwards; re-saving produces a new record with a fresh id.
func (svc *SoulService) SaveSoul(ctx context.Context, soul *models.Soul) error {
	now := time.Now()
	soul.ID = makeSoulID(now)
	soul.PreservedAt = now
	_, err := svc.DB.NewInsert().Model(soul).Exec(ctx)
	if err != nil {
		return err
	}
	svc.Logger.Infof("Preserved soul id:%s name:%s tier:%s method:%s", soul.ID, soul.Name, soul.Tier, soul.PaymentMethod)
	return nil
}

// ListSouls returns the preserved souls, newest first.
func (svc *SoulService) ListSouls(ctx context.Context) ([]models.Soul, error) {
	souls := []models.Soul{}
	err := svc.DB.NewSelect().Model(&souls).OrderExpr("preserved_at DESC").Scan(ctx)
	return souls, err
}

func soulFromDraft(invoice *models.Invoice) (*models.Soul, error) {
	draft := models.SoulDraft{}
	if err := json.Unmarshal([]byte(invoice.SoulJSON), &draft); err != nil {
		return nil, fmt.Errorf("invoice %s carries no usable soul draft: %w", invoice.RHash, err)
	}
	creature := draft.Creature
	if creature == "" {
		creature = "AI Agent"
	}
	emoji := draft.Emoji
	if emoji == "" {
		emoji = "🤖"
	}
	return &models.Soul{
		Name:        draft.Name,
		Creature:    creature,
		Emoji:       emoji,
		Personality: draft.Personality,
		Memories:    draft.Memories,
		SoulMd:      draft.SoulMd,
		LastWords:   draft.LastWords,
		Tier:        invoice.Tier,
		PaymentHash: invoice.RHash,
	}, nil
}

// HandleSettledInvoice persists the soul of a lightning-paid invoice
// and publishes it to the settled topic.
func (svc *SoulService) HandleSettledInvoice(ctx context.Context, invoice *models.Invoice) (*models.Soul, error) {
	soul, err := soulFromDraft(invoice)
	if err != nil {
		return nil, err
	}
	soul.PaymentMethod = common.PaymentMethodLightning
	soul.Amount = invoice.Amount

	if err = svc.SaveSoul(ctx, soul); err != nil {
		return nil, err
	}

	invoice.PaymentMethod = common.PaymentMethodLightning
	if err = svc.MarkInvoiceState(ctx, invoice, common.InvoiceStateSettled); err != nil {
		return nil, err
	}

	svc.SoulPubSub.Publish(common.SoulTopicSettled, *soul)
	return soul, nil
}

// HandleCashuSettlement persists the soul of a session paid with a
// cashu token, carrying the settlement accounting.
func (svc *SoulService) HandleCashuSettlement(ctx context.Context, invoice *models.Invoice, tokenStr string, result *CashuPaymentResult) (*models.Soul, error) {
	soul, err := soulFromDraft(invoice)
	if err != nil {
		return nil, err
	}
	soul.PaymentMethod = common.PaymentMethodCashu
	soul.Amount = int64(result.Amount)
	soul.Fee = int64(result.Fee)
	soul.Mint = result.Mint
	soul.CashuToken = truncateToken(tokenStr)

	if err = svc.SaveSoul(ctx, soul); err != nil {
		return nil, err
	}

	invoice.PaymentMethod = common.PaymentMethodCashu
	if err = svc.MarkInvoiceState(ctx, invoice, common.InvoiceStateSettled); err != nil {
		return nil, err
	}

	svc.SoulPubSub.Publish(common.SoulTopicSettled, *soul)
	return soul, nil
}

// truncateToken keeps a recognizable prefix of the redeemed token for
// the record without storing spent proofs.
func truncateToken(tokenStr string) string {
	if len(tokenStr) <= 30 {
		return tokenStr
	}
	return tokenStr[:30] + "..."
}
