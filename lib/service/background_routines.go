package service

import (
	"context"
	"time"

	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
)

// StartPendingInvoiceRoutine resumes the monitors of invoices that
// were still open when the process last stopped. Invoices already past
// their expiry are closed out instead.
func (svc *SoulService) StartPendingInvoiceRoutine(ctx context.Context) error {
	pending, err := svc.OpenInvoices(ctx)
	if err != nil {
		return err
	}
	svc.Logger.Infof("Found %d pending invoices", len(pending))

	for i := range pending {
		invoice := pending[i]
		if invoice.ExpiresAt.Time.Before(time.Now()) {
			if err := svc.MarkInvoiceState(ctx, &invoice, common.InvoiceStateExpired); err != nil {
				svc.Logger.Error(err)
			}
			continue
		}
		session := svc.OpenSession(&invoice)
		svc.StartInvoiceMonitor(ctx, session)
	}
	return nil
}

// SubscribeSettledSouls adapts the pubsub to the broker publisher.
func (svc *SoulService) SubscribeSettledSouls(ctx context.Context) (<-chan models.Soul, func(), error) {
	settled := make(chan models.Soul)
	subId := svc.SoulPubSub.Subscribe(common.SoulTopicSettled, settled)
	unsub := func() {
		svc.SoulPubSub.Unsubscribe(subId, common.SoulTopicSettled)
	}
	return settled, unsub, nil
}
