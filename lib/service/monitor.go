package service

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/staglieno/soulhub/common"
)

func (svc *SoulService) pollInterval() time.Duration {
	if svc.Config.PollInterval <= 0 {
		return 3 * time.Second
	}
	return time.Duration(svc.Config.PollInterval) * time.Second
}

// StartInvoiceMonitor spawns the polling monitor for a session. The
// monitor owns the session's terminal transition: it stops itself on
// the first paid observation, on invoice expiry, or when the session
// is aborted.
func (svc *SoulService) StartInvoiceMonitor(ctx context.Context, session *PaymentSession) {
	monitorCtx, cancel := context.WithCancel(ctx)
	session.bindMonitor(cancel)
	go svc.watchInvoice(monitorCtx, session)
}

func (svc *SoulService) watchInvoice(ctx context.Context, session *PaymentSession) {
	defer svc.removeSession(session.PaymentHash)

	ticker := time.NewTicker(svc.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
				if session.Expire() {
					svc.markExpired(session)
				}
				return
			}

			status, err := svc.LnClient.InvoiceStatus(ctx, session.PaymentHash)
			if err != nil {
				// transient backend errors must not abort the wait
				svc.Logger.Errorf("Invoice status check failed payment_hash:%s error: %v", session.PaymentHash, err)
				continue
			}
			if !status.Paid {
				continue
			}

			if session.Settle() {
				svc.settleWatchedInvoice(session)
			}
			return
		}
	}
}

func (svc *SoulService) settleWatchedInvoice(session *PaymentSession) {
	// not the monitor context: a cancelled watch must not interrupt
	// persistence of a payment that was already observed
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	invoice, err := svc.FindInvoiceByPaymentHash(ctx, session.PaymentHash)
	if err != nil {
		svc.Logger.Errorf("Could not load settled invoice payment_hash:%s error: %v", session.PaymentHash, err)
		sentry.CaptureException(err)
		return
	}
	if _, err = svc.HandleSettledInvoice(ctx, invoice); err != nil {
		svc.Logger.Errorf("Could not persist soul for payment_hash:%s error: %v", session.PaymentHash, err)
		sentry.CaptureException(err)
	}
}

func (svc *SoulService) markExpired(session *PaymentSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	invoice, err := svc.FindInvoiceByPaymentHash(ctx, session.PaymentHash)
	if err != nil {
		svc.Logger.Errorf("Could not load expired invoice payment_hash:%s error: %v", session.PaymentHash, err)
		return
	}
	if err = svc.MarkInvoiceState(ctx, invoice, common.InvoiceStateExpired); err != nil {
		svc.Logger.Errorf("Could not mark invoice expired payment_hash:%s error: %v", session.PaymentHash, err)
	}
}

// AbortSession abandons an open session, tearing its monitor down
// without side effects beyond the invoice state.
func (svc *SoulService) AbortSession(ctx context.Context, session *PaymentSession) error {
	if !session.Abort() {
		return ErrSessionClosed
	}
	invoice, err := svc.FindInvoiceByPaymentHash(ctx, session.PaymentHash)
	if err != nil {
		return err
	}
	return svc.MarkInvoiceState(ctx, invoice, common.InvoiceStateAborted)
}
