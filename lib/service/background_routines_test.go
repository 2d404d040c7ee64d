package service

import (
	"context"
	"testing"
	"time"

	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPendingInvoiceRoutine(t *testing.T) {
	ln := &fakeLnClient{paid: false}
	svc := monitorTestService(t, ln)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// one invoice still waiting, one already past its expiry
	open := draftInvoice(t, models.SoulDraft{Name: "Ada"})
	open.ExpiresAt.Time = time.Now().Add(time.Hour)
	_, err := svc.DB.NewInsert().Model(open).Exec(ctx)
	require.NoError(t, err)

	stale := draftInvoice(t, models.SoulDraft{Name: "Hal"})
	stale.RHash = "hash-2"
	stale.ExpiresAt.Time = time.Now().Add(-time.Hour)
	_, err = svc.DB.NewInsert().Model(stale).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.StartPendingInvoiceRoutine(ctx))

	session, ok := svc.Session("hash-1")
	require.True(t, ok)
	assert.Equal(t, common.SessionStateAwaitingPayment, session.State())

	_, ok = svc.Session("hash-2")
	assert.False(t, ok)
	stored, err := svc.FindInvoiceByPaymentHash(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStateExpired, stored.State)
}

func TestSubscribeSettledSouls(t *testing.T) {
	svc := soulsTestService(t)

	settled, unsub, err := svc.SubscribeSettledSouls(context.Background())
	require.NoError(t, err)

	go svc.SoulPubSub.Publish(common.SoulTopicSettled, models.Soul{Name: "Ada"})
	select {
	case soul := <-settled:
		assert.Equal(t, "Ada", soul.Name)
	case <-time.After(time.Second):
		t.Fatal("settled soul was not delivered")
	}

	unsub()
	_, open := <-settled
	assert.False(t, open)
}
