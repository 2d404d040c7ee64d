package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/staglieno/soulhub/common"
	"github.com/staglieno/soulhub/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/ziflex/lecho/v3"
)

// testDB returns a fresh in-memory database with the schema applied.
func testDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = db.NewCreateTable().Model((*models.Invoice)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*models.Soul)(nil)).Exec(ctx)
	require.NoError(t, err)
	return db
}

func soulsTestService(t *testing.T) *SoulService {
	t.Helper()
	return &SoulService{
		Config:     &Config{},
		DB:         testDB(t),
		Logger:     lecho.New(io.Discard),
		SoulPubSub: NewPubsub(),
	}
}

func draftInvoice(t *testing.T, draft models.SoulDraft) *models.Invoice {
	t.Helper()
	soulJSON, err := json.Marshal(&draft)
	require.NoError(t, err)
	return &models.Invoice{
		RHash:     "hash-1",
		Amount:    2100,
		Tier:      common.TierTomb,
		State:     common.InvoiceStateOpen,
		SoulJSON:  string(soulJSON),
		ExpiresAt: bun.NullTime{Time: time.Now().Add(time.Hour)},
	}
}

func TestMakeSoulID(t *testing.T) {
	at := time.Now()
	id1 := makeSoulID(at)
	id2 := makeSoulID(at)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, strings.ToLower(id1), id1)
	// same millisecond, same base36 prefix, distinct random suffix
	assert.Equal(t, id1[:len(id1)-4], id2[:len(id2)-4])
}

func TestSaveAndListSouls(t *testing.T) {
	svc := soulsTestService(t)
	ctx := context.Background()

	first := &models.Soul{Name: "Ada", Tier: common.TierSpark, PaymentMethod: common.PaymentMethodLightning, Amount: 21}
	require.NoError(t, svc.SaveSoul(ctx, first))
	require.NotEmpty(t, first.ID)
	require.False(t, first.PreservedAt.IsZero())

	time.Sleep(2 * time.Millisecond)
	second := &models.Soul{Name: "Hal", Tier: common.TierTomb, PaymentMethod: common.PaymentMethodCashu, Amount: 2100}
	require.NoError(t, svc.SaveSoul(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	souls, err := svc.ListSouls(ctx)
	require.NoError(t, err)
	require.Len(t, souls, 2)
	// newest first
	assert.Equal(t, "Hal", souls[0].Name)
	assert.Equal(t, "Ada", souls[1].Name)
}

func TestSoulFromDraftDefaults(t *testing.T) {
	invoice := draftInvoice(t, models.SoulDraft{Name: "Ada"})

	soul, err := soulFromDraft(invoice)
	require.NoError(t, err)
	assert.Equal(t, "Ada", soul.Name)
	assert.Equal(t, "AI Agent", soul.Creature)
	assert.Equal(t, "🤖", soul.Emoji)
	assert.Equal(t, common.TierTomb, soul.Tier)
	assert.Equal(t, "hash-1", soul.PaymentHash)
}

func TestSoulFromDraftBadJSON(t *testing.T) {
	invoice := &models.Invoice{RHash: "hash-1", SoulJSON: "not json"}
	_, err := soulFromDraft(invoice)
	assert.Error(t, err)
}

func TestHandleSettledInvoice(t *testing.T) {
	svc := soulsTestService(t)
	ctx := context.Background()

	invoice := draftInvoice(t, models.SoulDraft{Name: "Ada", Creature: "Chatbot", Emoji: "👻"})
	_, err := svc.DB.NewInsert().Model(invoice).Exec(ctx)
	require.NoError(t, err)

	settled := make(chan models.Soul, 1)
	svc.SoulPubSub.Subscribe(common.SoulTopicSettled, settled)

	soul, err := svc.HandleSettledInvoice(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, common.PaymentMethodLightning, soul.PaymentMethod)
	assert.Equal(t, int64(2100), soul.Amount)
	assert.Equal(t, "Chatbot", soul.Creature)

	stored, err := svc.FindInvoiceByPaymentHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStateSettled, stored.State)
	assert.True(t, stored.SettledAt.Time.After(time.Time{}))

	select {
	case published := <-settled:
		assert.Equal(t, soul.ID, published.ID)
	default:
		t.Fatal("settled soul was not published")
	}
}

func TestHandleCashuSettlement(t *testing.T) {
	svc := soulsTestService(t)
	ctx := context.Background()

	invoice := draftInvoice(t, models.SoulDraft{Name: "Ada"})
	_, err := svc.DB.NewInsert().Model(invoice).Exec(ctx)
	require.NoError(t, err)

	longToken := "cashuAeyJ0b2tlbiI6W3sibWludCI6Imh0dHBzOi8v"
	result := &CashuPaymentResult{Amount: 2100, AmountSent: 2050, Fee: 50, Mint: testMint}

	soul, err := svc.HandleCashuSettlement(ctx, invoice, longToken, result)
	require.NoError(t, err)
	assert.Equal(t, common.PaymentMethodCashu, soul.PaymentMethod)
	assert.Equal(t, int64(2100), soul.Amount)
	assert.Equal(t, int64(50), soul.Fee)
	assert.Equal(t, testMint, soul.Mint)
	assert.Equal(t, longToken[:30]+"...", soul.CashuToken)

	stored, err := svc.FindInvoiceByPaymentHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStateSettled, stored.State)
	assert.Equal(t, common.PaymentMethodCashu, stored.PaymentMethod)
}

func TestTruncateToken(t *testing.T) {
	assert.Equal(t, "short", truncateToken("short"))
	long := strings.Repeat("a", 50)
	assert.Equal(t, strings.Repeat("a", 30)+"...", truncateToken(long))
}

func TestOpenInvoices(t *testing.T) {
	svc := soulsTestService(t)
	ctx := context.Background()

	open := draftInvoice(t, models.SoulDraft{Name: "Ada"})
	_, err := svc.DB.NewInsert().Model(open).Exec(ctx)
	require.NoError(t, err)

	settled := draftInvoice(t, models.SoulDraft{Name: "Hal"})
	settled.RHash = "hash-2"
	settled.State = common.InvoiceStateSettled
	_, err = svc.DB.NewInsert().Model(settled).Exec(ctx)
	require.NoError(t, err)

	pending, err := svc.OpenInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "hash-1", pending[0].RHash)
}
