package service

import (
	"context"
	"sync"

	"github.com/staglieno/soulhub/lnaddress"
	"github.com/staglieno/soulhub/lnbits"
	"github.com/staglieno/soulhub/mint"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

type SoulService struct {
	Config     *Config
	DB         *bun.DB
	LnClient   lnbits.Client
	MintWallet mint.MeltingWallet
	Resolver   lnaddress.Resolver
	Logger     *lecho.Logger
	SoulPubSub *Pubsub

	// MonitorCtx is the long-lived context monitors run under, so a
	// monitor outlives the request that spawned it but still stops on
	// shutdown.
	MonitorCtx context.Context

	sessionMu sync.Mutex
	sessions  map[string]*PaymentSession
}

func (svc *SoulService) MonitorContext() context.Context {
	if svc.MonitorCtx != nil {
		return svc.MonitorCtx
	}
	return context.Background()
}
