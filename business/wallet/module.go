// Package wallet implements the wallet bridge bounded context.
package wallet

import (
	"context"

	"github.com/fd1az/wallet-dashboard/business/wallet/app"
	walletDI "github.com/fd1az/wallet-dashboard/business/wallet/di"
	"github.com/fd1az/wallet-dashboard/business/wallet/infra/rpcbridge"
	"github.com/fd1az/wallet-dashboard/internal/config"
	"github.com/fd1az/wallet-dashboard/internal/di"
	"github.com/fd1az/wallet-dashboard/internal/logger"
	"github.com/fd1az/wallet-dashboard/internal/monolith"
)

// Module implements the wallet bounded context.
type Module struct{}

// RegisterServices registers the wallet bridge with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, walletDI.Bridge, func(sr di.ServiceRegistry) app.Bridge {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return rpcbridge.New(rpcbridge.Config{
			URL:            cfg.Wallet.RPCURL,
			PollInterval:   cfg.Wallet.PollInterval,
			RequestTimeout: cfg.Wallet.RequestTimeout,
		}, log)
	})

	return nil
}

// Startup initializes the wallet module. The bridge dials lazily, so an
// unreachable signer never blocks startup.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	bridge := walletDI.GetBridge(mono.Services())
	mono.OnClose(monolith.CloserFunc(bridge.Close))

	if mono.Config().Wallet.RPCURL == "" {
		log.Warn(ctx, "wallet rpc url not configured, connect will report no wallet")
	}

	log.Info(ctx, "wallet module started", "rpc_url", mono.Config().Wallet.RPCURL)
	return nil
}
