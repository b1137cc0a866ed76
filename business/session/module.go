// Package session implements the wallet session bounded context.
package session

import (
	"context"
	"io"

	historyDI "github.com/fd1az/wallet-dashboard/business/history/di"
	"github.com/fd1az/wallet-dashboard/business/session/app"
	sessionDI "github.com/fd1az/wallet-dashboard/business/session/di"
	"github.com/fd1az/wallet-dashboard/business/session/infra/filestore"
	"github.com/fd1az/wallet-dashboard/business/session/infra/redisstore"
	walletDI "github.com/fd1az/wallet-dashboard/business/wallet/di"
	"github.com/fd1az/wallet-dashboard/internal/config"
	"github.com/fd1az/wallet-dashboard/internal/di"
	"github.com/fd1az/wallet-dashboard/internal/logger"
	"github.com/fd1az/wallet-dashboard/internal/monolith"
)

// Module implements the session bounded context. It depends on the wallet
// and history modules.
type Module struct{}

// RegisterServices registers the preference store and the session store.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, sessionDI.PreferenceStore, func(sr di.ServiceRegistry) app.PreferenceStore {
		cfg := sr.Get("config").(*config.Config)

		if cfg.Storage.Backend == config.StorageRedis {
			store, err := redisstore.New(context.Background(), redisstore.Options{
				Addr:      cfg.Storage.RedisAddr,
				Username:  cfg.Storage.RedisUsername,
				Password:  cfg.Storage.RedisPassword,
				DB:        cfg.Storage.RedisDB,
				KeyPrefix: cfg.Storage.KeyPrefix,
			})
			if err != nil {
				panic("failed to connect preference store: " + err.Error())
			}
			return store
		}
		return filestore.New(cfg.Storage.Path)
	})

	di.RegisterToken(c, sessionDI.Store, func(sr di.ServiceRegistry) *app.Store {
		log := sr.Get("logger").(logger.LoggerInterface)

		store, err := app.NewStore(context.Background(),
			walletDI.GetBridge(sr),
			historyDI.GetHistoryFetcher(sr),
			sessionDI.GetPreferenceStore(sr),
			log,
		)
		if err != nil {
			panic("failed to create session store: " + err.Error())
		}
		return store
	})

	return nil
}

// Startup initializes the session module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	prefs := sessionDI.GetPreferenceStore(mono.Services())
	if closer, ok := prefs.(io.Closer); ok {
		mono.OnClose(closer)
	}

	store := sessionDI.GetStore(mono.Services())
	snap := store.Snapshot()

	log.Info(ctx, "session module started",
		"session_id", snap.ID,
		"chain", snap.SelectedChain.String(),
		"storage", mono.Config().Storage.Backend)
	return nil
}
