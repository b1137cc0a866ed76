// Package history implements the transaction history bounded context.
package history

import (
	"context"

	"github.com/fd1az/wallet-dashboard/business/history/app"
	historyDI "github.com/fd1az/wallet-dashboard/business/history/di"
	"github.com/fd1az/wallet-dashboard/business/history/infra/alchemy"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/config"
	"github.com/fd1az/wallet-dashboard/internal/di"
	"github.com/fd1az/wallet-dashboard/internal/logger"
	"github.com/fd1az/wallet-dashboard/internal/monolith"
	"github.com/fd1az/wallet-dashboard/internal/ratelimit"
	"github.com/fd1az/wallet-dashboard/internal/retry"
)

// Module implements the history bounded context.
type Module struct{}

// RegisterServices registers all history services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// One limiter per process, shared by every fetch
	di.RegisterToken(c, historyDI.IndexerLimiter, func(sr di.ServiceRegistry) *ratelimit.ConcurrencyLimiter {
		cfg := sr.Get("config").(*config.Config)
		return ratelimit.NewConcurrencyLimiter(cfg.Alchemy.Concurrency)
	})

	di.RegisterToken(c, historyDI.TransferSource, func(sr di.ServiceRegistry) app.TransferSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := alchemy.NewClient(alchemy.Config{
			APIKey:            cfg.Alchemy.APIKey,
			URLTemplate:       cfg.Alchemy.URLTemplate,
			RequestTimeout:    cfg.Alchemy.RequestTimeout,
			RequestsPerSecond: cfg.Alchemy.RequestsPerSecond,
			Retry: retry.New(
				retry.WithAttempts(cfg.Alchemy.RetryAttempts),
				retry.WithDelay(cfg.Alchemy.RetryDelay),
				retry.WithRetryIf(alchemy.Retryable),
				retry.WithOnRetry(func(attempt uint, err error) {
					log.Debug(context.Background(), "retrying indexer request",
						append([]any{"attempt", attempt + 1}, apperror.LogAttrs(err)...)...)
				}),
			),
		}, log)
		if err != nil {
			panic("failed to create alchemy client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, historyDI.HistoryFetcher, func(sr di.ServiceRegistry) app.HistoryFetcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		fetcher, err := app.NewFetcher(
			historyDI.GetTransferSource(sr),
			historyDI.GetIndexerLimiter(sr),
			cfg.Alchemy.MaxCount,
			log,
		)
		if err != nil {
			panic("failed to create history fetcher: " + err.Error())
		}
		return fetcher
	})

	return nil
}

// Startup initializes the history module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if mono.Config().Alchemy.APIKey == "" {
		log.Warn(ctx, "alchemy api key not configured, history fetches will fail")
	}

	// Resolve eagerly so construction errors surface at startup
	_ = historyDI.GetHistoryFetcher(mono.Services())

	log.Info(ctx, "history module started",
		"concurrency", mono.Config().Alchemy.Concurrency,
		"max_count", mono.Config().Alchemy.MaxCount)
	return nil
}
