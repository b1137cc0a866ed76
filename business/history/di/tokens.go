// Package di contains dependency injection tokens for the history context.
package di

import (
	"github.com/fd1az/wallet-dashboard/business/history/app"
	"github.com/fd1az/wallet-dashboard/internal/di"
	"github.com/fd1az/wallet-dashboard/internal/ratelimit"
)

// Public service tokens - exposed to other modules
var (
	HistoryFetcher = di.NewToken[app.HistoryFetcher]("history.HistoryFetcher")
)

// Private dependency tokens - internal to history module
var (
	TransferSource = di.NewToken[app.TransferSource]("history:transferSource")
	IndexerLimiter = di.NewToken[*ratelimit.ConcurrencyLimiter]("history:indexerLimiter")
)

func GetHistoryFetcher(c di.ServiceRegistry) app.HistoryFetcher {
	return di.GetToken(c, HistoryFetcher)
}

func GetTransferSource(c di.ServiceRegistry) app.TransferSource {
	return di.GetToken(c, TransferSource)
}

func GetIndexerLimiter(c di.ServiceRegistry) *ratelimit.ConcurrencyLimiter {
	return di.GetToken(c, IndexerLimiter)
}
