// Package app contains the history fetching use case.
package app

import (
	"context"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	"github.com/fd1az/wallet-dashboard/business/history/domain"
)

// Transfer categories requested from the indexing API. Internal
// contract-execution transfers are deliberately excluded.
const (
	CategoryExternal = "external"
	CategoryERC20    = "erc20"
)

// TransferQuery filters one indexing API request. Exactly one of
// FromAddress and ToAddress is set.
type TransferQuery struct {
	FromAddress string
	ToAddress   string
	Categories  []string
	MaxCount    int
}

// OutboundQuery selects transfers sent by address.
func OutboundQuery(address string, maxCount int) TransferQuery {
	return TransferQuery{
		FromAddress: address,
		Categories:  []string{CategoryExternal, CategoryERC20},
		MaxCount:    maxCount,
	}
}

// InboundQuery selects transfers received by address.
func InboundQuery(address string, maxCount int) TransferQuery {
	return TransferQuery{
		ToAddress:  address,
		Categories: []string{CategoryExternal, CategoryERC20},
		MaxCount:   maxCount,
	}
}

// TransferSource returns the most recent transfers matching a query,
// newest first.
type TransferSource interface {
	GetAssetTransfers(ctx context.Context, c chain.Chain, q TransferQuery) ([]domain.RawTransfer, error)
}

// HistoryFetcher loads the normalized history of an address on a chain.
type HistoryFetcher interface {
	Fetch(ctx context.Context, address string, c chain.Chain) ([]domain.Transaction, error)
}
