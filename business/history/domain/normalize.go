package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
)

// RawTransfer is a transfer record as returned by the indexing API.
type RawTransfer struct {
	Hash     string              `json:"hash"`
	From     string              `json:"from"`
	To       *string             `json:"to"`
	Value    decimal.NullDecimal `json:"value"`
	Asset    *string             `json:"asset"`
	Metadata TransferMetadata    `json:"metadata"`
}

// TransferMetadata is the provider-attached metadata block.
type TransferMetadata struct {
	BlockTimestamp string `json:"blockTimestamp"`
}

// Normalize merges the outbound and inbound batches for one address into a
// single list, newest first, capped at MaxTransactions. Records are not
// validated: a missing value becomes zero and an unparseable timestamp
// becomes the zero time.
func Normalize(c chain.Chain, outbound, inbound []RawTransfer) []Transaction {
	native := chain.Lookup(c).NativeCurrency

	txs := make([]Transaction, 0, len(outbound)+len(inbound))
	for _, r := range outbound {
		txs = append(txs, toTransaction(r, c, native, DirectionSent))
	}
	for _, r := range inbound {
		txs = append(txs, toTransaction(r, c, native, DirectionReceived))
	}

	slices.SortStableFunc(txs, func(a, b Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if len(txs) > MaxTransactions {
		txs = txs[:MaxTransactions]
	}
	return txs
}

func toTransaction(r RawTransfer, c chain.Chain, native string, dir Direction) Transaction {
	value := decimal.Zero
	if r.Value.Valid {
		value = r.Value.Decimal
	}

	asset := native
	if r.Asset != nil && *r.Asset != "" {
		asset = *r.Asset
	}

	return Transaction{
		Hash:      r.Hash,
		From:      r.From,
		To:        r.To,
		Value:     value,
		Timestamp: parseTimestamp(r.Metadata.BlockTimestamp),
		Chain:     c,
		Direction: dir,
		Status:    StatusConfirmed,
		Asset:     asset,
	}
}

func parseTimestamp(s string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
