// Package domain models asset transfers and their normalization.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
)

// MaxTransactions caps a normalized history.
const MaxTransactions = 10

// Direction tells whether the tracked address sent or received a transfer.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Status of a transfer. The indexing API only reports finalized transfers,
// so normalization always yields StatusConfirmed.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Transaction is one observed transfer involving the tracked address.
// Hash is not unique in a list: a self-transfer appears as both directions.
type Transaction struct {
	Hash      string          `json:"hash"`
	From      string          `json:"from"`
	To        *string         `json:"to"`
	Value     decimal.Decimal `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	Chain     chain.Chain     `json:"chain"`
	Direction Direction       `json:"type"`
	Status    Status          `json:"status"`
	Asset     string          `json:"asset"`
}

// Counterparty returns the other side of the transfer, or "" when the
// recipient is absent.
func (t Transaction) Counterparty() string {
	if t.Direction == DirectionSent {
		if t.To == nil {
			return ""
		}
		return *t.To
	}
	return t.From
}
