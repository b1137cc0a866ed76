// Package domain holds the wallet session value and its pure transitions.
package domain

import (
	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	history "github.com/fd1az/wallet-dashboard/business/history/domain"
)

// User-facing error strings.
const (
	MsgConnectionFailed = "Connection failed"
	MsgFetchFailed      = "Failed to load transactions."
)

// Session is the dashboard state for one user. An empty Address or Error
// means none.
type Session struct {
	ID            string
	Address       string
	IsConnected   bool
	SelectedChain chain.Chain
	Transactions  []history.Transaction
	IsLoading     bool
	Error         string

	// FetchSeq is the sequence number of the latest issued fetch and
	// AppliedSeq that of the latest fetch whose result was applied.
	FetchSeq   uint64
	AppliedSeq uint64

	// Rev increases on every transition the driver applies.
	Rev uint64
}

// New returns a disconnected session on the given chain.
func New(id string, c chain.Chain) Session {
	if !c.Valid() {
		c = chain.Default()
	}
	return Session{ID: id, SelectedChain: c}
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	if s.Transactions != nil {
		txs := make([]history.Transaction, len(s.Transactions))
		copy(txs, s.Transactions)
		s.Transactions = txs
	}
	return s
}

// HasError reports whether an error banner is active.
func (s Session) HasError() bool {
	return s.Error != ""
}

// Theme is the persisted light/dark presentation flag.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
