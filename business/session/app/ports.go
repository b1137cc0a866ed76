// Package app drives the session state machine against the wallet bridge,
// the history fetcher and preference storage.
package app

import (
	"context"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	"github.com/fd1az/wallet-dashboard/business/session/domain"
)

// Namespace is the fixed storage namespace for the persisted session record.
const Namespace = "wallet-storage"

// PreferenceStore persists the selected chain and the theme. The wallet
// address is never persisted.
type PreferenceStore interface {
	// LoadChain returns "" when nothing is stored. Values are not validated.
	LoadChain(ctx context.Context) (chain.Chain, error)
	SaveChain(ctx context.Context, c chain.Chain) error
	// LoadTheme returns "" when nothing is stored.
	LoadTheme(ctx context.Context) (domain.Theme, error)
	SaveTheme(ctx context.Context, t domain.Theme) error
}

// Listener receives a snapshot after every applied transition. Snapshots
// may arrive out of order; compare Session.Rev.
type Listener = func(domain.Session)
