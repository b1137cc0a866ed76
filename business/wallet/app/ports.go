// Package app defines the wallet bridge port consumed by the session store.
package app

import "context"

// Bridge is an EIP-1193 style account provider.
type Bridge interface {
	// RequestAccounts may prompt the user for approval.
	RequestAccounts(ctx context.Context) ([]string, error)
	// Accounts returns already-authorized accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)
	// WatchAccounts streams account list changes until ctx ends.
	WatchAccounts(ctx context.Context) (<-chan []string, error)
	Close()
}
