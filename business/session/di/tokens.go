// Package di contains dependency injection tokens for the session context.
package di

import (
	"github.com/fd1az/wallet-dashboard/business/session/app"
	"github.com/fd1az/wallet-dashboard/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Store = di.NewToken[*app.Store]("session.Store")
)

// Private dependency tokens - internal to session module
var (
	PreferenceStore = di.NewToken[app.PreferenceStore]("session:preferenceStore")
)

func GetStore(c di.ServiceRegistry) *app.Store {
	return di.GetToken(c, Store)
}

func GetPreferenceStore(c di.ServiceRegistry) app.PreferenceStore {
	return di.GetToken(c, PreferenceStore)
}
