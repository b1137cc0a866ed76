// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/fd1az/wallet-dashboard/business/wallet/app"
	"github.com/fd1az/wallet-dashboard/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Bridge = di.NewToken[app.Bridge]("wallet.Bridge")
)

func GetBridge(c di.ServiceRegistry) app.Bridge {
	return di.GetToken(c, Bridge)
}
