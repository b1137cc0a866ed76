package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v3"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	"github.com/fd1az/wallet-dashboard/business/history"
	historyApp "github.com/fd1az/wallet-dashboard/business/history/app"
	historyDI "github.com/fd1az/wallet-dashboard/business/history/di"
	"github.com/fd1az/wallet-dashboard/business/session"
	sessionDomain "github.com/fd1az/wallet-dashboard/business/session/domain"
	sessionDI "github.com/fd1az/wallet-dashboard/business/session/di"
	"github.com/fd1az/wallet-dashboard/business/wallet"
	walletDI "github.com/fd1az/wallet-dashboard/business/wallet/di"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/asset"
	"github.com/fd1az/wallet-dashboard/internal/health"
	"github.com/fd1az/wallet-dashboard/pkg/ui"
)

// fetcherOpener builds a history fetcher from the config at path. The
// returned closer releases everything it started.
type fetcherOpener func(ctx context.Context, path string) (historyApp.HistoryFetcher, io.Closer, error)

// newApp builds the command tree writing command output to out.
func newApp(out io.Writer) *cli.Command {
	return buildApp(out, openFetcher, asset.DefaultPriceTable())
}

func buildApp(out io.Writer, open fetcherOpener, prices *asset.PriceTable) *cli.Command {
	return &cli.Command{
		EnableShellCompletion: true,
		Name:                  "walletdash",
		Usage:                 "Terminal dashboard for recent wallet transfers",
		Description:           "Connects to a wallet bridge and shows recent sent and received transfers on Ethereum, Sepolia, Polygon and Arbitrum.",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Writer:                out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:  "cli",
				Usage: "Run headless and log session changes instead of showing the TUI",
			},
		},
		Action: runDashboard,
		Commands: []*cli.Command{
			historyCommand(out, open, prices),
			chainsCommand(out),
		},
	}
}

// runDashboard starts the wallet, history and session modules and drives
// the session from the TUI, or from logs in --cli mode.
func runDashboard(ctx context.Context, c *cli.Command) error {
	tuiMode := !c.Bool("cli")

	e, err := bootstrap(ctx, c.String("config"), tuiMode,
		&wallet.Module{},  // Must be first - provides the bridge
		&history.Module{}, // Provides the fetcher
		&session.Module{}, // Depends on wallet and history
	)
	if err != nil {
		return err
	}
	defer e.Close()

	services := e.mono.Services()
	store := sessionDI.GetStore(services)
	bridge := walletDI.GetBridge(services)

	e.startHealth(ctx, map[string]health.CheckFunc{
		"wallet_bridge": func(ctx context.Context) (bool, string) {
			if _, err := bridge.Accounts(ctx); err != nil {
				return false, apperror.UserMessage(err, "unreachable")
			}
			return true, "reachable"
		},
		"indexer_api_key": func(ctx context.Context) (bool, string) {
			if e.cfg.Alchemy.APIKey == "" {
				return false, "not configured"
			}
			return true, "configured"
		},
	})

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer func() {
		stopWatch()
		store.Close()
	}()

	go store.CheckConnection(watchCtx)
	go func() {
		if err := store.Watch(watchCtx); err != nil {
			e.log.Warn(watchCtx, "wallet account watch unavailable", apperror.LogAttrs(err)...)
		}
	}()

	if tuiMode {
		theme := ui.ResolveTheme(store.LoadTheme(ctx))
		if err := ui.Run(store, e.mono.PriceTable(), ui.WithTheme(theme)); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	}

	unsubscribe := store.Subscribe(func(s sessionDomain.Session) {
		e.log.Info(ctx, "session changed",
			"rev", s.Rev,
			"address", s.Address,
			"connected", s.IsConnected,
			"chain", s.SelectedChain.String(),
			"loading", s.IsLoading,
			"transactions", len(s.Transactions),
			"error", s.Error)
	})
	defer unsubscribe()

	e.log.Info(ctx, "dashboard running headless, press Ctrl+C to stop")
	<-ctx.Done()
	e.log.Info(ctx, "shutting down")
	return nil
}

// historyCommand fetches one history snapshot without a wallet bridge.
//
// Usage example:
//
//	walletdash history --address 0xABC... --chain MATIC_MAINNET --json
func historyCommand(out io.Writer, open fetcherOpener, prices *asset.PriceTable) *cli.Command {
	return &cli.Command{
		Name:        "history",
		Description: "Fetch the most recent transfers of an address on one chain.",
		Usage:       "Prints the latest transfers for an address. Must provide an address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Wallet address to look up",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "chain",
				Usage: "Chain identifier or name (e.g., ETH_MAINNET, polygon)",
				Value: chain.Default().String(),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of a table",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				address = c.String("address")
				asJSON  = c.Bool("json")
			)

			if !common.IsHexAddress(address) {
				return apperror.Validation(apperror.CodeInvalidAddress, address)
			}
			ch, err := chain.Parse(c.String("chain"))
			if err != nil {
				return err
			}

			fetcher, closer, err := open(ctx, c.String("config"))
			if err != nil {
				return err
			}
			defer closer.Close()

			txs, err := fetcher.Fetch(ctx, common.HexToAddress(address).Hex(), ch)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(out, txs)
			}
			return writeTable(out, txs, prices)
		},
	}
}

// chainsCommand lists the supported chains.
func chainsCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "chains",
		Description: "List the supported chains in display order.",
		Usage:       "Lists supported chains",
		Action: func(ctx context.Context, c *cli.Command) error {
			return writeChains(out)
		},
	}
}

// openFetcher starts only the history module, logging to stderr.
func openFetcher(ctx context.Context, path string) (historyApp.HistoryFetcher, io.Closer, error) {
	e, err := bootstrap(ctx, path, false, &history.Module{})
	if err != nil {
		return nil, nil, err
	}
	return historyDI.GetHistoryFetcher(e.mono.Services()), closerFunc(e.Close), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
