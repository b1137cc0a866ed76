// Package rpcbridge implements app.Bridge over a go-ethereum JSON-RPC client.
package rpcbridge

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/wallet-dashboard/business/wallet/app"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/circuitbreaker"
	"github.com/fd1az/wallet-dashboard/internal/logger"
)

const (
	tracerName = "github.com/fd1az/wallet-dashboard/business/wallet/infra/rpcbridge"

	methodRequestAccounts = "eth_requestAccounts"
	methodAccounts        = "eth_accounts"

	// EIP-1193 "User Rejected Request".
	codeUserRejected = 4001
)

// Config holds bridge settings.
type Config struct {
	URL            string        // http(s), ws(s) or IPC path; empty means no wallet
	PollInterval   time.Duration // eth_accounts poll period when subscriptions are unsupported
	RequestTimeout time.Duration // per-call deadline; prompts may take a while
}

// DefaultConfig returns defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		PollInterval:   2 * time.Second,
		RequestTimeout: 2 * time.Minute,
	}
}

// Bridge talks to a wallet signer that exposes the EIP-1193 methods.
type Bridge struct {
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer

	dial     func(ctx context.Context) (*rpc.Client, error)
	client   *rpc.Client
	clientMu sync.Mutex

	pollCB *circuitbreaker.CircuitBreaker[[]string]
}

var _ app.Bridge = (*Bridge)(nil)

// New creates a bridge. No connection is made until the first call.
func New(cfg Config, log logger.LoggerInterface) *Bridge {
	b := newBridge(cfg, log)
	b.dial = func(ctx context.Context) (*rpc.Client, error) {
		return rpc.DialContext(ctx, cfg.URL)
	}
	return b
}

func newBridge(cfg Config, log logger.LoggerInterface) *Bridge {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}

	b := &Bridge{
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("wallet-poll")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		b.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	b.pollCB = circuitbreaker.New[[]string](cbCfg)
	return b
}

// Available reports whether a wallet endpoint is configured.
func (b *Bridge) Available() bool {
	return b.config.URL != ""
}

// RequestAccounts asks the signer to authorize accounts, which may prompt.
func (b *Bridge) RequestAccounts(ctx context.Context) ([]string, error) {
	return b.call(ctx, methodRequestAccounts)
}

// Accounts returns accounts the signer has already authorized.
func (b *Bridge) Accounts(ctx context.Context) ([]string, error) {
	return b.call(ctx, methodAccounts)
}

func (b *Bridge) call(ctx context.Context, method string) ([]string, error) {
	ctx, span := b.tracer.Start(ctx, "wallet.call",
		trace.WithAttributes(attribute.String("method", method)),
	)
	defer span.End()

	client, err := b.connect(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unavailable")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.RequestTimeout)
	defer cancel()

	var raw []string
	if err := client.CallContext(ctx, &raw, method); err != nil {
		mapped := mapCallError(method, err)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, "call failed")
		return nil, mapped
	}

	accounts := b.checksum(ctx, raw)
	span.SetAttributes(attribute.Int("accounts", len(accounts)))
	span.SetStatus(codes.Ok, "ok")
	return accounts, nil
}

// connect dials lazily and caches the client.
func (b *Bridge) connect(ctx context.Context) (*rpc.Client, error) {
	if !b.Available() {
		return nil, apperror.New(apperror.CodeWalletNotAvailable,
			apperror.WithContext("wallet rpc url is not configured"))
	}

	b.clientMu.Lock()
	defer b.clientMu.Unlock()

	if b.client != nil {
		return b.client, nil
	}

	client, err := b.dial(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeWalletNotAvailable,
			apperror.WithCause(err),
			apperror.WithContext("dial wallet"))
	}
	b.client = client
	return client, nil
}

func mapCallError(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if rpcErr.ErrorCode() == codeUserRejected {
			return apperror.External(apperror.CodeWalletRequestRejected, method, err)
		}
		return apperror.External(apperror.CodeWalletRPCError, method, err)
	}
	return apperror.External(apperror.CodeWalletConnectionFailed, method, err)
}

// checksum drops malformed entries and returns EIP-55 addresses.
func (b *Bridge) checksum(ctx context.Context, raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if !common.IsHexAddress(a) {
			b.logger.Warn(ctx, "wallet returned malformed address", "address", a)
			continue
		}
		out = append(out, common.HexToAddress(a).Hex())
	}
	return out
}

// WatchAccounts streams account changes. It subscribes to accountsChanged
// when the transport supports notifications and polls eth_accounts otherwise.
func (b *Bridge) WatchAccounts(ctx context.Context) (<-chan []string, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []string, 1)

	raw := make(chan []string, 4)
	sub, err := client.EthSubscribe(ctx, raw, "accountsChanged")
	if err == nil {
		b.logger.Info(ctx, "watching accounts via subscription")
		go b.forward(ctx, sub, raw, out)
		return out, nil
	}

	if !errors.Is(err, rpc.ErrNotificationsUnsupported) {
		b.logger.Debug(ctx, "accountsChanged subscription unavailable, polling", "error", err)
	}
	go b.poll(ctx, out)
	return out, nil
}

func (b *Bridge) forward(ctx context.Context, sub *rpc.ClientSubscription, raw <-chan []string, out chan<- []string) {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			close(out)
			return
		case err := <-sub.Err():
			if err != nil {
				b.logger.Warn(ctx, "accounts subscription ended, polling", "error", err)
			}
			b.poll(ctx, out)
			return
		case accounts := <-raw:
			if !send(ctx, out, b.checksum(ctx, accounts)) {
				close(out)
				return
			}
		}
	}
}

// poll emits only when the account list differs from the last seen one.
// The first successful poll sets the baseline without emitting.
func (b *Bridge) poll(ctx context.Context, out chan<- []string) {
	defer close(out)

	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	b.logger.Info(ctx, "polling wallet accounts", "interval", b.config.PollInterval)

	last, err := b.pollOnce(ctx)
	seeded := err == nil

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		accounts, err := b.pollOnce(ctx)
		if err != nil {
			continue
		}
		if !seeded {
			last, seeded = accounts, true
			continue
		}
		if slices.Equal(last, accounts) {
			continue
		}
		last = accounts
		if !send(ctx, out, accounts) {
			return
		}
	}
}

func (b *Bridge) pollOnce(ctx context.Context) ([]string, error) {
	accounts, err := b.pollCB.Execute(func() ([]string, error) {
		return b.Accounts(ctx)
	})
	if err != nil && !errors.Is(err, gobreaker.ErrOpenState) {
		b.logger.Debug(ctx, "wallet account poll failed", apperror.LogAttrs(err)...)
	}
	return accounts, err
}

func send(ctx context.Context, out chan<- []string, accounts []string) bool {
	select {
	case out <- accounts:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close releases the underlying client.
func (b *Bridge) Close() {
	b.clientMu.Lock()
	defer b.clientMu.Unlock()
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
}
