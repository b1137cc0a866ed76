package rpcbridge

import (
	"context"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

const (
	lowerAddr    = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	checksumAddr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	otherAddr    = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

type rejectedError struct{}

func (rejectedError) Error() string  { return "User rejected the request." }
func (rejectedError) ErrorCode() int { return 4001 }

// fakeWallet serves the eth namespace of an EIP-1193 signer.
type fakeWallet struct {
	mu       sync.Mutex
	accounts []string
	reject   bool
	calls    atomic.Int32
	updates  chan []string
}

func (f *fakeWallet) RequestAccounts() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return nil, rejectedError{}
	}
	return f.accounts, nil
}

func (f *fakeWallet) Accounts() ([]string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts, nil
}

func (f *fakeWallet) AccountsChanged(ctx context.Context) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	go func() {
		for {
			select {
			case accounts := <-f.updates:
				_ = notifier.Notify(sub.ID, accounts)
			case <-sub.Err():
				return
			}
		}
	}()
	return sub, nil
}

func (f *fakeWallet) set(accounts ...string) {
	f.mu.Lock()
	f.accounts = accounts
	f.mu.Unlock()
}

func newRPCServer(t *testing.T, w *fakeWallet) *rpc.Server {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", w))
	t.Cleanup(srv.Stop)
	return srv
}

func newHTTPBridge(t *testing.T, w *fakeWallet) *Bridge {
	t.Helper()
	httpSrv := httptest.NewServer(newRPCServer(t, w))
	t.Cleanup(httpSrv.Close)

	b := New(Config{URL: httpSrv.URL, PollInterval: 10 * time.Millisecond}, &mockLogger{})
	t.Cleanup(b.Close)
	return b
}

func TestBridge_RequestAccounts_Checksums(t *testing.T) {
	w := &fakeWallet{accounts: []string{lowerAddr, "not-an-address"}}
	b := newHTTPBridge(t, w)

	got, err := b.RequestAccounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{checksumAddr}, got)
}

func TestBridge_Accounts_Empty(t *testing.T) {
	b := newHTTPBridge(t, &fakeWallet{})

	got, err := b.Accounts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBridge_RequestAccounts_Rejected(t *testing.T) {
	b := newHTTPBridge(t, &fakeWallet{reject: true})

	_, err := b.RequestAccounts(context.Background())

	require.Error(t, err)
	assert.Equal(t, apperror.CodeWalletRequestRejected, apperror.GetCode(err))
}

func TestBridge_NotConfigured(t *testing.T) {
	b := New(Config{}, &mockLogger{})

	_, err := b.Accounts(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeWalletNotAvailable, apperror.GetCode(err))

	_, err = b.WatchAccounts(context.Background())
	assert.Equal(t, apperror.CodeWalletNotAvailable, apperror.GetCode(err))
	assert.False(t, b.Available())
}

func TestBridge_Unreachable(t *testing.T) {
	httpSrv := httptest.NewServer(nil)
	url := httpSrv.URL
	httpSrv.Close()

	b := New(Config{URL: url}, &mockLogger{})
	defer b.Close()

	_, err := b.Accounts(context.Background())

	require.Error(t, err)
	assert.Equal(t, apperror.CodeWalletConnectionFailed, apperror.GetCode(err))
}

func TestBridge_WatchAccounts_PollsOverHTTP(t *testing.T) {
	w := &fakeWallet{accounts: []string{lowerAddr}}
	b := newHTTPBridge(t, w)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.WatchAccounts(ctx)
	require.NoError(t, err)

	// Wait for the baseline poll before changing accounts.
	require.Eventually(t, func() bool { return w.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	w.set(otherAddr)

	select {
	case got := <-ch:
		assert.Equal(t, []string{otherAddr}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no account change emitted")
	}

	w.set()
	select {
	case got := <-ch:
		assert.Empty(t, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnect emitted")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 5*time.Millisecond)
}

func TestBridge_WatchAccounts_Subscription(t *testing.T) {
	w := &fakeWallet{updates: make(chan []string)}
	srv := newRPCServer(t, w)

	b := newBridge(Config{URL: "inproc"}, &mockLogger{})
	b.dial = func(context.Context) (*rpc.Client, error) {
		return rpc.DialInProc(srv), nil
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.WatchAccounts(ctx)
	require.NoError(t, err)

	w.updates <- []string{lowerAddr}

	select {
	case got := <-ch:
		assert.Equal(t, []string{checksumAddr}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification forwarded")
	}
	assert.Zero(t, w.calls.Load(), "subscription path must not poll")
}
