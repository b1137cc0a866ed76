package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	history "github.com/fd1az/wallet-dashboard/business/history/domain"
)

const (
	addrA = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	addrB = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func txs(hashes ...string) []history.Transaction {
	out := make([]history.Transaction, 0, len(hashes))
	for i, h := range hashes {
		out = append(out, history.Transaction{
			Hash:      h,
			Value:     decimal.NewFromInt(int64(i + 1)),
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Direction: history.DirectionSent,
			Status:    history.StatusConfirmed,
		})
	}
	return out
}

// fetchOf extracts the single FetchHistory effect.
func fetchOf(t *testing.T, effects []Effect) FetchRequest {
	t.Helper()
	for _, e := range effects {
		if f, ok := e.(FetchHistory); ok {
			return f.Request
		}
	}
	t.Fatalf("no FetchHistory effect in %v", effects)
	return FetchRequest{}
}

func hasFetch(effects []Effect) bool {
	for _, e := range effects {
		if _, ok := e.(FetchHistory); ok {
			return true
		}
	}
	return false
}

func connected(t *testing.T) (Session, FetchRequest) {
	t.Helper()
	s, _ := Reduce(New("id", chain.EthMainnet), ConnectStarted{})
	s, effects := Reduce(s, ConnectSucceeded{Accounts: []string{addrA}})
	return s, fetchOf(t, effects)
}

func TestNew_InvalidChainFallsBack(t *testing.T) {
	s := New("id", chain.Chain("NOPE"))
	assert.Equal(t, chain.EthMainnet, s.SelectedChain)
	assert.False(t, s.IsConnected)
}

func TestReduce_ConnectFlow(t *testing.T) {
	s, _ := Reduce(New("id", chain.EthMainnet), ConnectFailed{Message: "old"})
	s, effects := Reduce(s, ConnectStarted{})
	assert.True(t, s.IsLoading)
	assert.Empty(t, s.Error)
	assert.Empty(t, effects)

	s, effects = Reduce(s, ConnectSucceeded{Accounts: []string{addrA, addrB}})
	assert.True(t, s.IsConnected)
	assert.Equal(t, addrA, s.Address, "first account wins")

	req := fetchOf(t, effects)
	assert.Equal(t, FetchRequest{Seq: 1, Address: addrA, Chain: chain.EthMainnet}, req)
	assert.True(t, s.IsLoading, "fetch in flight")
}

func TestReduce_ConnectZeroAccountsIsRejection(t *testing.T) {
	s, _ := Reduce(New("id", chain.EthMainnet), ConnectStarted{})
	s, effects := Reduce(s, ConnectSucceeded{})

	assert.False(t, s.IsConnected)
	assert.False(t, s.IsLoading)
	assert.Equal(t, MsgConnectionFailed, s.Error)
	assert.Empty(t, effects)
}

func TestReduce_ConnectFailed(t *testing.T) {
	s, _ := Reduce(New("id", chain.EthMainnet), ConnectStarted{})
	s, _ = Reduce(s, ConnectFailed{Message: "MetaMask not installed"})

	assert.False(t, s.IsConnected)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "MetaMask not installed", s.Error)
}

func TestReduce_RestoreIsSilent(t *testing.T) {
	start, _ := Reduce(New("id", chain.EthSepolia), ConnectFailed{Message: "kept"})

	s, effects := Reduce(start, RestoreSucceeded{})
	assert.Equal(t, start, s, "zero accounts leaves state untouched")
	assert.Empty(t, effects)

	s, effects = Reduce(start, RestoreSucceeded{Accounts: []string{addrB}})
	assert.True(t, s.IsConnected)
	assert.Equal(t, addrB, s.Address)
	assert.Equal(t, chain.EthSepolia, fetchOf(t, effects).Chain)
}

func TestReduce_FetchSuccessApplies(t *testing.T) {
	s, req := connected(t)

	s, effects := Reduce(s, FetchSucceeded{Request: req, Transactions: txs("0x1", "0x2")})

	assert.Empty(t, effects)
	assert.False(t, s.IsLoading)
	assert.Len(t, s.Transactions, 2)
	assert.Equal(t, req.Seq, s.AppliedSeq)
}

func TestReduce_FetchFailureClearsTransactions(t *testing.T) {
	s, req := connected(t)
	s, _ = Reduce(s, FetchSucceeded{Request: req, Transactions: txs("0x1")})

	s, effects := Reduce(s, FetchRequested{})
	req2 := fetchOf(t, effects)
	s, _ = Reduce(s, FetchFailed{Request: req2})

	assert.Empty(t, s.Transactions, "never leave stale data after a failure")
	assert.Equal(t, MsgFetchFailed, s.Error)
	assert.False(t, s.IsLoading)
}

func TestReduce_FetchWithoutAddressIsNoop(t *testing.T) {
	s := New("id", chain.EthMainnet)
	next, effects := Reduce(s, FetchRequested{})
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestReduce_DisconnectIsIdempotent(t *testing.T) {
	s, req := connected(t)
	s, _ = Reduce(s, FetchSucceeded{Request: req, Transactions: txs("0x1")})

	once, effects := Reduce(s, Disconnected{})
	assert.Empty(t, effects)
	assert.False(t, once.IsConnected)
	assert.Empty(t, once.Address)
	assert.Empty(t, once.Transactions)
	assert.False(t, once.IsLoading)

	twice, _ := Reduce(once, Disconnected{})
	assert.Equal(t, once, twice)
}

func TestReduce_DisconnectThenEmptyRestoreStaysDisconnected(t *testing.T) {
	s, _ := connected(t)
	s, _ = Reduce(s, Disconnected{})
	s, _ = Reduce(s, RestoreSucceeded{Accounts: nil})

	assert.False(t, s.IsConnected)
	assert.Empty(t, s.Transactions)
}

func TestReduce_SetChainWhileDisconnected(t *testing.T) {
	s, effects := Reduce(New("id", chain.EthMainnet), ChainSelected{Chain: chain.MaticMainnet})

	assert.Equal(t, chain.MaticMainnet, s.SelectedChain)
	assert.False(t, s.IsConnected)
	assert.False(t, hasFetch(effects))
	assert.Equal(t, []Effect{PersistChain{Chain: chain.MaticMainnet}}, effects)
}

func TestReduce_SetChainWhileConnectedFetches(t *testing.T) {
	s, _ := connected(t)
	s, effects := Reduce(s, ChainSelected{Chain: chain.ArbMainnet})

	require.Len(t, effects, 2)
	assert.Equal(t, PersistChain{Chain: chain.ArbMainnet}, effects[0])
	req := fetchOf(t, effects)
	assert.Equal(t, chain.ArbMainnet, req.Chain)
	assert.Equal(t, uint64(2), req.Seq)
}

func TestReduce_SetChainIgnoresUnknown(t *testing.T) {
	s := New("id", chain.EthMainnet)
	next, effects := Reduce(s, ChainSelected{Chain: "NOPE"})
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestReduce_StaleResultAfterChainSwitchIsDropped(t *testing.T) {
	s, reqEth := connected(t)
	s, effects := Reduce(s, ChainSelected{Chain: chain.MaticMainnet})
	reqMatic := fetchOf(t, effects)

	// Polygon answers first, then the slower Ethereum fetch completes.
	s, _ = Reduce(s, FetchSucceeded{Request: reqMatic, Transactions: txs("0xpoly")})
	s, _ = Reduce(s, FetchSucceeded{Request: reqEth, Transactions: txs("0xeth")})

	require.Len(t, s.Transactions, 1)
	assert.Equal(t, "0xpoly", s.Transactions[0].Hash)
	assert.False(t, s.IsLoading)
}

func TestReduce_OlderResultNeverOverwritesNewer(t *testing.T) {
	s, req1 := connected(t)
	s, effects := Reduce(s, FetchRequested{})
	req2 := fetchOf(t, effects)

	s, _ = Reduce(s, FetchSucceeded{Request: req2, Transactions: txs("0xnew")})
	s, _ = Reduce(s, FetchFailed{Request: req1})

	assert.Empty(t, s.Error)
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, "0xnew", s.Transactions[0].Hash)
}

func TestReduce_LoadingStaysWhileNewerOutstanding(t *testing.T) {
	s, req1 := connected(t)
	s, _ = Reduce(s, FetchRequested{})

	s, _ = Reduce(s, FetchSucceeded{Request: req1, Transactions: txs("0x1")})

	assert.True(t, s.IsLoading)
	assert.Len(t, s.Transactions, 1)
}

func TestReduce_ResultAfterDisconnectIsDropped(t *testing.T) {
	s, req := connected(t)
	s, _ = Reduce(s, Disconnected{})
	s, _ = Reduce(s, FetchSucceeded{Request: req, Transactions: txs("0x1")})

	assert.Empty(t, s.Transactions)
	assert.False(t, s.IsConnected)
}

func TestReduce_AccountsChanged(t *testing.T) {
	t.Run("empty while disconnected is a no-op", func(t *testing.T) {
		s := New("id", chain.EthMainnet)
		next, effects := Reduce(s, AccountsChanged{})
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	})

	t.Run("empty while connected disconnects", func(t *testing.T) {
		s, _ := connected(t)
		s, _ = Reduce(s, AccountsChanged{})
		assert.False(t, s.IsConnected)
		assert.Empty(t, s.Address)
	})

	t.Run("new account switches and fetches", func(t *testing.T) {
		s, req := connected(t)
		s, _ = Reduce(s, FetchSucceeded{Request: req, Transactions: txs("0x1")})

		s, effects := Reduce(s, AccountsChanged{Accounts: []string{addrB}})
		assert.Equal(t, addrB, s.Address)
		assert.Empty(t, s.Transactions, "old account's history is not shown")
		assert.Equal(t, addrB, fetchOf(t, effects).Address)

		// The old account's late result is dropped.
		s, _ = Reduce(s, FetchSucceeded{Request: req, Transactions: txs("0xold")})
		assert.Empty(t, s.Transactions)
	})

	t.Run("account notification connects when disconnected", func(t *testing.T) {
		s, effects := Reduce(New("id", chain.EthMainnet), AccountsChanged{Accounts: []string{addrA}})
		assert.True(t, s.IsConnected)
		assert.True(t, hasFetch(effects))
	})
}

func TestReduce_TransactionsOnlyWhileConnected(t *testing.T) {
	events := []Event{
		ConnectStarted{},
		ConnectSucceeded{Accounts: []string{addrA}},
		FetchSucceeded{Request: FetchRequest{Seq: 1, Address: addrA, Chain: chain.EthMainnet}, Transactions: txs("0x1")},
		ChainSelected{Chain: chain.EthSepolia},
		Disconnected{},
		FetchSucceeded{Request: FetchRequest{Seq: 2, Address: addrA, Chain: chain.EthSepolia}, Transactions: txs("0x2")},
	}

	s := New("id", chain.EthMainnet)
	for _, ev := range events {
		s, _ = Reduce(s, ev)
		if !s.IsConnected {
			assert.Empty(t, s.Transactions, "after %T", ev)
		}
	}
}

func TestTheme_Toggle(t *testing.T) {
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.True(t, ThemeDark.Valid())
	assert.False(t, Theme("blue").Valid())
}

func TestSession_CloneDoesNotShareTransactions(t *testing.T) {
	s := Session{Transactions: txs("0x1")}
	c := s.Clone()
	c.Transactions[0].Hash = "changed"
	assert.Equal(t, "0x1", s.Transactions[0].Hash)
}
