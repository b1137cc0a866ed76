package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	history "github.com/fd1az/wallet-dashboard/business/history/domain"
	session "github.com/fd1az/wallet-dashboard/business/session/domain"
	"github.com/fd1az/wallet-dashboard/internal/asset"
)

const addr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type fakeController struct {
	mu       sync.Mutex
	snapshot session.Session
	calls    []string
	chains   []chain.Chain
	themes   []session.Theme
}

func (f *fakeController) Snapshot() session.Session { return f.snapshot }

func (f *fakeController) Subscribe(l func(session.Session)) func() { return func() {} }

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Connect(ctx context.Context)      { f.record("connect") }
func (f *fakeController) Disconnect(ctx context.Context)   { f.record("disconnect") }
func (f *fakeController) FetchHistory(ctx context.Context) { f.record("fetch") }

func (f *fakeController) SetChain(ctx context.Context, c chain.Chain) {
	f.record("chain")
	f.chains = append(f.chains, c)
}

func (f *fakeController) SaveTheme(ctx context.Context, t session.Theme) {
	f.record("theme")
	f.themes = append(f.themes, t)
}

var _ Controller = (*fakeController)(nil)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

// runCmd runs a command synchronously, the way the Bubble Tea runtime would.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func connected(c chain.Chain, txs ...history.Transaction) session.Session {
	return session.Session{
		ID:            "s1",
		Address:       addr,
		IsConnected:   true,
		SelectedChain: c,
		Transactions:  txs,
		Rev:           1,
	}
}

func sampleTx(hash string, dir history.Direction, value string, assetSym string, at time.Time) history.Transaction {
	to := "0x1111111111111111111111111111111111111111"
	return history.Transaction{
		Hash:      hash,
		From:      addr,
		To:        &to,
		Value:     decimal.RequireFromString(value),
		Timestamp: at,
		Chain:     chain.EthMainnet,
		Direction: dir,
		Status:    history.StatusConfirmed,
		Asset:     assetSym,
	}
}

func TestUpdate_DropsOlderSnapshots(t *testing.T) {
	ctl := &fakeController{snapshot: session.New("s1", chain.EthMainnet)}
	m := New(ctl, nil)

	newer := connected(chain.EthMainnet)
	newer.Rev = 5
	next, _ := m.Update(SessionMsg{Session: newer})
	m = next.(Model)

	older := session.New("s1", chain.EthMainnet)
	older.Rev = 3
	next, _ = m.Update(SessionMsg{Session: older})
	m = next.(Model)

	assert.True(t, m.session.IsConnected)
	assert.Equal(t, uint64(5), m.session.Rev)
}

func TestKeys_Actions(t *testing.T) {
	tests := []struct {
		name      string
		session   session.Session
		key       tea.KeyMsg
		wantCalls []string
	}{
		{"connect when disconnected", session.New("s1", chain.EthMainnet), runes("w"), []string{"connect"}},
		{"connect ignored when connected", connected(chain.EthMainnet), runes("w"), nil},
		{"disconnect", connected(chain.EthMainnet), runes("d"), []string{"disconnect"}},
		{"disconnect ignored when disconnected", session.New("s1", chain.EthMainnet), runes("d"), nil},
		{"refresh", connected(chain.EthMainnet), runes("r"), []string{"fetch"}},
		{"refresh ignored when disconnected", session.New("s1", chain.EthMainnet), runes("r"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{snapshot: tt.session}
			m := New(ctl, nil)

			_, cmd := press(t, m, tt.key)
			runCmd(cmd)

			assert.Equal(t, tt.wantCalls, ctl.calls)
		})
	}
}

func TestKeys_ChainSelection(t *testing.T) {
	tests := []struct {
		name    string
		current chain.Chain
		key     tea.KeyMsg
		want    []chain.Chain
	}{
		{"digit picks chain", chain.EthMainnet, runes("3"), []chain.Chain{chain.MaticMainnet}},
		{"right moves forward", chain.EthMainnet, tea.KeyMsg{Type: tea.KeyRight}, []chain.Chain{chain.EthSepolia}},
		{"right wraps", chain.ArbMainnet, tea.KeyMsg{Type: tea.KeyRight}, []chain.Chain{chain.EthMainnet}},
		{"left wraps", chain.EthMainnet, tea.KeyMsg{Type: tea.KeyLeft}, []chain.Chain{chain.ArbMainnet}},
		{"same chain is a no-op", chain.EthSepolia, runes("2"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{snapshot: session.New("s1", tt.current)}
			m := New(ctl, nil)

			_, cmd := press(t, m, tt.key)
			runCmd(cmd)

			assert.Equal(t, tt.want, ctl.chains)
		})
	}
}

func TestCopy_FlashesAndClears(t *testing.T) {
	var copied string
	ctl := &fakeController{snapshot: connected(chain.EthMainnet)}
	m := New(ctl, nil, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))

	m, cmd := press(t, m, runes("c"))
	require.NotNil(t, cmd)
	assert.Equal(t, addr, copied)
	assert.Equal(t, "Copied!", m.flash)
	assert.Contains(t, m.View(), "Copied!")

	// A second copy restarts the timer; the first clear must not hide it.
	first := m.flashID
	m, _ = press(t, m, runes("c"))
	next, _ := m.Update(clearFlashMsg{id: first})
	m = next.(Model)
	assert.Equal(t, "Copied!", m.flash)

	next, _ = m.Update(clearFlashMsg{id: m.flashID})
	m = next.(Model)
	assert.Empty(t, m.flash)
}

func TestCopy_Failure(t *testing.T) {
	ctl := &fakeController{snapshot: connected(chain.EthMainnet)}
	m := New(ctl, nil, WithClipboard(func(string) error { return errors.New("no clipboard") }))

	m, _ = press(t, m, runes("c"))
	assert.Equal(t, "Failed to copy address", m.flash)
	assert.False(t, m.flashOK)
}

func TestCopy_NothingWhenDisconnected(t *testing.T) {
	called := false
	ctl := &fakeController{snapshot: session.New("s1", chain.EthMainnet)}
	m := New(ctl, nil, WithClipboard(func(string) error {
		called = true
		return nil
	}))

	m, cmd := press(t, m, runes("c"))
	assert.Nil(t, cmd)
	assert.False(t, called)
	assert.Empty(t, m.flash)
}

func TestOpen_SelectedTransaction(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	txs := []history.Transaction{
		sampleTx("0xaaa", history.DirectionSent, "1", "ETH", now),
		sampleTx("0xbbb", history.DirectionReceived, "2", "ETH", now.Add(-time.Hour)),
	}

	var opened string
	ctl := &fakeController{snapshot: connected(chain.EthMainnet, txs...)}
	m := New(ctl, nil, WithBrowser(func(u string) error {
		opened = u
		return nil
	}))

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)

	_, cmd := press(t, m, runes("o"))
	assert.Nil(t, runCmd(cmd))
	assert.Equal(t, "https://etherscan.io/tx/0xbbb", opened)
}

func TestExplorer_OpensConnectedAddress(t *testing.T) {
	tests := []struct {
		name    string
		session session.Session
		want    string
	}{
		{"mainnet", connected(chain.EthMainnet), "https://etherscan.io/address/" + addr},
		{"polygon", connected(chain.MaticMainnet), "https://polygonscan.com/address/" + addr},
		{"disconnected", session.Session{SelectedChain: chain.EthMainnet}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened string
			m := New(&fakeController{snapshot: tt.session}, nil, WithBrowser(func(u string) error {
				opened = u
				return nil
			}))

			_, cmd := press(t, m, runes("e"))
			if tt.want == "" {
				assert.Nil(t, cmd)
				return
			}
			assert.Nil(t, runCmd(cmd))
			assert.Equal(t, tt.want, opened)
		})
	}
}

func TestOpen_FailureFlashes(t *testing.T) {
	now := time.Now()
	ctl := &fakeController{snapshot: connected(chain.EthMainnet, sampleTx("0xaaa", history.DirectionSent, "1", "ETH", now))}
	m := New(ctl, nil, WithBrowser(func(string) error { return errors.New("no browser") }))

	_, cmd := press(t, m, runes("o"))
	msg := runCmd(cmd)
	require.IsType(t, flashMsg{}, msg)

	next, _ := m.Update(msg)
	assert.Equal(t, "Failed to open browser", next.(Model).flash)
}

func TestSelection_ClampedWhenListShrinks(t *testing.T) {
	now := time.Now()
	ctl := &fakeController{snapshot: connected(chain.EthMainnet,
		sampleTx("0x1", history.DirectionSent, "1", "ETH", now),
		sampleTx("0x2", history.DirectionSent, "1", "ETH", now),
		sampleTx("0x3", history.DirectionSent, "1", "ETH", now),
	)}
	m := New(ctl, nil)
	m.selected = 2

	shorter := connected(chain.EthMainnet, sampleTx("0x1", history.DirectionSent, "1", "ETH", now))
	shorter.Rev = 2
	next, _ := m.Update(SessionMsg{Session: shorter})
	assert.Equal(t, 0, next.(Model).selected)
}

func TestTheme_TogglePersists(t *testing.T) {
	ctl := &fakeController{snapshot: session.New("s1", chain.EthMainnet)}
	m := New(ctl, nil, WithTheme(session.ThemeDark))

	m, cmd := press(t, m, runes("t"))
	runCmd(cmd)

	assert.Equal(t, session.ThemeLight, m.Theme())
	assert.Equal(t, []session.Theme{session.ThemeLight}, ctl.themes)
	assert.Contains(t, m.View(), "light")
}

func TestView_States(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	loading := connected(chain.EthMainnet)
	loading.IsLoading = true

	failed := connected(chain.MaticMainnet)
	failed.Error = session.MsgFetchFailed

	tests := []struct {
		name    string
		session session.Session
		want    []string
	}{
		{"disconnected", session.New("s1", chain.EthMainnet), []string{"Disconnected", "Connect your wallet"}},
		{"loading", loading, []string{"Connected", "0x5aAe...eAed", "Loading transactions"}},
		{"empty", connected(chain.ArbMainnet), []string{"No transactions found on Arbitrum"}},
		{"error", failed, []string{"Failed to load transactions."}},
		{
			"transactions",
			connected(chain.EthMainnet,
				sampleTx("0xaaa", history.DirectionSent, "0.5", "ETH", now.Add(-5*time.Minute)),
				sampleTx("0xbbb", history.DirectionReceived, "12.3456789", "USDC", now.Add(-3*time.Hour)),
				sampleTx("0xccc", history.DirectionReceived, "7", "PEPE", now.Add(-48*time.Hour)),
			),
			[]string{
				"Sent ETH", "-0.5 ETH", "≈ $1,400.00", "5 minutes ago",
				"Received USDC", "+12.3457 USDC", "≈ $12.35", "3 hours ago",
				"≈ $0.00", "2 days ago", "✓ confirmed",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{snapshot: tt.session}
			m := New(ctl, asset.DefaultPriceTable(), WithClock(func() time.Time { return now }))
			next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})

			view := next.(Model).View()
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}

func TestQuit(t *testing.T) {
	ctl := &fakeController{snapshot: session.New("s1", chain.EthMainnet)}
	m, cmd := press(t, New(ctl, nil), runes("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "Goodbye")
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x5aAe...eAed", ShortAddress(addr))
	assert.Equal(t, "0x1234", ShortAddress("0x1234"))
	assert.Equal(t, "", ShortAddress(""))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "unknown time"},
		{now.Add(time.Minute), "just now"},
		{now.Add(-30 * time.Second), "less than a minute ago"},
		{now.Add(-time.Minute), "1 minute ago"},
		{now.Add(-59 * time.Minute), "59 minutes ago"},
		{now.Add(-2 * time.Hour), "2 hours ago"},
		{now.Add(-24 * time.Hour), "1 day ago"},
		{now.Add(-60 * 24 * time.Hour), "2 months ago"},
		{now.Add(-800 * 24 * time.Hour), "2 years ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(tt.at, now))
		})
	}
}
