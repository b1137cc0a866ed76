package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	historyApp "github.com/fd1az/wallet-dashboard/business/history/app"
	history "github.com/fd1az/wallet-dashboard/business/history/domain"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/asset"
)

type fakeFetcher struct {
	txs     []history.Transaction
	err     error
	address string
	chain   chain.Chain
}

func (f *fakeFetcher) Fetch(ctx context.Context, address string, c chain.Chain) ([]history.Transaction, error) {
	f.address, f.chain = address, c
	return f.txs, f.err
}

var _ historyApp.HistoryFetcher = (*fakeFetcher)(nil)

type opened struct {
	calls  int
	closed bool
}

func opener(f *fakeFetcher, o *opened) fetcherOpener {
	return func(ctx context.Context, path string) (historyApp.HistoryFetcher, io.Closer, error) {
		o.calls++
		return f, closerFunc(func() error {
			o.closed = true
			return nil
		}), nil
	}
}

func run(t *testing.T, f *fakeFetcher, o *opened, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := buildApp(&out, opener(f, o), asset.DefaultPriceTable())
	err := app.Run(t.Context(), append([]string{"walletdash"}, args...))
	return out.String(), err
}

func TestHistoryCommand_Metadata(t *testing.T) {
	cmd := historyCommand(io.Discard, nil, asset.DefaultPriceTable())

	assert.Equal(t, "history", cmd.Name)
	require.Len(t, cmd.Flags, 3)

	addressFlag := cmd.Flags[0].(*cli.StringFlag)
	assert.Equal(t, "address", addressFlag.Name)
	assert.True(t, addressFlag.Required)

	chainFlag := cmd.Flags[1].(*cli.StringFlag)
	assert.Equal(t, "chain", chainFlag.Name)
	assert.Equal(t, "ETH_MAINNET", chainFlag.Value)
}

func TestHistoryCommand_JSON(t *testing.T) {
	to := "0x1111111111111111111111111111111111111111"
	f := &fakeFetcher{txs: []history.Transaction{{
		Hash:      "0xabc",
		From:      "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		To:        &to,
		Value:     decimal.RequireFromString("1.5"),
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Chain:     chain.MaticMainnet,
		Direction: history.DirectionSent,
		Status:    history.StatusConfirmed,
		Asset:     "MATIC",
	}}}
	o := &opened{}

	out, err := run(t, f, o, "history",
		"--address", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"--chain", "polygon",
		"--json")
	require.NoError(t, err)

	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", f.address)
	assert.Equal(t, chain.MaticMainnet, f.chain)
	assert.True(t, o.closed)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "0xabc", got[0]["hash"])
	assert.Equal(t, "sent", got[0]["type"])
	assert.Equal(t, "2024-05-01T12:00:00Z", got[0]["timestamp"])
}

func TestHistoryCommand_Table(t *testing.T) {
	f := &fakeFetcher{txs: []history.Transaction{{
		Hash:      "0xdef",
		From:      "0x2222222222222222222222222222222222222222",
		Value:     decimal.NewFromInt(2),
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Chain:     chain.EthMainnet,
		Direction: history.DirectionReceived,
		Status:    history.StatusConfirmed,
		Asset:     "ETH",
	}}}

	out, err := run(t, f, &opened{}, "history", "--address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)

	assert.Contains(t, out, "received")
	assert.Contains(t, out, "0x2222...2222")
	assert.Contains(t, out, "$5,600.00")
	assert.Contains(t, out, "https://etherscan.io/tx/0xdef")
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, err := run(t, &fakeFetcher{}, &opened{}, "history", "--address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found.")

	out, err = run(t, &fakeFetcher{}, &opened{}, "history", "--address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistoryCommand_Errors(t *testing.T) {
	fetchErr := apperror.New(apperror.CodeHistoryFetchFailed)

	tests := []struct {
		name       string
		args       []string
		fetchErr   error
		wantCode   apperror.Code
		wantOpened bool
	}{
		{
			name:     "invalid address",
			args:     []string{"--address", "not-an-address"},
			wantCode: apperror.CodeInvalidAddress,
		},
		{
			name:     "unknown chain",
			args:     []string{"--address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "--chain", "solana"},
			wantCode: apperror.CodeUnknownChain,
		},
		{
			name:       "fetch failure",
			args:       []string{"--address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
			fetchErr:   fetchErr,
			wantCode:   apperror.CodeHistoryFetchFailed,
			wantOpened: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &opened{}
			_, err := run(t, &fakeFetcher{err: tt.fetchErr}, o, append([]string{"history"}, tt.args...)...)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
			assert.Equal(t, tt.wantOpened, o.calls == 1)
			assert.Equal(t, tt.wantOpened, o.closed)
		})
	}
}

func TestHistoryCommand_OpenFailure(t *testing.T) {
	var out bytes.Buffer
	failing := func(ctx context.Context, path string) (historyApp.HistoryFetcher, io.Closer, error) {
		return nil, nil, errors.New("bad config")
	}
	app := buildApp(&out, failing, asset.DefaultPriceTable())

	err := app.Run(t.Context(), []string{"walletdash", "history", "--address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"})
	assert.EqualError(t, err, "bad config")
}

func TestChainsCommand(t *testing.T) {
	out, err := run(t, &fakeFetcher{}, &opened{}, "chains")
	require.NoError(t, err)

	for _, want := range []string{
		"ETH_MAINNET", "ETH_SEPOLIA", "MATIC_MAINNET", "ARB_MAINNET",
		"Polygon", "MATIC", "42161", "https://arbiscan.io",
	} {
		assert.Contains(t, out, want)
	}
}
