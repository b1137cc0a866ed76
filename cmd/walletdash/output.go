package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	history "github.com/fd1az/wallet-dashboard/business/history/domain"
	"github.com/fd1az/wallet-dashboard/internal/asset"
	"github.com/fd1az/wallet-dashboard/pkg/ui"
)

// writeJSON prints transactions as an indented JSON array. An empty
// history prints [].
func writeJSON(w io.Writer, txs []history.Transaction) error {
	if txs == nil {
		txs = []history.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(txs)
}

func writeTable(w io.Writer, txs []history.Transaction, prices *asset.PriceTable) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, "No transactions found.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "TYPE", "COUNTERPARTY", "VALUE", "USD", "STATUS", "HASH")

	for _, tx := range txs {
		ts := "unknown"
		if !tx.Timestamp.IsZero() {
			ts = tx.Timestamp.UTC().Format(time.DateTime)
		}
		t.Row(
			ts,
			string(tx.Direction),
			ui.ShortAddress(tx.Counterparty()),
			asset.FormatAmount(tx.Value, 4)+" "+tx.Asset,
			asset.FormatUSD(prices.USDValue(tx.Asset, tx.Value)),
			string(tx.Status),
			chain.Lookup(tx.Chain).TxURL(tx.Hash),
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeChains(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ID", "NAME", "CURRENCY", "CHAIN ID", "EXPLORER")

	for i, c := range chain.All() {
		info := chain.Lookup(c)
		t.Row(
			strconv.Itoa(i+1),
			c.String(),
			info.Name,
			info.NativeCurrency,
			strconv.FormatUint(info.ChainID, 10),
			info.ExplorerURL,
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
