package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	history "github.com/fd1az/wallet-dashboard/business/history/domain"
	"github.com/fd1az/wallet-dashboard/internal/asset"
)

// valuePlaces is the number of decimals shown for transfer amounts.
const valuePlaces = 4

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(m.renderNavbar())
	b.WriteString("\n\n")
	b.WriteString(m.renderChainSelector())
	b.WriteString("\n\n")

	if m.session.HasError() {
		b.WriteString(m.styles.ErrorBanner.Render(m.session.Error))
		b.WriteString("\n\n")
	}

	width := m.width - 4
	if width < 40 {
		width = 76
	}
	b.WriteString(m.styles.Box.Width(width).Render(m.renderBody()))
	b.WriteString("\n")

	if m.flash != "" {
		style := m.styles.Flash
		if !m.flashOK {
			style = m.styles.Disconnected
		}
		b.WriteString(style.Render(" " + m.flash))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderNavbar() string {
	info := chain.Lookup(m.session.SelectedChain)

	parts := []string{
		m.styles.Title.Render("Wallet Dashboard"),
		m.styles.Header.Render(info.Name),
	}

	if m.session.IsConnected {
		parts = append(parts,
			m.styles.Connected.Render("● Connected"),
			m.styles.Text.Render(ShortAddress(m.session.Address)))
	} else {
		parts = append(parts, m.styles.Disconnected.Render("○ Disconnected"))
	}

	parts = append(parts, m.styles.ThemeBadge.Render(string(m.theme)))
	return strings.Join(parts, "  ")
}

func (m Model) renderChainSelector() string {
	all := chain.All()
	tabs := make([]string, 0, len(all))
	for i, c := range all {
		label := fmt.Sprintf("%d %s", i+1, chain.Lookup(c).Name)
		if c == m.session.SelectedChain {
			tabs = append(tabs, m.styles.ChainActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.ChainInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderBody() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("RECENT TRANSACTIONS"))
	b.WriteString("\n\n")

	switch {
	case !m.session.IsConnected:
		b.WriteString(m.styles.Muted.Render("Connect your wallet to view transactions (press w)"))
	case m.session.IsLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Muted.Render(" Loading transactions..."))
	case len(m.session.Transactions) == 0:
		b.WriteString(m.styles.Muted.Render("No transactions found on " + chain.Lookup(m.session.SelectedChain).Name))
	default:
		rows := make([]string, 0, len(m.session.Transactions))
		for i, tx := range m.session.Transactions {
			rows = append(rows, m.renderTx(tx, i == m.selected))
		}
		b.WriteString(strings.Join(rows, "\n"))
	}

	return b.String()
}

func (m Model) renderTx(tx history.Transaction, selected bool) string {
	var arrow, label, sign, peer string
	var dirStyle lipgloss.Style
	if tx.Direction == history.DirectionSent {
		arrow, label, sign, peer = "↗", "Sent", "-", "to"
		dirStyle = m.styles.Sent
	} else {
		arrow, label, sign, peer = "↙", "Received", "+", "from"
		dirStyle = m.styles.Received
	}

	counterparty := ShortAddress(tx.Counterparty())
	if counterparty == "" {
		counterparty = "contract creation"
	}

	cursor := "  "
	if selected {
		cursor = "› "
	}

	line := fmt.Sprintf("%s%s %-17s %s %-13s %s %s  %s",
		cursor,
		dirStyle.Render(arrow),
		dirStyle.Render(label+" "+tx.Asset),
		m.statusBadge(tx.Status),
		m.styles.Muted.Render(peer+" "+counterparty),
		dirStyle.Render(sign+asset.FormatAmount(tx.Value, valuePlaces)+" "+tx.Asset),
		m.styles.Muted.Render("≈ "+asset.FormatUSD(m.prices.USDValue(tx.Asset, tx.Value))),
		m.styles.Muted.Render(RelativeTime(tx.Timestamp, m.now())),
	)

	if selected {
		return m.styles.Selected.Render(line)
	}
	return line
}

func (m Model) statusBadge(s history.Status) string {
	switch s {
	case history.StatusPending:
		return m.styles.StatusPending.Render("◷ pending")
	case history.StatusFailed:
		return m.styles.StatusFailed.Render("✗ failed")
	default:
		return m.styles.StatusConfirmed.Render("✓ confirmed")
	}
}

func (m Model) selectedTx() (history.Transaction, bool) {
	if !m.session.IsConnected || m.selected < 0 || m.selected >= len(m.session.Transactions) {
		return history.Transaction{}, false
	}
	return m.session.Transactions[m.selected], true
}

// ShortAddress renders 0x1234...abcd. Short inputs are returned unchanged.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// RelativeTime renders t relative to now, e.g. "5 minutes ago". The zero
// time renders as "unknown time".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}

	d := now.Sub(t)
	if d < 0 {
		return "just now"
	}

	switch {
	case d < time.Minute:
		return "less than a minute ago"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
