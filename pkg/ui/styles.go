// Package ui provides the Bubble Tea TUI for the wallet dashboard.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	session "github.com/fd1az/wallet-dashboard/business/session/domain"
)

// Palette holds the colors of one theme.
type Palette struct {
	Primary lipgloss.Color
	Sent    lipgloss.Color
	Success lipgloss.Color
	Danger  lipgloss.Color
	Warning lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Surface lipgloss.Color
}

var (
	darkPalette = Palette{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Sent:    lipgloss.Color("#F97316"), // Orange
		Success: lipgloss.Color("#10B981"), // Green
		Danger:  lipgloss.Color("#EF4444"), // Red
		Warning: lipgloss.Color("#F59E0B"), // Amber
		Text:    lipgloss.Color("#F9FAFB"),
		Muted:   lipgloss.Color("#6B7280"),
		Border:  lipgloss.Color("#374151"),
		Surface: lipgloss.Color("#1F2937"),
	}

	lightPalette = Palette{
		Primary: lipgloss.Color("#6D28D9"),
		Sent:    lipgloss.Color("#C2410C"),
		Success: lipgloss.Color("#047857"),
		Danger:  lipgloss.Color("#B91C1C"),
		Warning: lipgloss.Color("#B45309"),
		Text:    lipgloss.Color("#111827"),
		Muted:   lipgloss.Color("#4B5563"),
		Border:  lipgloss.Color("#D1D5DB"),
		Surface: lipgloss.Color("#F3F4F6"),
	}
)

// Styles is the rendered style set for a theme.
type Styles struct {
	Palette Palette

	Box    lipgloss.Style
	Title  lipgloss.Style
	Header lipgloss.Style
	Muted  lipgloss.Style
	Text   lipgloss.Style
	Help   lipgloss.Style

	Connected    lipgloss.Style
	Disconnected lipgloss.Style
	ThemeBadge   lipgloss.Style

	ChainActive   lipgloss.Style
	ChainInactive lipgloss.Style

	Sent     lipgloss.Style
	Received lipgloss.Style
	Selected lipgloss.Style

	StatusConfirmed lipgloss.Style
	StatusPending   lipgloss.Style
	StatusFailed    lipgloss.Style

	ErrorBanner lipgloss.Style
	Flash       lipgloss.Style
	Spinner     lipgloss.Style
}

// NewStyles builds the style set for theme. Unknown themes render dark.
func NewStyles(theme session.Theme) Styles {
	p := darkPalette
	if theme == session.ThemeLight {
		p = lightPalette
	}

	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true)

	return Styles{
		Palette: p,

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Primary).
			Padding(0, 2),
		Header: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Muted:  lipgloss.NewStyle().Foreground(p.Muted),
		Text:   lipgloss.NewStyle().Foreground(p.Text),
		Help:   lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),

		Connected:    lipgloss.NewStyle().Foreground(p.Success).Bold(true),
		Disconnected: lipgloss.NewStyle().Foreground(p.Danger).Bold(true),
		ThemeBadge:   badge.Foreground(p.Muted),

		ChainActive: badge.
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Primary),
		ChainInactive: badge.Foreground(p.Muted),

		Sent:     lipgloss.NewStyle().Foreground(p.Sent).Bold(true),
		Received: lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Selected: lipgloss.NewStyle().Background(p.Surface),

		StatusConfirmed: lipgloss.NewStyle().Foreground(p.Success),
		StatusPending:   lipgloss.NewStyle().Foreground(p.Warning),
		StatusFailed:    lipgloss.NewStyle().Foreground(p.Danger),

		ErrorBanner: lipgloss.NewStyle().
			Foreground(p.Danger).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(p.Danger).
			Padding(0, 1),
		Flash:   lipgloss.NewStyle().Foreground(p.Success).Bold(true),
		Spinner: lipgloss.NewStyle().Foreground(p.Primary),
	}
}

// ResolveTheme returns saved when it is a valid theme, otherwise a theme
// matching the terminal background.
func ResolveTheme(saved session.Theme) session.Theme {
	if saved.Valid() {
		return saved
	}
	if lipgloss.HasDarkBackground() {
		return session.ThemeDark
	}
	return session.ThemeLight
}
