package ui

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	session "github.com/fd1az/wallet-dashboard/business/session/domain"
	"github.com/fd1az/wallet-dashboard/internal/asset"
)

// FlashDuration is how long the "Copied!" confirmation stays visible.
const FlashDuration = 2 * time.Second

// Controller is the subset of the session store the dashboard drives.
// Actions may block on wallet prompts, so they run inside tea commands.
type Controller interface {
	Snapshot() session.Session
	Subscribe(l func(session.Session)) func()
	Connect(ctx context.Context)
	Disconnect(ctx context.Context)
	SetChain(ctx context.Context, c chain.Chain)
	FetchHistory(ctx context.Context)
	SaveTheme(ctx context.Context, t session.Theme)
}

// Option configures a Model.
type Option func(*Model)

// WithTheme sets the initial theme.
func WithTheme(t session.Theme) Option {
	return func(m *Model) {
		m.theme = t
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		m.copyText = fn
	}
}

// WithBrowser replaces the URL opener.
func WithBrowser(fn func(string) error) Option {
	return func(m *Model) {
		m.openURL = fn
	}
}

// WithClock replaces time.Now for relative timestamps.
func WithClock(fn func() time.Time) Option {
	return func(m *Model) {
		m.now = fn
	}
}

// Model is the main Bubble Tea model for the dashboard.
type Model struct {
	ctl    Controller
	prices *asset.PriceTable

	session session.Session
	theme   session.Theme
	styles  Styles
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	selected int
	flash    string
	flashOK  bool
	flashID  int

	width    int
	height   int
	quitting bool

	copyText func(string) error
	openURL  func(string) error
	now      func() time.Time
}

// New creates the dashboard model seeded with the controller's snapshot.
func New(ctl Controller, prices *asset.PriceTable, opts ...Option) Model {
	m := Model{
		ctl:      ctl,
		prices:   prices,
		session:  ctl.Snapshot(),
		theme:    session.ThemeDark,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		copyText: clipboard.WriteAll,
		openURL:  openBrowser,
		now:      time.Now,
	}
	for _, o := range opts {
		o(&m)
	}
	if m.prices == nil {
		m.prices = asset.DefaultPriceTable()
	}

	m.styles = NewStyles(m.theme)
	m.spinner = spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(m.styles.Spinner),
	)
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case SessionMsg:
		// Listeners run on store goroutines, so snapshots may arrive out of order.
		if msg.Session.Rev < m.session.Rev {
			return m, nil
		}
		m.session = msg.Session
		m.clampSelection()

	case flashMsg:
		return m.setFlash(msg.text, msg.ok)

	case clearFlashMsg:
		if msg.id == m.flashID {
			m.flash = ""
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Connect):
		if !m.session.IsConnected {
			return m, m.action(m.ctl.Connect)
		}

	case key.Matches(msg, m.keys.Disconnect):
		if m.session.IsConnected {
			return m, m.action(m.ctl.Disconnect)
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.session.IsConnected {
			return m, m.action(m.ctl.FetchHistory)
		}

	case key.Matches(msg, m.keys.PrevChain):
		return m, m.selectChain(m.chainOffset(-1))

	case key.Matches(msg, m.keys.NextChain):
		return m, m.selectChain(m.chainOffset(1))

	case key.Matches(msg, m.keys.PickChain):
		all := chain.All()
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(all) {
			return m, m.selectChain(all[idx])
		}

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.session.Transactions)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Copy):
		if m.session.Address == "" {
			return m, nil
		}
		if err := m.copyText(m.session.Address); err != nil {
			return m.setFlash("Failed to copy address", false)
		}
		return m.setFlash("Copied!", true)

	case key.Matches(msg, m.keys.Open):
		if tx, ok := m.selectedTx(); ok {
			return m, m.browse(chain.Lookup(tx.Chain).TxURL(tx.Hash))
		}

	case key.Matches(msg, m.keys.Explorer):
		if m.session.IsConnected && m.session.Address != "" {
			return m, m.browse(chain.Lookup(m.session.SelectedChain).AddressURL(m.session.Address))
		}

	case key.Matches(msg, m.keys.Theme):
		m.theme = m.theme.Toggle()
		m.styles = NewStyles(m.theme)
		m.spinner.Style = m.styles.Spinner
		theme, ctl := m.theme, m.ctl
		return m, func() tea.Msg {
			ctl.SaveTheme(context.Background(), theme)
			return nil
		}
	}

	return m, nil
}

// browse opens url off the UI goroutine and flashes on failure.
func (m Model) browse(url string) tea.Cmd {
	open := m.openURL
	return func() tea.Msg {
		if err := open(url); err != nil {
			return flashMsg{text: "Failed to open browser"}
		}
		return nil
	}
}

// action runs a store action off the UI goroutine. Results come back as
// SessionMsg through the store subscription.
func (m Model) action(fn func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(context.Background())
		return nil
	}
}

func (m Model) selectChain(c chain.Chain) tea.Cmd {
	if c == m.session.SelectedChain {
		return nil
	}
	ctl := m.ctl
	return func() tea.Msg {
		ctl.SetChain(context.Background(), c)
		return nil
	}
}

func (m Model) chainOffset(delta int) chain.Chain {
	all := chain.All()
	i := chain.Index(m.session.SelectedChain)
	if i < 0 {
		return chain.Default()
	}
	return all[(i+delta+len(all))%len(all)]
}

func (m Model) setFlash(text string, ok bool) (Model, tea.Cmd) {
	m.flashID++
	m.flash = text
	m.flashOK = ok
	id := m.flashID
	return m, tea.Tick(FlashDuration, func(time.Time) tea.Msg {
		return clearFlashMsg{id: id}
	})
}

func (m *Model) clampSelection() {
	n := len(m.session.Transactions)
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// Theme returns the active theme.
func (m Model) Theme() session.Theme {
	return m.theme
}

// Run starts the Bubble Tea program and forwards store updates to it until
// the user quits.
func Run(ctl Controller, prices *asset.PriceTable, opts ...Option) error {
	p := tea.NewProgram(New(ctl, prices, opts...), tea.WithAltScreen())

	unsubscribe := ctl.Subscribe(func(s session.Session) {
		p.Send(SessionMsg{Session: s})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

// openBrowser opens url in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
