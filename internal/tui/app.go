package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ble"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/connection"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/scanner"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/session"
)

// Messages for async operations
type scanDoneMsg struct{ err error }

type connectDoneMsg struct {
	id     string
	report *connection.Report
	err    error
}

type disconnectDoneMsg struct {
	id  string
	err error
}

// logBoxHeight is the number of log lines visible at once
const logBoxHeight = 8

// appKeyMap defines key bindings for the main screen
type appKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Connect    key.Binding
	Disconnect key.Binding
	Rescan     key.Binding
	LogUp      key.Binding
	LogDown    key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k appKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Connect, k.Disconnect, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k appKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Connect, k.Disconnect},
		{k.Rescan, k.LogUp, k.LogDown, k.Quit},
	}
}

// alertKeyMap is active while an alert is shown
type alertKeyMap struct {
	Dismiss key.Binding
	Close   key.Binding
}

func (k alertKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dismiss, k.Close}
}

func (k alertKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Dismiss, k.Close}}
}

func newAppKeyMap() appKeyMap {
	return appKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Connect: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "connect"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "disconnect"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		LogUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "log up"),
		),
		LogDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "log down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Deps are the session components the screen drives
type Deps struct {
	Session *session.State
	Scanner *scanner.Scanner
	Manager *connection.Manager

	// Stack is the BLE library revision shown in the header
	Stack string
}

// AppModel is the single interactive screen: device list, device cards,
// log box and alert overlay.
type AppModel struct {
	deps Deps
	ctx  context.Context

	Devices  list.Model
	Cards    map[string]session.Card
	Log      viewport.Model
	LogLines []session.LogLine
	Alerts   []session.Alert

	// Available is nil until the first availability check completes
	Available *bool
	Scanning  bool
	ScanErr   error

	Width     int
	Height    int
	Spinner   spinner.Model
	Help      help.Model
	Keys      appKeyMap
	AlertKeys alertKeyMap
}

// NewAppModel creates the screen. The scan starts from Init; ctx bounds
// every scan, connect and disconnect the screen starts.
func NewAppModel(ctx context.Context, deps Deps) AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	devices := list.New([]list.Item{}, deviceDelegate{}, MinTerminalWidth, 10)
	devices.Title = "Devices"
	devices.SetShowStatusBar(false)
	devices.SetFilteringEnabled(false)
	devices.SetShowHelp(false)
	devices.Styles.Title = TitleStyle

	return AppModel{
		deps:     deps,
		ctx:      ctx,
		Devices:  devices,
		Cards:    make(map[string]session.Card),
		Log:      viewport.New(MinTerminalWidth, logBoxHeight),
		Scanning: true,
		Spinner:  s,
		Help:     help.New(),
		Keys:     newAppKeyMap(),
		AlertKeys: alertKeyMap{
			Dismiss: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "ok"),
			),
			Close: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "close"),
			),
		},
	}
}

// Init starts the scanner
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.scan(), m.Spinner.Tick)
}

// Update handles messages and updates the model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if len(m.Alerts) > 0 {
			return m.updateAlert(msg)
		}
		return m.updateKeys(msg)

	case DeviceFoundMsg:
		item := deviceItem{device: msg.Device, nickname: m.nickname(msg.Device.ID)}
		cmd := m.Devices.InsertItem(len(m.Devices.Items()), item)
		return m, cmd

	case DeviceUpdatedMsg:
		if i, item, ok := m.findItem(msg.Device.ID); ok {
			item.device = msg.Device
			return m, m.Devices.SetItem(i, item)
		}
		return m, nil

	case CardMsg:
		m.Cards[msg.Card.DeviceID] = msg.Card
		if i, item, ok := m.findItem(msg.Card.DeviceID); ok {
			item.active = msg.Card.Status == session.StatusConnected
			if msg.Card.Nickname != "" {
				item.nickname = msg.Card.Nickname
			}
			return m, m.Devices.SetItem(i, item)
		}
		return m, nil

	case LogMsg:
		follow := m.Log.AtBottom()
		m.LogLines = append(m.LogLines, msg.Line)
		m.Log.SetContent(RenderLog(m.LogLines))
		if follow {
			m.Log.GotoBottom()
		}
		return m, nil

	case AlertMsg:
		m.Alerts = append(m.Alerts, msg.Alert)
		return m, nil

	case AvailabilityMsg:
		available := msg.Available
		m.Available = &available
		return m, nil

	case scanDoneMsg:
		m.Scanning = false
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.ScanErr = msg.err
		}
		return m, nil

	case connectDoneMsg:
		if msg.err != nil {
			logging.Warn("Connect failed", zap.String("device_id", msg.id), zap.Error(msg.err))
		}
		return m, nil

	case disconnectDoneMsg:
		if msg.err != nil {
			logging.Warn("Disconnect failed", zap.String("device_id", msg.id), zap.Error(msg.err))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateAlert handles keys while an alert is shown. Blocking alerts only
// close on enter.
func (m AppModel) updateAlert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	front := m.Alerts[0]
	if key.Matches(msg, m.AlertKeys.Dismiss) || (!front.Blocking && key.Matches(msg, m.AlertKeys.Close)) {
		m.Alerts = m.Alerts[1:]
	}
	return m, nil
}

func (m AppModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Connect):
		if id, ok := m.SelectedID(); ok {
			return m, m.connect(id)
		}
		return m, nil

	case key.Matches(msg, m.Keys.Disconnect):
		if id, ok := m.SelectedID(); ok {
			if card, ok := m.Cards[id]; ok && card.Status == session.StatusConnected {
				return m, m.disconnect(id)
			}
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil
		}
		m.Scanning = true
		m.ScanErr = nil
		return m, tea.Batch(m.scan(), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.LogUp, m.Keys.LogDown):
		var cmd tea.Cmd
		m.Log, cmd = m.Log.Update(msg)
		return m, cmd
	}

	// Let the list handle up/down navigation
	var cmd tea.Cmd
	m.Devices, cmd = m.Devices.Update(msg)
	return m, cmd
}

// SelectedID returns the id of the highlighted device
func (m AppModel) SelectedID() (string, bool) {
	item, ok := m.Devices.SelectedItem().(deviceItem)
	if !ok {
		return "", false
	}
	return item.device.ID, true
}

func (m AppModel) findItem(id string) (int, deviceItem, bool) {
	for i, it := range m.Devices.Items() {
		if di, ok := it.(deviceItem); ok && di.device.ID == id {
			return i, di, true
		}
	}
	return -1, deviceItem{}, false
}

func (m AppModel) nickname(id string) string {
	if m.deps.Session == nil {
		return ""
	}
	return m.deps.Session.Nickname(id)
}

// resize distributes the terminal between list, cards and log box
func (m *AppModel) resize() {
	inner := m.Width - 4
	if inner < 20 {
		inner = 20
	}
	// header, footer, outer border, log border and banner
	top := m.Height - logBoxHeight - 10
	if top < 4 {
		top = 4
	}

	listWidth := inner
	if m.Width >= SplitWidth {
		listWidth = inner * 2 / 5
	} else {
		top /= 2
	}
	m.Devices.SetSize(listWidth, top)
	m.Log.Width = inner - 2
	m.Log.Height = logBoxHeight
	m.Log.GotoBottom()
}

// scan runs the scanner until it stops
func (m AppModel) scan() tea.Cmd {
	sc := m.deps.Scanner
	ctx := m.ctx
	if sc == nil {
		return nil
	}
	return func() tea.Msg {
		return scanDoneMsg{err: sc.Run(ctx)}
	}
}

func (m AppModel) connect(id string) tea.Cmd {
	mgr := m.deps.Manager
	ctx := m.ctx
	if mgr == nil {
		return nil
	}
	return func() tea.Msg {
		report, err := mgr.Select(ctx, id)
		return connectDoneMsg{id: id, report: report, err: err}
	}
}

func (m AppModel) disconnect(id string) tea.Cmd {
	mgr := m.deps.Manager
	if mgr == nil {
		return nil
	}
	return func() tea.Msg {
		return disconnectDoneMsg{id: id, err: mgr.Disconnect(id)}
	}
}

// View renders the screen
func (m AppModel) View() string {
	width, height := m.Width, m.Height
	if width == 0 {
		width = MinTerminalWidth
	}
	if height == 0 {
		height = 24
	}

	if len(m.Alerts) > 0 {
		return RenderModal(RenderAlert(m.Alerts[0], width), width, height)
	}

	var b strings.Builder
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	listView := m.renderDevices()
	cardsView := m.renderCards(width)
	if width >= SplitWidth {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listView, "  ", cardsView))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, listView, cardsView))
	}
	b.WriteString("\n")
	b.WriteString(LogBoxStyle.Render(m.Log.View()))

	return RenderApplicationContainer(
		BuildHeaderContent(m.deps.Stack),
		b.String(),
		m.Help.View(m.Keys),
		width,
		height,
	)
}

func (m AppModel) renderBanner() string {
	switch {
	case m.Available != nil && !*m.Available:
		return BannerStyle.Render("⚠ Bluetooth is unavailable, waiting for it to be enabled")
	case m.ScanErr != nil:
		if ble.IsRetryable(m.ScanErr) {
			return BannerStyle.Render(fmt.Sprintf("⚠ Scan stopped: %v (press r to rescan)", m.ScanErr))
		}
		hint := ble.TroubleshootingHint(m.ScanErr)[0]
		return BannerStyle.Render(fmt.Sprintf("⚠ Scan stopped: %v (%s, then press r to rescan)", m.ScanErr, hint))
	}
	return ""
}

func (m AppModel) renderDevices() string {
	if len(m.Devices.Items()) > 0 {
		return m.Devices.View()
	}
	if m.Scanning {
		return TitleStyle.Render("Devices") + "\n\n" + m.Spinner.View() + " Finding devices..."
	}
	return TitleStyle.Render("Devices") + "\n\n" + SubtitleStyle.Render("No devices found")
}

// renderCards draws every card in discovery order, highlighting the one for
// the selected device
func (m AppModel) renderCards(width int) string {
	if len(m.Cards) == 0 {
		return SubtitleStyle.Render("Select a device and press enter to connect")
	}
	cardWidth := width - 6
	if width >= SplitWidth {
		cardWidth = (width-4)*3/5 - 2
	}
	if cardWidth > MaxContentWidth {
		cardWidth = MaxContentWidth
	}

	selected, _ := m.SelectedID()
	var views []string
	for _, it := range m.Devices.Items() {
		di, ok := it.(deviceItem)
		if !ok {
			continue
		}
		card, ok := m.Cards[di.device.ID]
		if !ok {
			continue
		}
		views = append(views, RenderCard(card, cardWidth, di.device.ID == selected))
	}
	return lipgloss.JoinVertical(lipgloss.Left, views...)
}
