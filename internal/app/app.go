package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/tabroll/internal/browser"
	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/roller"
	"github.com/vidyasagar/tabroll/internal/suppress"
	"github.com/vidyasagar/tabroll/internal/theme"
	"github.com/vidyasagar/tabroll/internal/ui"
	"github.com/vidyasagar/tabroll/internal/workspace"
	"pkt.systems/pslog"
)

// Mode represents the current input mode.
type Mode int

const (
	ModeNormal  Mode = iota
	ModeInsert       // URL bar focused
	ModeCommand      // command bar active
	ModeHelp         // help page shown
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "INSERT"
	case ModeCommand:
		return "COMMAND"
	case ModeHelp:
		return "HELP"
	default:
		return "NORMAL"
	}
}

// refreshInterval is how often the screen is resynced with the workspace.
// Host events and activations land asynchronously.
const refreshInterval = 200 * time.Millisecond

// messageTTL is how long a status message stays up.
const messageTTL = 3 * time.Second

// Options wires a Model.
type Options struct {
	Context   context.Context
	Workspace *workspace.Workspace
	Service   *roller.Service
	Titles    *browser.TitleResolver // nil disables title lookups
	Logger    pslog.Logger
	StartURLs []string // opened as tabs before the first frame
}

// Model is the top-level bubbletea model for tabroll.
type Model struct {
	// UI components
	windowBar  ui.WindowBar
	tabBar     ui.TabBar
	urlBar     ui.URLBar
	stackPanel ui.StackPanel
	pane       ui.Pane
	statusBar  ui.StatusBar
	commandBar ui.CommandBar

	ctx    context.Context
	ws     *workspace.Workspace
	svc    *roller.Service
	titles *browser.TitleResolver
	log    pslog.Logger

	pending []host.Tab // start tabs awaiting a title lookup

	keys   KeyMap
	mode   Mode
	width  int
	height int
	ready  bool
}

// refreshMsg triggers a resync with the workspace.
type refreshMsg struct{}

// dispatchedMsg is sent when a roller command has run.
type dispatchedMsg struct {
	command roller.Command
	err     error
}

// titleMsg carries a resolved page title for a tab.
type titleMsg struct {
	tab  history.TabID
	page browser.Page
	err  error
}

// clearMessageMsg clears the status message if it is still text.
type clearMessageMsg struct {
	text string
}

// New creates a tabroll Model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}

	m := Model{
		windowBar:  ui.NewWindowBar(),
		tabBar:     ui.NewTabBar(),
		urlBar:     ui.NewURLBar(),
		stackPanel: ui.NewStackPanel(),
		pane:       ui.NewPane(),
		statusBar:  ui.NewStatusBar(),
		commandBar: ui.NewCommandBar(commandNames()...),
		ctx:        ctx,
		ws:         opts.Workspace,
		svc:        opts.Service,
		titles:     opts.Titles,
		log:        logger,
		keys:       DefaultKeyMap(),
		mode:       ModeNormal,
	}
	for _, raw := range opts.StartURLs {
		tab, err := m.open(raw)
		if err != nil {
			logger.Warn("opening start url failed", "url", raw, "err", err)
			continue
		}
		m.pending = append(m.pending, tab)
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshTick()}
	if m.titles != nil {
		for _, tab := range m.pending {
			if tab.URL != "" {
				cmds = append(cmds, m.resolveTitle(tab.ID, tab.URL))
			}
		}
	}
	return tea.Batch(cmds...)
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		if m.mode == ModeHelp {
			m.pane.SetContent(renderHelp(m.keys, m.pane.Width()))
		}
		m.sync()
		return m, nil

	case refreshMsg:
		m.sync()
		return m, refreshTick()

	case dispatchedMsg:
		if msg.err != nil {
			return m.flashError(msg.err.Error())
		}
		m.sync()
		return m.flash(string(msg.command))

	case titleMsg:
		if msg.err != nil {
			m.log.Debug("title lookup failed", "tab", msg.tab, "err", msg.err)
			return m, nil
		}
		if err := m.ws.SetTitle(msg.tab, msg.page.Label()); err != nil {
			m.log.Debug("tab gone before title arrived", "tab", msg.tab)
		}
		m.sync()
		return m, nil

	case clearMessageMsg:
		if m.statusBar.Message() == msg.text {
			m.statusBar.SetMessage("")
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeInsert:
		_, cmd = m.urlBar.Update(msg)
	case ModeCommand:
		_, cmd = m.commandBar.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading tabroll..."
	}

	sections := []string{
		m.windowBar.View(),
		m.tabBar.View(),
		m.urlBar.View(),
	}

	if m.stackPanel.IsVisible() {
		divider := lipgloss.NewStyle().
			Foreground(theme.Current.Border).
			Render(strings.TrimSuffix(strings.Repeat("│\n", m.bodyHeight()), "\n"))
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			m.stackPanel.View(),
			divider,
			m.pane.View(),
		))
	} else {
		sections = append(sections, m.pane.View())
	}

	sections = append(sections, m.statusBar.View())
	if m.commandBar.IsActive() {
		sections = append(sections, m.commandBar.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Row layout: window strip, tab bar, URL bar (3 rows with border), body,
// status bar, optional command bar.
const (
	windowBarRow = 0
	tabBarRow    = 1
	headerRows   = 5
)

func (m Model) bodyHeight() int {
	h := m.height - headerRows - 1
	if m.commandBar.IsActive() {
		h--
	}
	return max(h, 1)
}

func (m Model) statusRow() int {
	return headerRows + m.bodyHeight()
}

// layout recalculates dimensions for all components.
func (m *Model) layout() {
	m.windowBar.SetWidth(m.width)
	m.tabBar.SetWidth(m.width)
	m.urlBar.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)

	paneWidth := m.width
	if m.stackPanel.IsVisible() {
		panelWidth := max(m.width*30/100, 24)
		m.stackPanel.SetSize(panelWidth, m.bodyHeight())
		paneWidth = m.width - panelWidth - 1
	}
	m.pane.SetSize(paneWidth, m.bodyHeight())
}

// sync copies workspace and history state into the components.
func (m *Model) sync() {
	if m.ws == nil {
		return
	}
	windows := m.ws.Windows()
	m.windowBar.SetWindows(windows)

	titles := make(map[history.TabID]string)
	for _, w := range windows {
		for _, t := range w.Tabs {
			titles[t.ID] = t.Title
		}
	}

	cur, err := m.ws.CurrentWindow(m.ctx)
	if err != nil {
		m.tabBar.SetTabs(nil)
		m.urlBar.Show(host.Tab{}, true)
		m.statusBar.SetDepths(0, 0)
		m.stackPanel.SetStacks(0, history.Stacks{}, nil)
		if m.mode != ModeHelp {
			m.pane.ClearContent()
		}
		return
	}
	m.tabBar.SetTabs(cur.Tabs)

	active, hasActive := cur.ActiveTab()
	m.urlBar.Show(active, cur.IsNormal())

	if m.svc != nil {
		stacks := m.svc.Stacks(cur.ID)
		m.statusBar.SetDepths(len(stacks.Back), len(stacks.Forward))
		m.statusBar.SetSuppressed(m.svc.Suppression().State() == suppress.Suppressing)
		m.stackPanel.SetStacks(cur.ID, stacks, titles)
	}

	if m.mode != ModeHelp && hasActive {
		m.pane.SetContent(m.tabDetails(cur, active))
	}
}

func (m *Model) tabDetails(w host.Window, tab host.Tab) string {
	t := theme.Current
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextDim).Width(10)
	valueStyle := lipgloss.NewStyle().Foreground(t.Text)

	url := tab.URL
	if url == "" {
		url = "(blank)"
	}
	rows := []struct{ label, value string }{
		{"tab", fmt.Sprintf("%d", tab.ID)},
		{"url", url},
		{"window", fmt.Sprintf("#%d %s", w.ID, w.Type)},
	}
	if !w.IsNormal() {
		rows = append(rows, struct{ label, value string }{"history", "not tracked in " + string(w.Type) + " windows"})
	}

	var sb strings.Builder
	sb.WriteString("\n  ")
	sb.WriteString(titleStyle.Render(tab.Title))
	sb.WriteString("\n\n")
	for _, r := range rows {
		sb.WriteString("  ")
		sb.WriteString(labelStyle.Render(r.label))
		sb.WriteString(valueStyle.Render(r.value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) flash(text string) (tea.Model, tea.Cmd) {
	m.statusBar.SetMessage(text)
	return m, clearAfter(text)
}

func (m Model) flashError(text string) (tea.Model, tea.Cmd) {
	m.statusBar.SetError(text)
	return m, clearAfter(text)
}

func clearAfter(text string) tea.Cmd {
	return tea.Tick(messageTTL, func(time.Time) tea.Msg {
		return clearMessageMsg{text: text}
	})
}

// handleKeyMsg processes key events based on current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeInsert:
		return m.handleInsertMode(msg)
	case ModeCommand:
		return m.handleCommandMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	}
	return m.handleNormalMode(msg)
}

func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.RollLeft):
		return m, m.dispatch(roller.CommandRollLeft)

	case key.Matches(msg, m.keys.RollRight):
		return m, m.dispatch(roller.CommandRollRight)

	case key.Matches(msg, m.keys.ClearStacks):
		return m, m.dispatch(roller.CommandClearStacks)

	case key.Matches(msg, m.keys.NewTab):
		m.setMode(ModeInsert)
		return m, m.urlBar.Focus()

	case key.Matches(msg, m.keys.CloseTab):
		if err := m.ws.CloseActiveTab(); err != nil {
			return m.flashError(err.Error())
		}

	case key.Matches(msg, m.keys.NextTab):
		m.ws.CycleTab(1)

	case key.Matches(msg, m.keys.PrevTab):
		m.ws.CycleTab(-1)

	case key.Matches(msg, m.keys.SelectTab):
		n, _ := strconv.Atoi(msg.String())
		if err := m.ws.SelectIndex(n - 1); err != nil {
			return m.flashError(err.Error())
		}

	case key.Matches(msg, m.keys.NewWindow):
		m.ws.OpenWindow(host.WindowNormal, "", "")

	case key.Matches(msg, m.keys.NewPopup):
		m.ws.OpenWindow(host.WindowPopup, "", "")

	case key.Matches(msg, m.keys.CloseWindow):
		cur, err := m.ws.CurrentWindow(m.ctx)
		if err != nil {
			return m.flashError(err.Error())
		}
		if err := m.ws.CloseWindow(cur.ID); err != nil {
			return m.flashError(err.Error())
		}

	case key.Matches(msg, m.keys.NextWindow):
		m.ws.CycleWindow(1)

	case key.Matches(msg, m.keys.PrevWindow):
		m.ws.CycleWindow(-1)

	case key.Matches(msg, m.keys.ToggleStacks):
		m.stackPanel.Toggle()
		m.layout()

	case key.Matches(msg, m.keys.ScrollDown):
		m.pane.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.pane.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		name := theme.Next()
		theme.Set(name)
		m.sync()
		return m.flash("theme: " + name)

	case key.Matches(msg, m.keys.CommandMode):
		m.setMode(ModeCommand)
		cmd := m.commandBar.Open()
		m.layout()
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.setMode(ModeHelp)
		m.pane.SetContent(renderHelp(m.keys, m.pane.Width()))
		return m, nil

	default:
		return m, nil
	}

	m.sync()
	return m, nil
}

func (m Model) handleInsertMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.urlBar.Blur()
		m.setMode(ModeNormal)
		m.sync()
		return m, nil
	case tea.KeyEnter:
		raw := m.urlBar.Value()
		m.urlBar.Blur()
		m.setMode(ModeNormal)
		return m.openTab(raw)
	}

	_, cmd := m.urlBar.Update(msg)
	return m, cmd
}

func (m Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		name, args := m.commandBar.Submit()
		m.setMode(ModeNormal)
		m.layout()
		return m.executeCommand(name, args)
	}

	_, cmd := m.commandBar.Update(msg)
	if !m.commandBar.IsActive() {
		m.setMode(ModeNormal)
		m.layout()
	}
	return m, cmd
}

func (m Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ScrollDown):
		m.pane.LineDown(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.pane.LineUp(1)
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Help), msg.Type == tea.KeyEsc:
		m.setMode(ModeNormal)
		m.pane.ClearContent()
		m.sync()
	}
	return m, nil
}

// commandNames lists everything the command bar accepts.
func commandNames() []string {
	names := make([]string, 0, len(roller.Commands)+3)
	for _, c := range roller.Commands {
		names = append(names, string(c))
	}
	return append(names, "open", "theme", "quit")
}

// executeCommand runs a ":" command.
func (m Model) executeCommand(name string, args []string) (tea.Model, tea.Cmd) {
	if name == "" {
		return m, nil
	}
	if c, err := roller.ParseCommand(name); err == nil {
		return m, m.dispatch(c)
	}

	switch name {
	case "q", "quit":
		return m, tea.Quit
	case "theme":
		if len(args) == 0 {
			return m.flash("themes: " + strings.Join(theme.List(), ", "))
		}
		if !theme.Set(args[0]) {
			return m.flashError("unknown theme: " + args[0])
		}
		m.sync()
		return m.flash("theme: " + args[0])
	case "open":
		return m.openTab(strings.Join(args, " "))
	}
	return m.flashError(fmt.Sprintf("unknown command: %s", name))
}

// openTab opens a tab in the focused window, or a new window when there is
// none, and looks up its title.
func (m Model) openTab(raw string) (tea.Model, tea.Cmd) {
	tab, err := m.open(raw)
	if err != nil {
		return m.flashError(err.Error())
	}
	m.sync()

	if tab.URL == "" || m.titles == nil {
		return m, nil
	}
	return m, m.resolveTitle(tab.ID, tab.URL)
}

func (m Model) open(raw string) (host.Tab, error) {
	url := browser.NormalizeURL(raw)
	tab, err := m.ws.OpenTab(url, "")
	if errors.Is(err, host.ErrNoWindow) {
		w := m.ws.OpenWindow(host.WindowNormal, url, "")
		return w.Tabs[0], nil
	}
	return tab, err
}

func (m Model) resolveTitle(tab history.TabID, url string) tea.Cmd {
	titles, ctx := m.titles, m.ctx
	return func() tea.Msg {
		page, err := titles.Resolve(ctx, url)
		return titleMsg{tab: tab, page: page, err: err}
	}
}

// dispatch runs a roller command off the update loop.
func (m Model) dispatch(c roller.Command) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		if svc == nil {
			return dispatchedMsg{command: c, err: errors.New("history is not running")}
		}
		return dispatchedMsg{command: c, err: svc.Dispatch(ctx, c)}
	}
}

// toolbarClicked runs the back button action off the update loop.
func (m Model) toolbarClicked() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		if svc != nil {
			svc.ToolbarClicked(ctx)
		}
		return dispatchedMsg{command: roller.CommandRollLeft}
	}
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
			_, cmd := m.pane.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Rendering records the hit regions.
	switch msg.Y {
	case windowBarRow:
		m.windowBar.View()
		if id, ok := m.windowBar.WindowAt(msg.X); ok {
			if err := m.ws.FocusWindow(id); err == nil {
				m.sync()
			}
		}
	case tabBarRow:
		m.tabBar.View()
		if id, ok := m.tabBar.TabAt(msg.X); ok {
			if err := m.ws.ActivateTab(m.ctx, id); err == nil {
				m.sync()
			}
		}
	case m.statusRow():
		m.statusBar.View()
		if m.statusBar.BackButtonAt(msg.X) {
			return m, m.toolbarClicked()
		}
	}
	return m, nil
}

func (m *Model) setMode(mode Mode) {
	m.mode = mode
	m.statusBar.SetMode(mode.String())
}
