// Package ui is the focusboard terminal dashboard. This file contains the
// main App model, which coordinates the panes, waits on the hydration gate
// and routes messages using the Bubble Tea architecture.
package ui

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"focusboard/internal/config"
	"focusboard/internal/hydrate"
	"focusboard/internal/netstate"
	"focusboard/internal/store"
	fbsync "focusboard/internal/sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PaneID identifies each pane in the application.
type PaneID int

const (
	PaneProjects PaneID = iota
	PaneTodos
	PaneFocus
)

// LayoutMode determines how panes are arranged based on terminal width.
type LayoutMode int

const (
	// LayoutWide shows all three panes side-by-side.
	LayoutWide LayoutMode = iota
	// LayoutNarrow shows only the focused pane with a tab bar.
	LayoutNarrow
)

// askTimeout bounds a manual sync that may wait on the conflict prompt.
const askTimeout = 2 * time.Minute

// AppConfig holds user configuration for the app behavior.
type AppConfig struct {
	Keys                  *config.KeysConfig
	ConfirmDeletions      bool
	NarrowLayoutThreshold int
	ShowCompleted         bool
}

// Deps are the optional collaborators of the dashboard. A zero Deps runs the
// dashboard against the store alone with sync switched off.
type Deps struct {
	Gate     *hydrate.Gate
	Sync     *fbsync.Client
	UserID   string
	Strategy fbsync.Strategy
	Network  *netstate.Monitor
	Prompter *Prompter

	SyncTimeout   time.Duration
	PullOnStartup bool
	Logger        *log.Logger
}

// App is the main application model that coordinates all panes.
type App struct {
	store       *store.Store
	mut         store.Mutator
	deps        Deps
	logger      *log.Logger
	styles      *Styles
	config      *AppConfig
	projectPane *ProjectPane
	todoPane    *TodoPane
	focusPane   *FocusPane
	helpOverlay *HelpOverlay
	undoManager *UndoManager
	undoBusy    bool
	confirmDel  *confirmDeleteState
	conflict    *conflictRequest
	activePane  PaneID
	layoutMode  LayoutMode
	showHelp    bool
	width       int
	height      int
	status      string
	statusErr   bool
	statusUntil time.Time
	quitting    bool
	now         func() time.Time

	hydrated bool
	spinner  spinner.Model
	syncing  bool
	online   bool

	// changed is fed by the store's change hook; events by the network
	// monitor and the auto-syncer.
	changed     chan struct{}
	events      chan tea.Msg
	unsubscribe []func()

	keys     GlobalKeyMap
	helpKeys HelpKeyMap

	// Pane positions for mouse click detection (x coordinates)
	projectsPaneStart int
	projectsPaneEnd   int
	todosPaneStart    int
	todosPaneEnd      int
	focusPaneStart    int
	focusPaneEnd      int
	contentTop        int // Y coordinate where content starts
}

type confirmDeleteState struct {
	title string
	body  string
	cmd   tea.Cmd
}

// NewApp creates the dashboard over s. Panes stay empty until the hydration
// gate in deps opens; without a gate the store is used as is.
func NewApp(s *store.Store, styles *Styles, cfg *AppConfig, deps Deps) *App {
	if cfg == nil {
		cfg = &AppConfig{
			Keys:                  &config.KeysConfig{},
			ConfirmDeletions:      true,
			NarrowLayoutThreshold: 80,
			ShowCompleted:         true,
		}
	}
	if cfg.Keys == nil {
		cfg.Keys = &config.KeysConfig{}
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard, "", 0)
	}
	if deps.SyncTimeout <= 0 {
		deps.SyncTimeout = 10 * time.Second
	}
	if deps.Strategy == "" {
		deps.Strategy = fbsync.NewestWins
	}

	mut := store.Lenient{Store: s}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.ColorAccent)

	todoPane := NewTodoPane(mut, styles, cfg.Keys)
	todoPane.showCompleted = cfg.ShowCompleted
	focusPane := NewFocusPane(mut, styles, cfg.Keys)
	keys := NewGlobalKeyMap(cfg.Keys)

	app := &App{
		store:       s,
		mut:         mut,
		deps:        deps,
		logger:      deps.Logger,
		styles:      styles,
		config:      cfg,
		projectPane: NewProjectPane(styles, cfg.Keys),
		todoPane:    todoPane,
		focusPane:   focusPane,
		helpOverlay: NewHelpOverlay(styles, keys, todoPane.keys, focusPane.keys, todoPane.inputKeys),
		undoManager: NewUndoManager(),
		activePane:  PaneTodos,
		now:         time.Now,
		hydrated:    deps.Gate == nil || deps.Gate.IsHydrated(),
		spinner:     sp,
		online:      deps.Network == nil || deps.Network.Online(),
		changed:     make(chan struct{}, 1),
		events:      make(chan tea.Msg, 8),
		keys:        keys,
		helpKeys:    DefaultHelpKeyMap(),
	}

	app.unsubscribe = append(app.unsubscribe, s.OnChange(func() {
		select {
		case app.changed <- struct{}{}:
		default:
		}
	}))
	if deps.Network != nil {
		app.unsubscribe = append(app.unsubscribe, deps.Network.Subscribe(func(online bool) {
			app.post(networkMsg{online: online})
		}))
	}

	app.setActivePane(PaneTodos)
	if app.hydrated {
		app.refresh()
	}
	return app
}

// post hands a background event to the update loop, dropping it when the
// loop is far behind.
func (a *App) post(msg tea.Msg) {
	select {
	case a.events <- msg:
	default:
		a.logger.Printf("warning: dropped dashboard event %T", msg)
	}
}

// SyncObserver returns a callback for fbsync.AutoSyncer.OnSync that reports
// automatic syncs in the status bar.
func (a *App) SyncObserver() func(fbsync.Result, error) {
	return func(res fbsync.Result, err error) {
		a.post(syncDoneMsg{result: res, err: err})
	}
}

// Close releases the store and network subscriptions.
func (a *App) Close() {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
	if a.deps.Gate != nil {
		a.deps.Gate.Close()
	}
}

// refresh hands a fresh snapshot of the store to every pane.
func (a *App) refresh() {
	state := a.store.State()
	a.projectPane.setState(state)
	a.todoPane.filter = a.projectPane.Selected()
	a.todoPane.setTodos(state)
	a.focusPane.setState(state)
}

// tickMsg is sent periodically for time updates.
type tickMsg time.Time

// tickCmd returns a command that sends a tick every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner, the listeners and, once hydrated, the startup
// pull.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(),
		waitForChange(a.changed),
		waitForEvent(a.events),
		waitForConflict(a.deps.Prompter),
	}
	if a.hydrated {
		cmds = append(cmds, a.startupSync())
	} else {
		cmds = append(cmds, a.spinner.Tick, a.deps.Gate.Cmd())
	}
	return tea.Batch(cmds...)
}

func (a *App) startupSync() tea.Cmd {
	if !a.deps.PullOnStartup || a.deps.Sync == nil || !a.deps.Sync.Connected() {
		return nil
	}
	return a.syncNow()
}

// syncNow starts a manual sync round.
func (a *App) syncNow() tea.Cmd {
	if a.deps.Sync == nil || !a.deps.Sync.Connected() {
		a.SetStatus("Sync is not configured", true)
		return nil
	}
	if a.syncing {
		return nil
	}
	a.syncing = true
	timeout := a.deps.SyncTimeout
	if a.deps.Strategy == fbsync.AskUser {
		timeout += askTimeout
	}
	return tea.Batch(a.spinner.Tick, syncCmd(a.deps.Sync, a.deps.UserID, a.deps.Strategy, timeout))
}

// Update handles all messages and routes them appropriately.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Results of store mutations and background work are handled first,
	// whichever pane is active.
	switch msg := msg.(type) {
	case hydrate.HydratedMsg:
		a.hydrated = true
		a.refresh()
		return a, a.startupSync()

	case spinner.TickMsg:
		if a.hydrated && !a.syncing {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case storeChangedMsg:
		a.refresh()
		return a, waitForChange(a.changed)

	case todoAddedMsg:
		if msg.err != nil {
			a.SetStatus("Add todo: "+msg.err.Error(), true)
		} else {
			a.undoManager.Push(NewAddTodoAction(a.mut, a.store, msg.id, msg.text))
		}
		a.refresh()
		return a, nil

	case todoToggledMsg:
		if msg.err != nil {
			a.SetStatus("Toggle todo: "+msg.err.Error(), true)
		} else {
			a.undoManager.Push(NewToggleTodoAction(a.mut, msg.id, msg.text, msg.done))
		}
		a.refresh()
		return a, nil

	case todayToggledMsg:
		if msg.err != nil {
			a.SetStatus("Today tag: "+msg.err.Error(), true)
		} else {
			a.undoManager.Push(NewToggleTodayAction(a.mut, msg.id, msg.text, msg.tagged))
		}
		a.refresh()
		return a, nil

	case todoDeletedMsg:
		if msg.err != nil {
			a.SetStatus("Delete todo: "+msg.err.Error(), true)
		} else if msg.todo != nil {
			a.undoManager.Push(NewDeleteTodoAction(a.mut, *msg.todo))
		}
		a.refresh()
		return a, nil

	case focusStartedMsg:
		if msg.err != nil {
			a.SetStatus("Start focus: "+msg.err.Error(), true)
		}
		a.focusPane.started(msg)
		a.refresh()
		return a, nil

	case focusStoppedMsg:
		if msg.err != nil {
			a.SetStatus("Stop focus: "+msg.err.Error(), true)
		} else {
			a.SetStatus("Focused for "+formatMinutes(msg.minutes), false)
		}
		a.focusPane.stopped(msg)
		a.refresh()
		return a, nil

	case undoResultMsg:
		a.undoBusy = false
		switch {
		case msg.err != nil:
			a.SetStatus("Undo failed: "+msg.err.Error(), true)
		case msg.desc != "":
			a.SetStatus("Undid: "+msg.desc, false)
		default:
			a.SetStatus("Nothing to undo", false)
		}
		a.refresh()
		return a, nil

	case redoResultMsg:
		a.undoBusy = false
		switch {
		case msg.err != nil:
			a.SetStatus("Redo failed: "+msg.err.Error(), true)
		case msg.desc != "":
			a.SetStatus("Redid: "+msg.desc, false)
		default:
			a.SetStatus("Nothing to redo", false)
		}
		a.refresh()
		return a, nil

	case syncDoneMsg:
		var next tea.Cmd
		if msg.manual {
			a.syncing = false
		} else {
			next = waitForEvent(a.events)
		}
		a.reportSync(msg)
		a.refresh()
		return a, next

	case networkMsg:
		a.online = msg.online
		if msg.online {
			a.SetStatus("Back online", false)
		} else {
			a.SetStatus("Offline: changes are kept on this device", true)
		}
		return a, waitForEvent(a.events)

	case conflictMsg:
		a.conflict = msg.req
		return a, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.conflict != nil {
			switch msg.String() {
			case "l", "L":
				a.answerConflict(fbsync.KeepLocal)
			case "r", "R":
				a.answerConflict(fbsync.KeepRemote)
			case "esc":
				a.answerConflict(fbsync.Undecided)
			default:
				return a, nil
			}
			return a, waitForConflict(a.deps.Prompter)
		}

		if !a.hydrated {
			if key.Matches(msg, a.keys.Quit) {
				a.quitting = true
				return a, tea.Quit
			}
			return a, nil
		}

		if a.confirmDel != nil {
			switch msg.String() {
			case "y", "Y", "enter":
				cmd := a.confirmDel.cmd
				a.confirmDel = nil
				return a, cmd
			case "n", "N", "esc":
				a.confirmDel = nil
				a.SetStatus("Canceled", false)
				return a, nil
			default:
				return a, nil
			}
		}

		// Help overlay takes priority
		if a.showHelp {
			if key.Matches(msg, a.helpKeys.Close) {
				a.showHelp = false
			}
			return a, nil
		}

		if !a.todoPane.IsAdding() {
			if a.config.ConfirmDeletions && a.activePane == PaneTodos && key.Matches(msg, a.todoPane.keys.Delete) {
				t, ok := a.todoPane.Selected()
				if !ok {
					a.SetStatus("No todo selected", true)
					return a, nil
				}
				a.confirmDel = &confirmDeleteState{
					title: "Delete todo?",
					body:  truncateText(t.Text, 60),
					cmd:   deleteTodoCmd(a.mut, t),
				}
				return a, nil
			}

			switch {
			case key.Matches(msg, a.keys.Quit):
				a.quitting = true
				return a, tea.Quit

			case key.Matches(msg, a.keys.Help):
				a.showHelp = true
				return a, nil

			case key.Matches(msg, a.keys.NextPane):
				a.switchPane()
				return a, nil

			case key.Matches(msg, a.keys.Sync):
				return a, a.syncNow()

			case key.Matches(msg, a.keys.Undo):
				if a.undoBusy {
					a.SetStatus("Undo: busy", true)
					return a, nil
				}
				a.undoBusy = true
				return a, undoCmd(a.undoManager)

			case key.Matches(msg, a.keys.Redo):
				if a.undoBusy {
					a.SetStatus("Redo: busy", true)
					return a, nil
				}
				a.undoBusy = true
				return a, redoCmd(a.undoManager)
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case tickMsg:
		if a.status != "" && !a.statusUntil.IsZero() && a.now().After(a.statusUntil) {
			a.status = ""
			a.statusErr = false
			a.statusUntil = time.Time{}
		}
		return a, tickCmd()
	}

	if !a.hydrated || a.showHelp {
		return a, nil
	}
	return a, a.forward(msg)
}

// forward hands msg to the active pane.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	switch a.activePane {
	case PaneProjects:
		if a.projectPane.Update(msg) {
			a.todoPane.filter = a.projectPane.Selected()
			a.todoPane.cursor = 0
			a.todoPane.setTodos(a.store.State())
		}
		return nil
	case PaneTodos:
		return a.todoPane.Update(msg)
	case PaneFocus:
		todo, _ := a.todoPane.Selected()
		return a.focusPane.Update(msg, todo)
	}
	return nil
}

// reportSync turns a sync outcome into a status line.
func (a *App) reportSync(msg syncDoneMsg) {
	if msg.err != nil {
		if msg.manual {
			a.SetStatus("Sync failed: "+msg.err.Error(), true)
		}
		a.logger.Printf("sync failed: %v", msg.err)
		return
	}
	switch msg.result.Action {
	case fbsync.ActionPulled:
		a.SetStatus("Synced: took the remote changes", false)
	case fbsync.ActionPushed:
		if msg.manual {
			a.SetStatus("Synced: pushed local changes", false)
		}
	default:
		if msg.manual {
			a.SetStatus("Already in sync", false)
		}
	}
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.conflict != nil || !a.hydrated {
		return nil
	}
	if a.confirmDel != nil {
		if msg.Action == tea.MouseActionPress {
			a.confirmDel = nil
			a.SetStatus("Canceled", false)
		}
		return nil
	}
	// Any click closes help
	if a.showHelp {
		if msg.Action == tea.MouseActionPress {
			a.showHelp = false
		}
		return nil
	}

	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown
	if msg.Action != tea.MouseActionPress && !wheel {
		return nil
	}

	if msg.Action == tea.MouseActionPress && !wheel {
		if a.layoutMode == LayoutNarrow && msg.Y == a.contentTop-1 {
			tabWidth := a.width / 3
			switch {
			case msg.X < tabWidth:
				a.setActivePane(PaneProjects)
			case msg.X < tabWidth*2:
				a.setActivePane(PaneTodos)
			default:
				a.setActivePane(PaneFocus)
			}
			return nil
		}
		if clicked := a.paneAtPosition(msg.X); clicked >= 0 && clicked != a.activePane {
			a.setActivePane(clicked)
		}
	}

	if msg.Y < a.contentTop {
		return nil
	}
	local := msg
	local.Y = msg.Y - a.contentTop
	if a.layoutMode == LayoutWide {
		switch a.activePane {
		case PaneTodos:
			local.X = msg.X - a.todosPaneStart
		case PaneFocus:
			local.X = msg.X - a.focusPaneStart
		}
	}
	return a.forward(local)
}

// switchPane cycles through panes.
func (a *App) switchPane() {
	switch a.activePane {
	case PaneProjects:
		a.setActivePane(PaneTodos)
	case PaneTodos:
		a.setActivePane(PaneFocus)
	case PaneFocus:
		a.setActivePane(PaneProjects)
	}
}

// setActivePane sets the active pane and updates focus states.
func (a *App) setActivePane(pane PaneID) {
	a.activePane = pane

	a.projectPane.SetFocused(pane == PaneProjects)
	a.todoPane.SetFocused(pane == PaneTodos)
	a.focusPane.SetFocused(pane == PaneFocus)
}

// paneAtPosition returns which pane is at the given X coordinate.
// Returns -1 if no pane is at that position.
func (a *App) paneAtPosition(x int) PaneID {
	if a.layoutMode == LayoutNarrow {
		return a.activePane
	}
	switch {
	case x >= a.projectsPaneStart && x < a.projectsPaneEnd:
		return PaneProjects
	case x >= a.todosPaneStart && x < a.todosPaneEnd:
		return PaneTodos
	case x >= a.focusPaneStart && x < a.focusPaneEnd:
		return PaneFocus
	}
	return -1
}

// updateLayout recalculates pane sizes based on terminal dimensions.
func (a *App) updateLayout() {
	// title bar and help bar
	contentHeight := max(a.height-4, 10)
	a.contentTop = 1
	a.helpOverlay.SetSize(a.width, a.height)

	totalWidth := a.width - 4

	threshold := a.config.NarrowLayoutThreshold
	if threshold <= 0 {
		threshold = 80
	}

	if a.width < threshold {
		a.layoutMode = LayoutNarrow

		// tab bar
		narrowHeight := max(contentHeight-1, 8)
		paneWidth := max(totalWidth, 20)

		a.projectPane.SetSize(paneWidth, narrowHeight)
		a.todoPane.SetSize(paneWidth, narrowHeight)
		a.focusPane.SetSize(paneWidth, narrowHeight)

		a.projectsPaneStart, a.projectsPaneEnd = 0, a.width
		a.todosPaneStart, a.todosPaneEnd = 0, a.width
		a.focusPaneStart, a.focusPaneEnd = 0, a.width
		a.contentTop = 2
		return
	}

	a.layoutMode = LayoutWide

	var projectsWidth, todosWidth, focusWidth int
	if totalWidth < 120 {
		projectsWidth = (totalWidth * 25) / 100
		todosWidth = (totalWidth * 45) / 100
		focusWidth = totalWidth - projectsWidth - todosWidth - 2
	} else {
		projectsWidth = min((totalWidth*25)/100, 36)
		todosWidth = min((totalWidth*45)/100, 70)
		focusWidth = min(totalWidth-projectsWidth-todosWidth-2, 48)
	}

	a.projectPane.SetSize(projectsWidth, contentHeight)
	a.todoPane.SetSize(todosWidth, contentHeight)
	a.focusPane.SetSize(focusWidth, contentHeight)

	// one space gap between panes
	a.projectsPaneStart = 0
	a.projectsPaneEnd = projectsWidth
	a.todosPaneStart = projectsWidth + 1
	a.todosPaneEnd = a.todosPaneStart + todosWidth
	a.focusPaneStart = a.todosPaneEnd + 1
	a.focusPaneEnd = a.focusPaneStart + focusWidth
}

// View renders the entire app.
func (a *App) View() string {
	if a.quitting {
		return a.renderGoodbye()
	}
	if a.conflict != nil {
		return a.renderConflict()
	}
	if !a.hydrated {
		return a.renderLoading()
	}
	if a.confirmDel != nil {
		return a.renderConfirmDelete()
	}
	if a.showHelp {
		return a.helpOverlay.View()
	}

	var b strings.Builder
	b.WriteString(a.renderTitleBar())
	b.WriteString("\n")

	switch a.layoutMode {
	case LayoutNarrow:
		b.WriteString(a.renderNarrowContent())
	default:
		b.WriteString(a.renderWideContent())
	}
	b.WriteString("\n")

	b.WriteString(a.renderHelpBar())
	return b.String()
}

func (a *App) renderLoading() string {
	body := a.spinner.View() + " Loading your board..."
	if a.width == 0 || a.height == 0 {
		return body
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, body)
}

func (a *App) renderConfirmDelete() string {
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.styles.ColorDanger).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(a.styles.ColorDanger).
		MarginBottom(1)

	bodyStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorText)

	hintStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorTextMuted)

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.confirmDel.title))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(a.confirmDel.body))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("[y/enter] delete    [n/esc] cancel"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, overlayStyle.Render(b.String()))
}

// renderWideContent renders all three panes side by side.
func (a *App) renderWideContent() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		a.projectPane.View(), " ", a.todoPane.View(), " ", a.focusPane.View())
}

// renderNarrowContent renders the focused pane with a tab bar.
func (a *App) renderNarrowContent() string {
	var b strings.Builder
	b.WriteString(a.renderPaneTabs())
	b.WriteString("\n")

	switch a.activePane {
	case PaneProjects:
		b.WriteString(a.projectPane.View())
	case PaneTodos:
		b.WriteString(a.todoPane.View())
	case PaneFocus:
		b.WriteString(a.focusPane.View())
	}
	return b.String()
}

// renderPaneTabs renders a tab bar showing available panes.
func (a *App) renderPaneTabs() string {
	tabs := []struct {
		id    PaneID
		label string
	}{
		{PaneProjects, "Projects"},
		{PaneTodos, "Todos"},
		{PaneFocus, "Focus"},
	}

	activeTabStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorPrimary).
		Bold(true)
	inactiveTabStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorTextMuted)

	var parts []string
	for _, tab := range tabs {
		if tab.id == a.activePane {
			parts = append(parts, activeTabStyle.Render("["+tab.label+"]"))
		} else {
			parts = append(parts, inactiveTabStyle.Render(" "+tab.label+" "))
		}
	}

	tabBar := strings.Join(parts, "  ")
	if padding := (a.width - lipgloss.Width(tabBar)) / 2; padding > 0 {
		tabBar = strings.Repeat(" ", padding) + tabBar
	}
	return tabBar
}

// renderGoodbye shows an exit message with today's summary.
func (a *App) renderGoodbye() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  See you later!\n")
	b.WriteString("\n")

	if !a.hydrated {
		return b.String()
	}

	today := a.store.TodayTodos()
	done := 0
	for _, t := range today {
		if t.Completed {
			done++
		}
	}
	now := a.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	minutes := a.store.FocusMinutes(dayStart, dayStart.AddDate(0, 0, 1))
	if len(today) > 0 || minutes > 0 {
		b.WriteString("  Today's progress:\n")
		if len(today) > 0 {
			b.WriteString(fmt.Sprintf("     Todos: %d/%d (%d%%)\n", done, len(today), done*100/len(today)))
		}
		if minutes > 0 {
			b.WriteString(fmt.Sprintf("     Focus: %s\n", formatMinutes(minutes)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderTitleBar creates the top title bar with stats, focus and sync status.
func (a *App) renderTitleBar() string {
	title := a.styles.TitleStyle.Render(" focusboard ")

	done, total := a.todoPane.Stats()
	var statsItems []string
	if total > 0 {
		statsItems = append(statsItems, fmt.Sprintf("Todos: %d/%d", done, total))
	}
	stats := a.styles.StatLabelStyle.Render(strings.Join(statsItems, "  "))

	var focusStatus string
	if a.focusPane.IsRunning() {
		label := a.focusPane.todoText
		if label == "" {
			label = "focus"
		}
		focusStatus = a.styles.FocusRunningStyle.Render(fmt.Sprintf("▶ %s %s",
			truncateText(label, 12), formatDuration(a.focusPane.Elapsed())))
	}

	syncStatus := a.renderSyncIndicator()
	date := a.styles.DateStyle.Render(a.now().Format("Mon Jan 2 · 15:04"))

	used := lipgloss.Width(title) + lipgloss.Width(stats) + lipgloss.Width(focusStatus) +
		lipgloss.Width(syncStatus) + lipgloss.Width(date)
	spacerWidth := max(a.width-used-8, 2)

	parts := []string{title}
	if stats != "" {
		parts = append(parts, "  "+stats)
	}
	parts = append(parts, strings.Repeat(" ", spacerWidth/2))
	if focusStatus != "" {
		parts = append(parts, focusStatus)
	}
	parts = append(parts, strings.Repeat(" ", spacerWidth-spacerWidth/2))
	parts = append(parts, syncStatus, "  ", date)
	return strings.Join(parts, "")
}

// renderSyncIndicator shows whether sync is off, offline, running or idle.
func (a *App) renderSyncIndicator() string {
	c := a.deps.Sync
	switch {
	case c == nil || !c.Connected():
		return a.styles.SyncDisabledStyle.Render("○ sync off")
	case a.syncing || c.InProgress():
		return a.styles.SyncBusyStyle.Render(a.spinner.View() + " syncing")
	case !a.online:
		return a.styles.SyncOfflineStyle.Render("● offline")
	}
	if last := c.LastSync(); !last.IsZero() {
		return a.styles.SyncOnlineStyle.Render("● synced " + last.In(a.now().Location()).Format("15:04"))
	}
	return a.styles.SyncOnlineStyle.Render("● online")
}

// renderHelpBar creates the bottom help bar with context-sensitive hints.
func (a *App) renderHelpBar() string {
	if a.status != "" {
		if a.statusErr {
			return a.styles.ErrorStyle.Render(a.status)
		}
		return a.styles.StatusStyle.Render(a.status)
	}

	if a.todoPane.IsAdding() {
		return a.styles.RenderBindings(a.todoPane.inputKeys.Confirm, a.todoPane.inputKeys.Cancel)
	}

	switch a.activePane {
	case PaneProjects:
		return a.styles.RenderHelp("j/k", "filter", "tab", "pane", a.keys.Sync.Help().Key, "sync", "?", "help")
	case PaneTodos:
		bindings := append(a.todoPane.keys.ShortHelp(), a.keys.NextPane, a.keys.Help)
		return a.styles.RenderBindings(bindings...)
	case PaneFocus:
		desc := "start"
		if a.focusPane.IsRunning() {
			desc = "stop"
		}
		return a.styles.RenderHelp(a.focusPane.keys.Toggle.Help().Key, desc, "tab", "pane", "?", "help")
	}
	return ""
}

// SetStatus sets a status message to display to the user.
func (a *App) SetStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
	ttl := 5 * time.Second
	if isErr {
		ttl = 8 * time.Second
	}
	a.statusUntil = a.now().Add(ttl)
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(app *App) error {
	defer app.Close()
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
