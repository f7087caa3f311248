package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/juju/loggo"

	"todosearch/internal/config"
	"todosearch/internal/domain"
	"todosearch/internal/eventbus"
	"todosearch/internal/rx"
	"todosearch/internal/ui/views"
)

var logger = loggo.GetLogger("todosearch.ui")

const idleStatus = "Type to search todos by title"

// DashboardLoader loads a dashboard. Successful loads reach the model as
// DashboardMsg through the forwarder.
type DashboardLoader func(ctx context.Context) (domain.Dashboard, error)

// Model represents the UI state
type Model struct {
	config  *config.Config
	queries *rx.Subject[string]
	scope   *rx.Scope
	ctx     context.Context

	loadDashboard DashboardLoader
	purgeCache    func()

	width    int
	height   int
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	renderer *views.Renderer

	results       []domain.Todo
	loading       bool
	query         string
	dashboard     *domain.Dashboard
	statusMessage string
	statusKind    views.StatusKind
}

// NewModel creates a new UI model. Every edit of the text input is
// emitted on queries; quitting destroys scope.
func NewModel(cfg *config.Config, queries *rx.Subject[string], scope *rx.Scope) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	scope.OnDestroy(cancel)

	ti := textinput.New()
	ti.Placeholder = "search todos"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		config:        cfg,
		queries:       queries,
		scope:         scope,
		ctx:           ctx,
		input:         ti,
		spinner:       sp,
		help:          help.New(),
		keys:          defaultKeyMap(),
		renderer:      views.NewRenderer(),
		results:       []domain.Todo{},
		statusMessage: idleStatus,
	}
}

// WithDashboard enables the dashboard panel
func (m *Model) WithDashboard(load DashboardLoader) *Model {
	m.loadDashboard = load
	return m
}

// WithCachePurge makes the refresh key also drop cached search results,
// so the next lookup goes back to the API.
func (m *Model) WithCachePurge(purge func()) *Model {
	m.purgeCache = purge
	return m
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshDashboard())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ResultsMsg:
		m.results = msg.Todos
		return m, nil

	case LoadingMsg:
		m.loading = msg.Loading
		if m.loading {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DashboardMsg:
		d := msg.Dashboard
		m.dashboard = &d
		return m, nil

	case dashboardErrMsg:
		m.setStatus(views.StatusError, fmt.Sprintf("Dashboard unavailable: %v", msg.err))
		return m, nil

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		logger.Debugf("quit requested")
		m.scope.Destroy()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
		m.emitQuery()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.purgeCache != nil {
			m.purgeCache()
			logger.Debugf("search cache purged")
		}
		return m, m.refreshDashboard()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.emitQuery()
	}
	return m, cmd
}

func (m *Model) emitQuery() {
	if m.scope.Destroyed() {
		return
	}
	m.queries.Next(m.input.Value())
}

func (m *Model) handleEvent(event eventbus.DomainEvent) {
	switch e := event.(type) {
	case eventbus.SearchStartedEvent:
		m.query = e.Query
	case eventbus.SearchCompletedEvent:
		m.query = e.Query
		if e.Count == 0 {
			m.setStatus(views.StatusInfo, fmt.Sprintf("No todos match %q", e.Query))
		} else {
			m.setStatus(views.StatusSuccess, fmt.Sprintf("%d %s for %q", e.Count, plural(e.Count, "match", "matches"), e.Query))
		}
	case eventbus.SearchClearedEvent:
		m.query = ""
		m.setStatus(views.StatusInfo, idleStatus)
	case eventbus.LookupFailedEvent:
		m.query = e.Query
		m.setStatus(views.StatusError, fmt.Sprintf("Lookup failed for %q: %v", e.Query, e.Err))
	case eventbus.ErrorEvent:
		m.setStatus(views.StatusError, e.Message)
	}
}

func (m *Model) setStatus(kind views.StatusKind, message string) {
	m.statusKind = kind
	m.statusMessage = message
}

func (m *Model) refreshDashboard() tea.Cmd {
	if m.loadDashboard == nil || !m.config.UI.ShowDashboard {
		return nil
	}
	load, ctx := m.loadDashboard, m.ctx
	return func() tea.Msg {
		if _, err := load(ctx); err != nil {
			return dashboardErrMsg{err: err}
		}
		return nil
	}
}

// View renders the model
func (m *Model) View() string {
	return m.renderer.Render(views.ViewState{
		Width:         m.width,
		Height:        m.height,
		Input:         m.input.View(),
		Query:         m.query,
		Loading:       m.loading,
		Spinner:       m.spinner.View(),
		Results:       m.results,
		ShowCompleted: m.config.UI.ShowCompleted,
		MaxResults:    m.config.UI.MaxResults,
		StatusMessage: m.statusMessage,
		StatusKind:    m.statusKind,
		Dashboard:     m.dashboard,
		ShowDashboard: m.config.UI.ShowDashboard,
		Help:          m.help.View(m.keys),
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Query returns the current raw input value
func (m *Model) Query() string {
	return m.input.Value()
}
