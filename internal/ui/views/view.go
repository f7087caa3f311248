package views

import (
	"fmt"
	"strings"

	"todosearch/internal/domain"
)

// StatusKind selects how the status line is styled
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width         int
	Height        int
	Input         string // rendered text input
	Query         string // trimmed query used for highlighting
	Loading       bool
	Spinner       string
	Results       []domain.Todo
	ShowCompleted bool
	MaxResults    int
	StatusMessage string
	StatusKind    StatusKind
	Dashboard     *domain.Dashboard
	ShowDashboard bool
	Help          string
}

// Renderer handles all view rendering
type Renderer struct {
	styles          *Styles
	todoRender      *TodoRenderer
	dashboardRender *DashboardRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:          styles,
		todoRender:      NewTodoRenderer(styles),
		dashboardRender: NewDashboardRenderer(styles),
	}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.styles.Title.Render("todosearch"))
	content.WriteString("\n")

	if state.ShowDashboard && state.Dashboard != nil {
		content.WriteString(r.dashboardRender.RenderDashboard(*state.Dashboard))
		content.WriteString("\n")
	}

	content.WriteString(state.Input)
	content.WriteString("\n")
	content.WriteString(r.renderStatus(state))
	content.WriteString("\n")

	visible := VisibleTodos(state.Results, state.ShowCompleted, state.MaxResults)
	for _, todo := range visible {
		content.WriteString(r.todoRender.RenderTodo(todo, state.Query))
		content.WriteString("\n")
	}
	if hidden := len(state.Results) - len(visible); hidden > 0 {
		content.WriteString(r.styles.Dim.Render(fmt.Sprintf("… %d more not shown", hidden)))
		content.WriteString("\n")
	}

	if state.Help != "" {
		content.WriteString("\n")
		content.WriteString(r.styles.Help.Render(state.Help))
	}

	return r.styles.Main.Render(content.String())
}

func (r *Renderer) renderStatus(state ViewState) string {
	if state.Loading {
		return r.styles.StatusLoading.Render(fmt.Sprintf("%s Searching for %q", state.Spinner, state.Query))
	}
	switch state.StatusKind {
	case StatusError:
		return r.styles.StatusError.Render(state.StatusMessage)
	case StatusSuccess:
		return r.styles.StatusSuccess.Render(state.StatusMessage)
	default:
		return r.styles.Status.Render(state.StatusMessage)
	}
}
