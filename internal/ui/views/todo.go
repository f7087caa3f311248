package views

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"todosearch/internal/domain"
)

// TodoRenderer handles rendering of todo items
type TodoRenderer struct {
	styles *Styles
}

// NewTodoRenderer creates a new todo renderer
func NewTodoRenderer(styles *Styles) *TodoRenderer {
	return &TodoRenderer{styles: styles}
}

// RenderTodo renders a single result line, highlighting query in the title
func (r *TodoRenderer) RenderTodo(todo domain.Todo, query string) string {
	check := "[ ]"
	titleStyle := r.styles.TodoOpen
	if todo.Completed {
		check = "[x]"
		titleStyle = r.styles.TodoDone
	}

	id := r.styles.TodoID.Render(fmt.Sprintf("#%-4d", todo.ID))
	return fmt.Sprintf("%s %s %s", id, check, r.highlight(todo.Title, query, titleStyle))
}

// highlight renders the first case-insensitive occurrence of query
func (r *TodoRenderer) highlight(title, query string, base lipgloss.Style) string {
	start, end, ok := matchSpan(title, query)
	if !ok {
		return base.Render(title)
	}
	return base.Render(title[:start]) + r.styles.Highlight.Render(title[start:end]) + base.Render(title[end:])
}

// matchSpan returns the byte range in title of the first run of runes that
// case-folds to query. Lowercasing can change byte lengths, so the search
// walks rune boundaries of title itself.
func matchSpan(title, query string) (start, end int, ok bool) {
	n := utf8.RuneCountInString(query)
	if n == 0 {
		return 0, 0, false
	}
	bounds := make([]int, 0, len(title)+1)
	for i := range title {
		bounds = append(bounds, i)
	}
	bounds = append(bounds, len(title))
	for i := 0; i+n < len(bounds); i++ {
		if strings.EqualFold(title[bounds[i]:bounds[i+n]], query) {
			return bounds[i], bounds[i+n], true
		}
	}
	return 0, 0, false
}

// VisibleTodos applies the completed filter and the result limit
func VisibleTodos(todos []domain.Todo, showCompleted bool, max int) []domain.Todo {
	out := make([]domain.Todo, 0, len(todos))
	for _, todo := range todos {
		if !showCompleted && todo.Completed {
			continue
		}
		out = append(out, todo)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
