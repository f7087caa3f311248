package logic

import (
	"context"
	"sort"
	"strings"

	"github.com/juju/errors"

	"todosearch/internal/domain"
)

// MemoryTodoStore is a read-only set of todos held in memory, ordered by id.
type MemoryTodoStore struct {
	todos []domain.Todo
}

// NewMemoryTodoStore creates a store holding todos. When two todos share
// an id the later one wins.
func NewMemoryTodoStore(todos ...domain.Todo) *MemoryTodoStore {
	byID := make(map[int]domain.Todo, len(todos))
	for _, todo := range todos {
		byID[todo.ID] = todo
	}
	s := &MemoryTodoStore{todos: make([]domain.Todo, 0, len(byID))}
	for _, todo := range byID {
		s.todos = append(s.todos, todo)
	}
	sort.Slice(s.todos, func(i, j int) bool { return s.todos[i].ID < s.todos[j].ID })
	return s
}

// OpenCount returns the number of todos of userID that are not completed.
func (s *MemoryTodoStore) OpenCount(userID int) int {
	n := 0
	for _, todo := range s.todos {
		if todo.UserID == userID && !todo.Completed {
			n++
		}
	}
	return n
}

// SearchByTitle returns the todos whose title contains query,
// case-insensitively, ordered by id. It has the shape of a search lookup.
func (s *MemoryTodoStore) SearchByTitle(ctx context.Context, query string) ([]domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}

	results := []domain.Todo{}
	for i := range s.todos {
		if MatchesTitle(&s.todos[i], query) {
			results = append(results, s.todos[i])
		}
	}
	return results, nil
}

// MatchesTitle checks if a todo matches the given query. The prefix
// "status:open" or "status:done" filters on completion instead.
func MatchesTitle(todo *domain.Todo, query string) bool {
	if query == "" {
		return true
	}

	q := strings.ToLower(query)
	if strings.HasPrefix(q, "status:") {
		switch strings.TrimPrefix(q, "status:") {
		case "open":
			return !todo.Completed
		case "done", "completed":
			return todo.Completed
		default:
			return false
		}
	}
	return strings.Contains(strings.ToLower(todo.Title), q)
}

// SampleTodos is the data set used when running offline
func SampleTodos() []domain.Todo {
	return []domain.Todo{
		{ID: 1, UserID: 1, Title: "Hello"},
		{ID: 2, UserID: 1, Title: "Test"},
		{ID: 3, UserID: 1, Title: "Write the release notes"},
		{ID: 4, UserID: 1, Title: "Test the debounce window", Completed: true},
		{ID: 5, UserID: 2, Title: "Invoke the lookup service"},
		{ID: 6, UserID: 2, Title: "Review pull requests"},
		{ID: 7, UserID: 2, Title: "Update dependencies", Completed: true},
		{ID: 8, UserID: 1, Title: "Plan the next sprint"},
	}
}

// OfflineAPI serves the todo API surface from memory.
type OfflineAPI struct {
	Store    *MemoryTodoStore
	Profiles map[int]domain.Profile
}

// NewOfflineAPI returns an OfflineAPI backed by the sample data set.
func NewOfflineAPI() *OfflineAPI {
	return &OfflineAPI{
		Store: NewMemoryTodoStore(SampleTodos()...),
		Profiles: map[int]domain.Profile{
			1: {ID: 1, Name: "Offline User", Username: "offline", Email: "offline@localhost"},
		},
	}
}

func (a *OfflineAPI) TodosByTitle(ctx context.Context, title string) ([]domain.Todo, error) {
	return a.Store.SearchByTitle(ctx, title)
}

func (a *OfflineAPI) Profile(ctx context.Context, userID int) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, errors.Trace(err)
	}
	p, ok := a.Profiles[userID]
	if !ok {
		return domain.Profile{}, errors.NotFoundf("profile %d", userID)
	}
	return p, nil
}

// NotificationCount returns the number of open todos of the user.
func (a *OfflineAPI) NotificationCount(ctx context.Context, userID int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Trace(err)
	}
	return a.Store.OpenCount(userID), nil
}
