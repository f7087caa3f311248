package ui

import (
	"todosearch/internal/domain"
	"todosearch/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// ResultsMsg carries the latest search results
type ResultsMsg struct {
	Todos []domain.Todo
}

// LoadingMsg carries the search loading flag
type LoadingMsg struct {
	Loading bool
}

// DashboardMsg carries a freshly loaded dashboard
type DashboardMsg struct {
	Dashboard domain.Dashboard
}

// dashboardErrMsg reports a failed dashboard refresh
type dashboardErrMsg struct {
	err error
}
