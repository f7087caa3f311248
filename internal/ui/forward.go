package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"todosearch/internal/domain"
	"todosearch/internal/eventbus"
	"todosearch/internal/rx"
)

// Forwarder moves values produced on other goroutines into the Bubble Tea
// loop. Subject listeners only enqueue; a single goroutine calls send.
// Everything stops when the scope is destroyed.
type Forwarder struct {
	scope *rx.Scope
	msgs  chan tea.Msg
}

// NewForwarder starts forwarding to send, typically (*tea.Program).Send.
func NewForwarder(scope *rx.Scope, send func(tea.Msg), buffer int) *Forwarder {
	f := &Forwarder{
		scope: scope,
		msgs:  make(chan tea.Msg, buffer),
	}
	go f.run(send)
	return f
}

func (f *Forwarder) run(send func(tea.Msg)) {
	for {
		select {
		case msg := <-f.msgs:
			send(msg)
		case <-f.scope.Done():
			return
		}
	}
}

// Post enqueues msg, waiting for buffer space unless the scope ends first.
func (f *Forwarder) Post(msg tea.Msg) {
	select {
	case f.msgs <- msg:
	case <-f.scope.Done():
	}
}

// TryPost enqueues msg if there is buffer space and reports whether it did.
func (f *Forwarder) TryPost(msg tea.Msg) bool {
	select {
	case f.msgs <- msg:
		return true
	default:
		logger.Warningf("ui message buffer full, dropping %T", msg)
		return false
	}
}

// Forward subscribes to src for the lifetime of the scope, wrapping each
// value with wrap.
func Forward[T any](f *Forwarder, src rx.Source[T], wrap func(T) tea.Msg) {
	f.scope.Add(rx.Map(src, wrap).Subscribe(f.Post))
}

// ForwardSearch forwards the results and loading subjects of a search.
func ForwardSearch(f *Forwarder, results rx.Source[[]domain.Todo], loading rx.Source[bool]) {
	Forward(f, results, func(todos []domain.Todo) tea.Msg { return ResultsMsg{Todos: todos} })
	Forward(f, loading, func(v bool) tea.Msg { return LoadingMsg{Loading: v} })
}

// ForwardDashboards forwards every loaded dashboard.
func ForwardDashboards(f *Forwarder, dashboards rx.Source[domain.Dashboard]) {
	Forward(f, dashboards, func(d domain.Dashboard) tea.Msg { return DashboardMsg{Dashboard: d} })
}

// ForwardEvents forwards the given event types from bus. Events are
// dropped rather than stalling the bus when the buffer is full.
func ForwardEvents(f *Forwarder, bus eventbus.EventBus, types ...eventbus.EventType) {
	for _, et := range types {
		unsubscribe := bus.Subscribe(et, func(e eventbus.DomainEvent) {
			f.TryPost(EventMsg{Event: e})
		})
		f.scope.OnDestroy(unsubscribe)
	}
}
