package rx

import (
	"runtime/debug"
	"sync"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("todosearch.rx")

// Source is anything that can be subscribed to for values of type T.
type Source[T any] interface {
	Subscribe(fn func(T)) *Subscription
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[T any] func(fn func(T)) *Subscription

// Subscribe calls f(fn).
func (f SourceFunc[T]) Subscribe(fn func(T)) *Subscription {
	return f(fn)
}

type listener[T any] struct {
	fn  func(T)
	sub *Subscription
}

// Subject is a multicast, synchronous broadcaster. Next delivers a value
// to every registered listener, in the order they subscribed.
//
// Subscribe and Unsubscribe are safe to call from any goroutine, including
// from inside a listener. Callers that need a total order across emissions
// must not call Next concurrently.
type Subject[T any] struct {
	mu        sync.Mutex
	listeners []*listener[T]
}

// NewSubject returns an empty subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers fn for all subsequent values. Listener identity is
// the returned Subscription, not fn: subscribing the same func twice
// registers two listeners, and each is removed only through its own
// Subscription.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	l := &listener[T]{fn: fn}
	l.sub = NewSubscription(func() { s.remove(l) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
	return l.sub
}

// Unsubscribe removes the listener registered under sub. Removing a
// listener that is not registered on s is a no-op.
func (s *Subject[T]) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	found := false
	for _, l := range s.listeners {
		if l.sub == sub {
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		sub.Unsubscribe()
	}
}

// Next delivers v to every listener registered at the time of the call.
// A listener that panics is logged and skipped; delivery continues with
// the next listener.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	listeners := make([]*listener[T], len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		// Released by an earlier listener during this emission.
		if l.sub.Closed() {
			continue
		}
		deliver(l.fn, v)
	}
}

// Len returns the number of registered listeners.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Subject[T]) remove(l *listener[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.listeners {
		if cur == l {
			// Copy so that an emission holding the old slice is unaffected.
			next := make([]*listener[T], 0, len(s.listeners)-1)
			next = append(next, s.listeners[:i]...)
			s.listeners = append(next, s.listeners[i+1:]...)
			return
		}
	}
}

func deliver[T any](fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("listener panic: %v\nStack: %s", r, debug.Stack())
		}
	}()
	fn(v)
}
