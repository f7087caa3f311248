package rx

import "sync"

// BehaviorSubject is a Subject that remembers the last value it emitted.
// New subscribers receive the current value immediately.
type BehaviorSubject[T any] struct {
	subject Subject[T]

	mu    sync.Mutex
	value T
}

// NewBehaviorSubject returns a BehaviorSubject holding initial.
func NewBehaviorSubject[T any](initial T) *BehaviorSubject[T] {
	return &BehaviorSubject[T]{value: initial}
}

// Value returns the most recently emitted value.
func (b *BehaviorSubject[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Subscribe delivers the current value to fn and registers it for
// subsequent values. Values emitted while the current value is being
// replayed are queued and delivered after it, so the last value fn sees
// is always the subject's latest.
func (b *BehaviorSubject[T]) Subscribe(fn func(T)) *Subscription {
	g := &replayGate[T]{fn: fn}

	b.mu.Lock()
	current := b.value
	sub := b.subject.Subscribe(g.deliver)
	b.mu.Unlock()

	deliver(fn, current)
	g.open(sub)
	return sub
}

// Unsubscribe removes the listener registered under sub.
func (b *BehaviorSubject[T]) Unsubscribe(sub *Subscription) {
	b.subject.Unsubscribe(sub)
}

// Next records v as the current value and delivers it to all listeners.
func (b *BehaviorSubject[T]) Next(v T) {
	b.mu.Lock()
	b.value = v
	b.mu.Unlock()
	b.subject.Next(v)
}

// Len returns the number of registered listeners.
func (b *BehaviorSubject[T]) Len() int {
	return b.subject.Len()
}

// replayGate holds back values for a new listener until its replay is done.
type replayGate[T any] struct {
	fn func(T)

	mu      sync.Mutex
	opened  bool
	pending []T
}

func (g *replayGate[T]) deliver(v T) {
	g.mu.Lock()
	if !g.opened {
		g.pending = append(g.pending, v)
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	deliver(g.fn, v)
}

func (g *replayGate[T]) open(sub *Subscription) {
	for {
		g.mu.Lock()
		if len(g.pending) == 0 || sub.Closed() {
			g.pending = nil
			g.opened = true
			g.mu.Unlock()
			return
		}
		queued := g.pending
		g.pending = nil
		g.mu.Unlock()
		for _, v := range queued {
			deliver(g.fn, v)
		}
	}
}
