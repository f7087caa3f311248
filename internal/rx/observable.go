package rx

import (
	"fmt"
	"reflect"
	"sync"
)

// Observer receives values from an Observable.
type Observer[T any] interface {
	Update(value T)
}

// Observable distributes values to subscribed Observers.
type Observable[T any] interface {
	Subscribe(o Observer[T]) *Subscription
	Unsubscribe(o Observer[T])
	Notify(value T)
}

// Broadcaster is the Observable counterpart of Subject. Observers are
// identified by equality, so subscribing an observer that is already
// active returns its existing subscription rather than adding it twice.
//
// Observers must be of a comparable type; pointer receivers are the
// usual choice.
type Broadcaster[T any] struct {
	subject Subject[T]

	mu   sync.Mutex
	subs map[Observer[T]]*Subscription
}

var _ Observable[int] = (*Broadcaster[int])(nil)

// NewBroadcaster returns a Broadcaster with no observers.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		subs: make(map[Observer[T]]*Subscription),
	}
}

// Subscribe registers o. It panics if o is not comparable.
func (b *Broadcaster[T]) Subscribe(o Observer[T]) *Subscription {
	if t := reflect.TypeOf(o); t == nil || !t.Comparable() {
		panic(fmt.Errorf("cannot subscribe non-comparable observer %T", o))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[o]; ok {
		return sub
	}
	inner := b.subject.Subscribe(o.Update)
	sub := NewSubscription(func() {
		inner.Unsubscribe()
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, o)
	})
	b.subs[o] = sub
	return sub
}

// Unsubscribe removes o. Removing an observer that is not subscribed is
// a no-op.
func (b *Broadcaster[T]) Unsubscribe(o Observer[T]) {
	if t := reflect.TypeOf(o); t == nil || !t.Comparable() {
		return
	}
	b.mu.Lock()
	sub := b.subs[o]
	b.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Notify calls Update on every subscribed observer, in subscription order.
func (b *Broadcaster[T]) Notify(value T) {
	b.subject.Next(value)
}
