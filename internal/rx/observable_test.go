package rx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyObserver[T any] struct {
	calls []T
}

func (o *spyObserver[T]) Update(v T) { o.calls = append(o.calls, v) }

type funcObserver func(int)

func (f funcObserver) Update(v int) { f(v) }

func TestBroadcasterNotifiesObserver(t *testing.T) {
	b := NewBroadcaster[string]()
	o := &spyObserver[string]{}

	b.Subscribe(o)
	b.Notify("Test")

	assert.Equal(t, []string{"Test"}, o.calls)
}

func TestBroadcasterNotifiesObserversInOrder(t *testing.T) {
	b := NewBroadcaster[int]()
	var order []int
	first := &orderObserver{id: 1, order: &order}
	second := &orderObserver{id: 2, order: &order}
	third := &orderObserver{id: 3, order: &order}

	b.Subscribe(first)
	b.Subscribe(second)
	b.Subscribe(third)
	b.Notify(42)

	assert.Equal(t, []int{1, 2, 3}, order)
}

type orderObserver struct {
	id    int
	order *[]int
}

func (o *orderObserver) Update(int) { *o.order = append(*o.order, o.id) }

func TestBroadcasterUnsubscribedObserverIsNotNotified(t *testing.T) {
	b := NewBroadcaster[bool]()
	o := &spyObserver[bool]{}

	sub := b.Subscribe(o)
	b.Unsubscribe(o)
	b.Notify(true)

	assert.Empty(t, o.calls)
	assert.True(t, sub.Closed())
}

func TestBroadcasterResubscribe(t *testing.T) {
	b := NewBroadcaster[int]()
	o := &spyObserver[int]{}

	b.Subscribe(o)
	b.Notify(1)
	b.Unsubscribe(o)
	b.Notify(2)
	b.Subscribe(o)
	b.Notify(3)

	assert.Equal(t, []int{1, 3}, o.calls)
}

func TestBroadcasterDeduplicatesActiveObserver(t *testing.T) {
	b := NewBroadcaster[int]()
	o := &spyObserver[int]{}

	sub1 := b.Subscribe(o)
	sub2 := b.Subscribe(o)
	b.Notify(9)

	assert.Same(t, sub1, sub2)
	assert.Equal(t, []int{9}, o.calls)
}

func TestBroadcasterUnsubscribeUnknownObserver(t *testing.T) {
	b := NewBroadcaster[int]()
	subscribed := &spyObserver[int]{}
	stranger := &spyObserver[int]{}

	b.Subscribe(subscribed)
	b.Unsubscribe(stranger)
	b.Unsubscribe(funcObserver(func(int) {}))
	b.Notify(10)

	assert.Equal(t, []int{10}, subscribed.calls)
	assert.Empty(t, stranger.calls)
}

func TestBroadcasterSubscriptionDisposeIsIdempotent(t *testing.T) {
	b := NewBroadcaster[string]()
	o := &spyObserver[string]{}

	sub := b.Subscribe(o)
	sub.Unsubscribe()
	sub.Unsubscribe()
	b.Unsubscribe(o)
	b.Notify("a")

	assert.Empty(t, o.calls)

	// A fresh subscription after disposal is independent of the old one.
	again := b.Subscribe(o)
	b.Notify("b")
	assert.NotSame(t, sub, again)
	assert.Equal(t, []string{"b"}, o.calls)
}

func TestBroadcasterRejectsNonComparableObserver(t *testing.T) {
	b := NewBroadcaster[int]()
	require.Panics(t, func() {
		b.Subscribe(funcObserver(func(int) {}))
	})
}

func TestBroadcasterIsolatesPanickingObserver(t *testing.T) {
	b := NewBroadcaster[int]()
	o := &spyObserver[int]{}

	b.Subscribe(&panicObserver{})
	b.Subscribe(o)

	require.NotPanics(t, func() { b.Notify(1) })
	assert.Equal(t, []int{1}, o.calls)
}

type panicObserver struct{}

func (*panicObserver) Update(int) { panic("observer failed") }
