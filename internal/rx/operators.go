package rx

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// Debounce returns a Source that emits a value from src only after d has
// passed without src emitting another one. Each subscriber gets its own
// timer; unsubscribing stops it and detaches from src.
func Debounce[T any](src Source[T], d time.Duration, clk clock.Clock) Source[T] {
	if clk == nil {
		clk = clock.WallClock
	}
	return SourceFunc[T](func(fn func(T)) *Subscription {
		db := &debouncer[T]{d: d, clk: clk, emit: fn}
		upstream := src.Subscribe(db.push)
		return NewSubscription(func() {
			upstream.Unsubscribe()
			db.stop()
		})
	})
}

type debouncer[T any] struct {
	d    time.Duration
	clk  clock.Clock
	emit func(T)

	mu      sync.Mutex
	timer   clock.Timer
	pending T
	gen     uint64
	stopped bool

	// emitMu keeps downstream emissions from overlapping.
	emitMu sync.Mutex
}

func (db *debouncer[T]) push(v T) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.stopped {
		return
	}
	if db.timer != nil {
		db.timer.Stop()
	}
	db.gen++
	gen := db.gen
	db.pending = v
	db.timer = db.clk.AfterFunc(db.d, func() { db.fire(gen) })
}

func (db *debouncer[T]) fire(gen uint64) {
	db.emitMu.Lock()
	defer db.emitMu.Unlock()

	db.mu.Lock()
	// A newer value restarted the window after this timer had already
	// fired, or the subscription was released.
	if db.stopped || gen != db.gen {
		db.mu.Unlock()
		return
	}
	v := db.pending
	var zero T
	db.pending = zero
	db.timer = nil
	db.mu.Unlock()

	db.emit(v)
}

func (db *debouncer[T]) stop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stopped = true
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}

// DistinctUntilChanged returns a Source that drops values equal to the
// last value it emitted. The first value always passes.
func DistinctUntilChanged[T comparable](src Source[T]) Source[T] {
	return DistinctUntilChangedFunc(src, func(a, b T) bool { return a == b })
}

// DistinctUntilChangedFunc is like DistinctUntilChanged but compares
// values with eq.
func DistinctUntilChangedFunc[T any](src Source[T], eq func(a, b T) bool) Source[T] {
	return SourceFunc[T](func(fn func(T)) *Subscription {
		var (
			mu   sync.Mutex
			last T
			seen bool
		)
		return src.Subscribe(func(v T) {
			mu.Lock()
			if seen && eq(last, v) {
				mu.Unlock()
				return
			}
			last, seen = v, true
			mu.Unlock()
			fn(v)
		})
	})
}

// Map returns a Source that emits f applied to each value of src.
func Map[T, R any](src Source[T], f func(T) R) Source[R] {
	return SourceFunc[R](func(fn func(R)) *Subscription {
		return src.Subscribe(func(v T) { fn(f(v)) })
	})
}
