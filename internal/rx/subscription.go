package rx

import (
	"sync"
	"sync/atomic"
)

// Subscription is the handle returned by a subscribe call. It is open
// until Unsubscribe is called, or until the owner removes the
// registration it represents.
type Subscription struct {
	once     sync.Once
	closed   atomic.Bool
	teardown func()
}

// NewSubscription returns an open subscription that runs teardown the
// first time it is unsubscribed. teardown may be nil.
func NewSubscription(teardown func()) *Subscription {
	return &Subscription{teardown: teardown}
}

// Closed reports whether the subscription has been released.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Unsubscribe releases the subscription. Only the first call has any
// effect; later calls are no-ops.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		if s.teardown != nil {
			s.teardown()
		}
	})
}
