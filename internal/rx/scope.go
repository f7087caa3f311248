package rx

import (
	"context"
	"sync"
)

// Scope is a one-shot teardown signal. Teardowns registered with
// OnDestroy run when Destroy is first called; later calls do nothing.
type Scope struct {
	mu        sync.Mutex
	destroyed bool
	teardowns []func()
	done      chan struct{}
}

// NewScope returns a live scope.
func NewScope() *Scope {
	return &Scope{done: make(chan struct{})}
}

// OnDestroy registers fn to run on Destroy. If the scope is already
// destroyed, fn runs immediately.
func (s *Scope) OnDestroy(fn func()) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardowns = append(s.teardowns, fn)
	s.mu.Unlock()
}

// Add ties sub to the scope's lifetime.
func (s *Scope) Add(sub *Subscription) {
	s.OnDestroy(sub.Unsubscribe)
}

// Destroy runs all registered teardowns in registration order.
func (s *Scope) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	teardowns := s.teardowns
	s.teardowns = nil
	close(s.done)
	s.mu.Unlock()

	for _, fn := range teardowns {
		fn()
	}
}

// Destroyed reports whether Destroy has been called.
func (s *Scope) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Done returns a channel that is closed when the scope is destroyed.
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

// BindContext destroys the scope when ctx is cancelled.
func (s *Scope) BindContext(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.Destroy()
		case <-s.done:
		}
	}()
}
