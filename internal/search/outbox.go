package search

import "sync"

// outbox serialises emissions. Work is pushed while the pipeline lock is
// held, so queue order matches state order; it is drained without that
// lock by whichever goroutine finds the outbox idle. A push made from
// inside an emission is run by the active drainer after the current one
// returns, so emissions never overlap.
type outbox struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
}

func (o *outbox) push(fns ...func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, fns...)
}

func (o *outbox) drain() {
	o.mu.Lock()
	if o.draining {
		o.mu.Unlock()
		return
	}
	o.draining = true
	for len(o.queue) > 0 {
		fn := o.queue[0]
		o.queue[0] = nil
		o.queue = o.queue[1:]
		o.mu.Unlock()
		fn()
		o.mu.Lock()
	}
	o.draining = false
	o.mu.Unlock()
}
