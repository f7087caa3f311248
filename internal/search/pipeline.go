// Package search turns a stream of raw query edits into a stream of
// lookup results.
//
// Each edit is debounced, repeated values are dropped, and the survivor
// is trimmed. An empty query clears the results without a lookup. A
// non-empty query starts a lookup and supersedes any lookup still in
// flight: the older lookup's context is cancelled, and if it completes
// anyway its outcome is discarded. Only the pipeline emits on its result
// and loading subjects.
package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"todosearch/internal/domain"
	"todosearch/internal/eventbus"
	"todosearch/internal/rx"
)

var logger = loggo.GetLogger("todosearch.search")

// DefaultDebounce is the quiet period required before a query is looked up.
const DefaultDebounce = 300 * time.Millisecond

// Lookup resolves a trimmed, non-empty query. It may be called again
// before an earlier call returns; ctx is cancelled once the call's result
// is no longer wanted.
type Lookup func(ctx context.Context, query string) ([]domain.Todo, error)

// Config holds the dependencies of a Pipeline.
type Config struct {
	// Input supplies raw query values, one per edit.
	Input rx.Source[string]

	// Lookup resolves queries.
	Lookup Lookup

	// Debounce is the quiet period; zero means DefaultDebounce.
	Debounce time.Duration

	// Clock drives the debounce timer; nil means the wall clock.
	Clock clock.Clock

	// Bus, if set, receives search lifecycle events.
	Bus eventbus.EventBus
}

// Validate returns an error if the config cannot drive a pipeline.
func (c Config) Validate() error {
	if c.Input == nil {
		return errors.NotValidf("nil Input")
	}
	if c.Lookup == nil {
		return errors.NotValidf("nil Lookup")
	}
	if c.Debounce < 0 {
		return errors.NotValidf("negative Debounce %v", c.Debounce)
	}
	return nil
}

// Pipeline is one search session.
type Pipeline struct {
	lookup Lookup
	bus    eventbus.EventBus

	results *rx.BehaviorSubject[[]domain.Todo]
	loading *rx.BehaviorSubject[bool]

	input     *rx.Subscription
	closed    atomic.Bool
	closeOnce sync.Once

	mu      sync.Mutex
	version uint64
	cancel  context.CancelFunc

	out outbox
}

// New starts a pipeline reading from cfg.Input.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	p := &Pipeline{
		lookup:  cfg.Lookup,
		bus:     cfg.Bus,
		results: rx.NewBehaviorSubject([]domain.Todo{}),
		loading: rx.NewBehaviorSubject(false),
	}
	queries := rx.DistinctUntilChanged(rx.Debounce(cfg.Input, cfg.Debounce, cfg.Clock))
	p.input = queries.Subscribe(p.handleQuery)
	return p, nil
}

// Results returns the subject carrying result lists. New subscribers
// receive the latest list immediately.
func (p *Pipeline) Results() *rx.BehaviorSubject[[]domain.Todo] {
	return p.results
}

// Loading returns the subject carrying the loading flag.
func (p *Pipeline) Loading() *rx.BehaviorSubject[bool] {
	return p.loading
}

// BindTo closes the pipeline when scope is destroyed.
func (p *Pipeline) BindTo(scope *rx.Scope) {
	scope.OnDestroy(p.Close)
}

// Close detaches the pipeline from its input, cancels the pending
// debounce timer and any in-flight lookup, and guarantees that nothing
// further is emitted on Results or Loading. It is safe to call more than
// once and from inside a Results or Loading listener.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.input.Unsubscribe()

		p.mu.Lock()
		p.version++
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		p.mu.Unlock()
		logger.Debugf("search pipeline closed")
	})
}

// Closed reports whether Close has been called.
func (p *Pipeline) Closed() bool {
	return p.closed.Load()
}

func (p *Pipeline) handleQuery(raw string) {
	p.mu.Lock()
	if p.closed.Load() {
		p.mu.Unlock()
		return
	}

	p.version++
	version := p.version
	if p.cancel != nil {
		// Advisory: the lookup may ignore it, the version check won't.
		p.cancel()
		p.cancel = nil
	}

	query := strings.TrimSpace(raw)
	if query == "" {
		p.out.push(
			p.emitLoading(false),
			p.emitResults([]domain.Todo{}),
		)
		p.mu.Unlock()
		p.publish(eventbus.SearchClearedEvent{})
		p.out.drain()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.out.push(p.emitLoading(true))
	p.mu.Unlock()

	logger.Debugf("lookup %d started for %q", version, query)
	p.publish(eventbus.SearchStartedEvent{Query: query, Version: version})
	p.out.drain()

	go p.run(ctx, version, query)
}

func (p *Pipeline) run(ctx context.Context, version uint64, query string) {
	todos, err := p.callLookup(ctx, query)
	p.complete(version, query, todos, err)
}

func (p *Pipeline) callLookup(ctx context.Context, query string) (todos []domain.Todo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("lookup panic: %v", r)
		}
	}()
	return p.lookup(ctx, query)
}

func (p *Pipeline) complete(version uint64, query string, todos []domain.Todo, err error) {
	p.mu.Lock()
	if p.closed.Load() || version != p.version {
		p.mu.Unlock()
		logger.Debugf("discarding stale lookup %d for %q", version, query)
		p.publish(eventbus.LookupDiscardedEvent{Query: query, Version: version})
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	var event eventbus.DomainEvent
	if err != nil {
		logger.Warningf("lookup %d for %q failed: %v", version, query, err)
		todos = []domain.Todo{}
		event = eventbus.LookupFailedEvent{Query: query, Version: version, Err: err}
	} else {
		if todos == nil {
			todos = []domain.Todo{}
		}
		event = eventbus.SearchCompletedEvent{Query: query, Version: version, Count: len(todos)}
	}
	p.out.push(
		p.emitLoading(false),
		p.emitResults(todos),
	)
	p.mu.Unlock()

	p.publish(event)
	p.out.drain()
}

func (p *Pipeline) emitLoading(v bool) func() {
	return func() {
		if !p.closed.Load() {
			p.loading.Next(v)
		}
	}
}

func (p *Pipeline) emitResults(todos []domain.Todo) func() {
	return func() {
		if !p.closed.Load() {
			p.results.Next(todos)
		}
	}
}

func (p *Pipeline) publish(event eventbus.DomainEvent) {
	if p.bus != nil {
		p.bus.Publish(event)
	}
}
