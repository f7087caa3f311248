package eventbus

import (
	"sync"

	"github.com/juju/loggo"

	"todosearch/internal/domain"
	"todosearch/internal/rx"
)

var logger = loggo.GetLogger("todosearch.eventbus")

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventSearchStarted   = domain.EventSearchStarted
	EventSearchCompleted = domain.EventSearchCompleted
	EventSearchCleared   = domain.EventSearchCleared
	EventLookupFailed    = domain.EventLookupFailed
	EventLookupDiscarded = domain.EventLookupDiscarded
	EventDashboardLoaded = domain.EventDashboardLoaded
	EventError           = domain.EventError
	EventConfigLoaded    = domain.EventConfigLoaded
	EventConfigSaved     = domain.EventConfigSaved
)

// Re-export domain event types
type SearchStartedEvent = domain.SearchStartedEvent
type SearchCompletedEvent = domain.SearchCompletedEvent
type SearchClearedEvent = domain.SearchClearedEvent
type LookupFailedEvent = domain.LookupFailedEvent
type LookupDiscardedEvent = domain.LookupDiscardedEvent
type DashboardLoadedEvent = domain.DashboardLoadedEvent
type ErrorEvent = domain.ErrorEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

// bus is the concrete implementation of EventBus. Each event type has its
// own subject; events are handed to subscribers on a single dispatch
// goroutine, in publish order.
type bus struct {
	mu        sync.Mutex
	topics    map[EventType]*rx.Subject[DomainEvent]
	eventChan chan DomainEvent
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a new event bus
func New() EventBus {
	b := &bus{
		topics:    make(map[EventType]*rx.Subject[DomainEvent]),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish queues an event for delivery. Events published after Close,
// or while the queue is full, are dropped.
func (b *bus) Publish(event DomainEvent) {
	switch event.Type() {
	case EventSearchStarted, EventLookupDiscarded:
		// Too frequent while typing
	default:
		logger.Debugf("publishing event %s", event.Type())
	}

	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		logger.Warningf("event bus channel full, dropping event: %v", event.Type())
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	sub := b.topic(eventType).Subscribe(handler)
	return sub.Unsubscribe
}

// Close stops dispatching. Queued events are discarded.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
}

func (b *bus) topic(eventType EventType) *rx.Subject[DomainEvent] {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[eventType]
	if !ok {
		t = rx.NewSubject[DomainEvent]()
		b.topics[eventType] = t
	}
	return t
}

func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			// Handler panics are recovered by the subject.
			b.topic(event.Type()).Next(event)

		case <-b.quit:
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}
