package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchStarted   EventType = "SearchStarted"
	EventSearchCompleted EventType = "SearchCompleted"
	EventSearchCleared   EventType = "SearchCleared"
	EventLookupFailed    EventType = "LookupFailed"
	EventLookupDiscarded EventType = "LookupDiscarded"
	EventDashboardLoaded EventType = "DashboardLoaded"
	EventError           EventType = "Error"
	EventConfigLoaded    EventType = "ConfigLoaded"
	EventConfigSaved     EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchStartedEvent is emitted when a lookup is started for a query
type SearchStartedEvent struct {
	Query   string
	Version uint64
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCompletedEvent is emitted when the current lookup delivers its results
type SearchCompletedEvent struct {
	Query   string
	Version uint64
	Count   int
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchClearedEvent is emitted when an empty query clears the results
type SearchClearedEvent struct{}

func (e SearchClearedEvent) Type() EventType { return EventSearchCleared }

// LookupFailedEvent is emitted when the current lookup fails.
// The result stream still receives an empty list.
type LookupFailedEvent struct {
	Query   string
	Version uint64
	Err     error
}

func (e LookupFailedEvent) Type() EventType { return EventLookupFailed }

// LookupDiscardedEvent is emitted when a superseded lookup completes
type LookupDiscardedEvent struct {
	Query   string
	Version uint64
}

func (e LookupDiscardedEvent) Type() EventType { return EventLookupDiscarded }

// DashboardLoadedEvent is emitted when the dashboard has been assembled
type DashboardLoadedEvent struct {
	Dashboard Dashboard
}

func (e DashboardLoadedEvent) Type() EventType { return EventDashboardLoaded }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
