package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchStarted    EventType = "SearchStarted"
	EventSearchCompleted  EventType = "SearchCompleted"
	EventSearchFailed     EventType = "SearchFailed"
	EventSearchCleared    EventType = "SearchCleared"
	EventSourceFailed     EventType = "SourceFailed"
	EventCollectionLoaded EventType = "CollectionLoaded"
	EventCollectionFailed EventType = "CollectionFailed"
	EventTabChanged       EventType = "TabChanged"
	EventFiltersChanged   EventType = "FiltersChanged"
	EventPageExtended     EventType = "PageExtended"
	EventViewportScrolled EventType = "ViewportScrolled"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchStartedEvent is emitted when an aggregated search is issued
type SearchStartedEvent struct {
	RequestID string
	Query     string
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCompletedEvent is emitted when the latest search settles with results
type SearchCompletedEvent struct {
	RequestID     string
	Query         string
	ResultCount   int
	FailedSources []Kind
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFailedEvent is emitted when every source failed for the latest search
type SearchFailedEvent struct {
	RequestID string
	Query     string
	Err       error
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// SearchClearedEvent is emitted when the query becomes empty
type SearchClearedEvent struct{}

func (e SearchClearedEvent) Type() EventType { return EventSearchCleared }

// SourceFailedEvent is emitted when one source of a search fails
type SourceFailedEvent struct {
	RequestID string
	Kind      Kind
	Err       error
}

func (e SourceFailedEvent) Type() EventType { return EventSourceFailed }

// CollectionLoadedEvent is emitted when a list collection has been fetched
type CollectionLoadedEvent struct {
	Kind  Kind
	Count int
}

func (e CollectionLoadedEvent) Type() EventType { return EventCollectionLoaded }

// CollectionFailedEvent is emitted when fetching a list collection fails
type CollectionFailedEvent struct {
	Kind Kind
	Err  error
}

func (e CollectionFailedEvent) Type() EventType { return EventCollectionFailed }

// TabChangedEvent is emitted when the active list tab changes
type TabChangedEvent struct {
	From Tab
	To   Tab
}

func (e TabChangedEvent) Type() EventType { return EventTabChanged }

// FiltersChangedEvent is emitted when the list filter state changes
type FiltersChangedEvent struct {
	Filters FilterState
	Matches int
}

func (e FiltersChangedEvent) Type() EventType { return EventFiltersChanged }

// PageExtendedEvent is emitted when more items of the list are revealed
type PageExtendedEvent struct {
	Displayed int
	Total     int
}

func (e PageExtendedEvent) Type() EventType { return EventPageExtended }

// ViewportScrolledEvent is emitted by the presentation layer on scroll
type ViewportScrolledEvent struct {
	Offset         int // first visible row
	ViewportHeight int // rows visible at once
	ContentHeight  int // total rows of content
}

func (e ViewportScrolledEvent) Type() EventType { return EventViewportScrolled }
