package ui

import (
	"time"

	"hackhub/internal/domain"
	"hackhub/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer for animations
type tickMsg time.Time

// loadedMsg reports the result of fetching a tab's collection
type loadedMsg struct {
	tab domain.Tab
	err error
}

// readerClosedMsg is sent when the ov reader exits
type readerClosedMsg struct {
	err error
}

// forwardedEvents are the bus events that change what the UI shows
var forwardedEvents = []domain.EventType{
	domain.EventSearchStarted,
	domain.EventSearchCompleted,
	domain.EventSearchFailed,
	domain.EventSearchCleared,
	domain.EventCollectionLoaded,
	domain.EventCollectionFailed,
	domain.EventFiltersChanged,
	domain.EventPageExtended,
}

// ForwardEvents delivers bus events to send, typically tea.Program.Send.
// The returned func unsubscribes.
func ForwardEvents(bus eventbus.EventBus, send func(msg any)) func() {
	unsubs := make([]func(), 0, len(forwardedEvents))
	for _, et := range forwardedEvents {
		unsubs = append(unsubs, bus.Subscribe(et, func(e eventbus.DomainEvent) {
			send(EventMsg{Event: e})
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
