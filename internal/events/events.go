// Package events defines the domain events exchanged between modules and
// re-exports the platform event bus for convenience.
package events

import (
	"github.com/google/uuid"

	platformevents "propscan_backend/platform/events"
	"propscan_backend/platform/logger"
)

// Event is a type alias to the platform Event interface.
type Event = platformevents.Event

// Bus is a type alias to the platform Bus interface.
type Bus = platformevents.Bus

// BaseEvent is a type alias to the platform BaseEvent.
type BaseEvent = platformevents.BaseEvent

// Handler is a type alias to the platform Handler interface.
type Handler = platformevents.Handler

// HandlerFunc is a type alias to the platform HandlerFunc adapter.
type HandlerFunc = platformevents.HandlerFunc

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// ListingIngested is published after a raw listing has been stored and
// classified.
type ListingIngested struct {
	BaseEvent
	ListingID uuid.UUID
	Source    string
	City      string
}

// EventName returns the unique identifier for this event type.
func (ListingIngested) EventName() string { return "listings.ingested" }

// ScanCompleted is published after a dedupe scan run has finished and
// canonical records have been upserted. Subscribers use it to chain
// follow-up work such as coordinate backfills.
type ScanCompleted struct {
	BaseEvent
	RunID             uuid.UUID
	PropertiesCreated int
	PropertiesUpdated int
}

// EventName returns the unique identifier for this event type.
func (ScanCompleted) EventName() string { return "properties.scan_completed" }
