package events

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNoRoomID = errors.New("event has no room id")

// EventStore is the interface for storing and retrieving events.
type EventStore interface {
	Append(event Event) error
	LoadEvents(roomID string) ([]Event, error)
}

// InMemoryEventStore is an in-memory implementation of the EventStore interface.
// Its history lives as long as the process.
type InMemoryEventStore struct {
	events map[string][]Event
	mutex  sync.RWMutex
}

// NewInMemoryEventStore creates a new in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]Event),
	}
}

// Append adds a new event to the store.
func (s *InMemoryEventStore) Append(event Event) error {
	roomID := GetRoomID(event)
	if roomID == "" {
		return fmt.Errorf("append %s: %w", event.EventName(), ErrNoRoomID)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.events[roomID] = append(s.events[roomID], event)
	return nil
}

// LoadEvents retrieves all events for the given room, oldest first.
func (s *InMemoryEventStore) LoadEvents(roomID string) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	// Make a copy to avoid potential race conditions
	result := make([]Event, len(s.events[roomID]))
	copy(result, s.events[roomID])
	return result, nil
}

// Handler returns an EventHandler that appends to the store, reporting failures to onErr.
func (s *InMemoryEventStore) Handler(onErr func(Event, error)) EventHandler {
	return func(event Event) {
		if err := s.Append(event); err != nil && onErr != nil {
			onErr(event, err)
		}
	}
}
