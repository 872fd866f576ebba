package manager

import "time"

// Event represents a manager lifecycle event.
// Minimal and stable: name + time and optional fields via key/values.
type Event struct {
	Name   string
	Time   time.Time
	Fields map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic. Publish may be called
// while the manager lock is held.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

func (m *Manager) publish(name string, fields map[string]any) {
	m.publisher.Publish(Event{Name: name, Time: time.Now(), Fields: fields})
}
