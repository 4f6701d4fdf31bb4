package sink

import (
	"context"
	"sync"

	audit "f2f-cri/pkg/platform/audit"
)

// Memory keeps events in process. Used when no broker is configured and in tests.
type Memory struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Send(_ context.Context, event audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything received so far.
func (m *Memory) Events() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Named returns the events with the given name, in arrival order.
func (m *Memory) Named(name audit.EventName) []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Event
	for _, e := range m.events {
		if e.EventName == name {
			out = append(out, e)
		}
	}
	return out
}
