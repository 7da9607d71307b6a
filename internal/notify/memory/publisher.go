// Package memory contains an in-memory publisher implementation for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dibull/preview-renderer/internal/notify"
)

// Publisher stores published invalidation events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []Recorded
}

// Recorded captures one publish call.
type Recorded struct {
	Topic string
	Event notify.Event
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, event notify.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Recorded{Topic: topic, Event: event})
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Close is a no-op for the in-memory publisher.
func (p *Publisher) Close() error { return nil }

// Events returns the recorded publishes.
func (p *Publisher) Events() []Recorded {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Recorded, len(p.events))
	copy(out, p.events)
	return out
}
