// Package notify publishes cache-invalidation events when page settings
// change, so edge caches holding the one-hour preview documents can purge.
package notify

import (
	"context"
	"time"
)

// Actions carried by invalidation events.
const (
	ActionUpserted = "upserted"
	ActionDeleted  = "deleted"
)

// Event describes one settings change.
type Event struct {
	PagePath string    `json:"page_path"`
	Action   string    `json:"action"`
	At       time.Time `json:"at"`
}

// Publisher delivers invalidation events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) (string, error)
	Close() error
}

// NoOp discards every event.
type NoOp struct{}

// Publish drops the event and reports success.
func (NoOp) Publish(_ context.Context, _ string, _ Event) (string, error) {
	return "", nil
}

// Close is a no-op.
func (NoOp) Close() error { return nil }
