package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/events"
)

// RecordingSink captures published events for assertions.
// If Err is set, Publish records the event and then returns Err.
type RecordingSink struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

// Publish implements events.Sink.
func (r *RecordingSink) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

// Events returns a copy of the captured events in publish order.
func (r *RecordingSink) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
