// Package events carries informational notifications out of the oracle.
//
// Events are fire-and-forget: a sink error is reported to the publisher but
// must never change the outcome of the operation that produced the event.
package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// TypeRecordStored is emitted after a record is written.
const TypeRecordStored = "record.stored"

// Event describes something that happened to the registry.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	RecordID  string `json:"record_id"`
	Creator   string `json:"creator"`
	Timestamp uint64 `json:"timestamp"`
}

// NewRecordStored builds a record.stored event with a fresh UUIDv7 id.
func NewRecordStored(recordID, creator string, timestamp uint64) Event {
	return Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      TypeRecordStored,
		RecordID:  recordID,
		Creator:   creator,
		Timestamp: timestamp,
	}
}

// Sink receives events.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Discard drops every event.
type Discard struct{}

// Publish implements Sink.
func (Discard) Publish(context.Context, Event) error { return nil }

// LogSink writes events to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a sink logging to logger (slog.Default when nil).
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger.With("component", "events")}
}

// Publish implements Sink.
func (s *LogSink) Publish(ctx context.Context, ev Event) error {
	s.Logger.InfoContext(ctx, "event",
		"event_id", ev.ID,
		"type", ev.Type,
		"record_id", ev.RecordID,
		"creator", ev.Creator,
		"timestamp", ev.Timestamp,
	)
	return nil
}

// Multi fans an event out to every sink. All sinks are attempted; their
// errors are joined.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
