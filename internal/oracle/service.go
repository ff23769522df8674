package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/events"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
)

const instrumentationName = "github.com/rainwaters11/GoddessCryptoOracle/internal/oracle"

// Call is the execution context of a single operation: who is calling and
// at what logical time. Hosts build it from trusted sources (an
// authenticated token, the local operator); the service never reads either
// value from ambient state.
type Call struct {
	Caller string
	Time   uint64
}

// Service is a Ready oracle: a fixed owner in front of a RecordStore.
type Service struct {
	owner   string
	records store.RecordStore

	clock  Clock
	sink   events.Sink
	logger *slog.Logger

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	stored         metric.Int64Counter
	unauthorized   metric.Int64Counter

	// writeMu serialises writes; reads go straight to the store.
	writeMu sync.Mutex
	// lastStored is the newest committed timestamp. Guarded by writeMu.
	lastStored uint64
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used by Service.Call.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithSink sets the sink receiving record.stored events.
func WithSink(sink events.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// Initialize records owner in backend and returns a Ready service.
//
// Fails with InvalidIdentity for an empty owner and with AlreadyInitialized
// if backend already has an owner; the existing owner is left in place.
func Initialize(ctx context.Context, backend store.Backend, owner string, opts ...Option) (*Service, error) {
	if owner == "" {
		return nil, NewInvalidIdentityError("owner")
	}

	if err := backend.InitOwner(ctx, owner); err != nil {
		if errors.Is(err, store.ErrOwnerAlreadySet) {
			existing, _, _ := backend.Owner(ctx)
			return nil, NewAlreadyInitializedError(existing)
		}
		return nil, fmt.Errorf("initialize: %w", err)
	}

	s, err := newService(ctx, backend, owner, opts)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "oracle initialized", "owner", owner)
	return s, nil
}

// Open resumes a Ready service from a backend initialized earlier.
// Fails with NotInitialized if no owner was ever recorded.
func Open(ctx context.Context, backend store.Backend, opts ...Option) (*Service, error) {
	owner, ok, err := backend.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if !ok {
		return nil, NewNotInitializedError()
	}
	return newService(ctx, backend, owner, opts)
}

func newService(ctx context.Context, backend store.Backend, owner string, opts []Option) (*Service, error) {
	s := &Service{
		owner:   owner,
		records: backend,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "oracle")

	if s.sink == nil {
		s.sink = events.Discard{}
	}

	if src, ok := backend.(store.TimestampSource); ok {
		ts, err := src.MaxTimestamp(ctx)
		if err != nil {
			return nil, fmt.Errorf("resume clock: %w", err)
		}
		s.lastStored = ts
	}
	if s.clock == nil {
		s.clock = NewClockAt(s.lastStored)
	}

	if s.tracerProvider == nil {
		s.tracerProvider = otel.GetTracerProvider()
	}
	s.tracer = s.tracerProvider.Tracer(instrumentationName)

	if s.meterProvider == nil {
		s.meterProvider = otel.GetMeterProvider()
	}
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	s.stored, err = meter.Int64Counter("oracle.records.stored",
		metric.WithDescription("Records written by the owner"))
	if err != nil {
		return nil, fmt.Errorf("create stored counter: %w", err)
	}
	s.unauthorized, err = meter.Int64Counter("oracle.store.unauthorized",
		metric.WithDescription("Write attempts rejected because the caller is not the owner"))
	if err != nil {
		return nil, fmt.Errorf("create unauthorized counter: %w", err)
	}

	return s, nil
}

// Owner returns the identity allowed to write.
func (s *Service) Owner() string {
	return s.owner
}

// Call builds the execution context for caller, stamped with the service
// clock's current time.
func (s *Service) Call(caller string) Call {
	return Call{Caller: caller, Time: s.clock.Now()}
}

// Store writes text under id on behalf of call.Caller.
//
// Only the owner may store. On success the record carries call.Time and
// call.Caller, a "record stored" line is logged and a record.stored event
// is published. A call stamped before the newest committed write but
// committed after it is raised to that write's timestamp, so timestamps
// never decrease in commit order. Event delivery failures are logged and
// otherwise ignored.
// An Unauthorized call leaves the store untouched.
func (s *Service) Store(ctx context.Context, call Call, id, text string) error {
	ctx, span := s.tracer.Start(ctx, "oracle.Store", trace.WithAttributes(
		attribute.String("oracle.record_id", id),
		attribute.String("oracle.caller", call.Caller),
	))
	defer span.End()

	if call.Caller != s.owner {
		err := NewUnauthorizedError(call.Caller, s.owner)
		s.unauthorized.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ErrCodeUnauthorized))
		s.logger.WarnContext(ctx, "store rejected", "id", id, "caller", call.Caller)
		return err
	}

	rec := record.Record{
		Text:      text,
		Timestamp: call.Time,
		Creator:   call.Caller,
	}

	s.writeMu.Lock()
	if rec.Timestamp < s.lastStored {
		rec.Timestamp = s.lastStored
	}
	err := s.records.Put(ctx, id, rec)
	if err == nil {
		s.lastStored = rec.Timestamp
	}
	s.writeMu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		return fmt.Errorf("store %q: %w", id, err)
	}

	s.stored.Add(ctx, 1)
	s.logger.InfoContext(ctx, "record stored", "id", id, "creator", rec.Creator, "timestamp", rec.Timestamp)

	if err := s.sink.Publish(ctx, events.NewRecordStored(id, rec.Creator, rec.Timestamp)); err != nil {
		s.logger.WarnContext(ctx, "event delivery failed", "id", id, "error", err)
	}
	return nil
}

// Get returns the record stored under id. Anyone may read; a missing id is
// found=false, not an error.
func (s *Service) Get(ctx context.Context, id string) (record.Record, bool, error) {
	ctx, span := s.tracer.Start(ctx, "oracle.Get", trace.WithAttributes(
		attribute.String("oracle.record_id", id),
	))
	defer span.End()

	rec, found, err := s.records.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get failed")
		return record.Record{}, false, fmt.Errorf("get %q: %w", id, err)
	}
	span.SetAttributes(attribute.Bool("oracle.found", found))
	return rec, found, nil
}

// List returns up to limit entries in first-insertion order. Anyone may
// read. The order is insertion order, not recency.
func (s *Service) List(ctx context.Context, limit uint64) ([]record.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "oracle.List", trace.WithAttributes(
		attribute.Int64("oracle.limit", store.ClampLimit(limit)),
	))
	defer span.End()

	entries, err := s.records.List(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, fmt.Errorf("list: %w", err)
	}
	span.SetAttributes(attribute.Int("oracle.returned", len(entries)))
	return entries, nil
}

// Snapshot exports the owner, every entry in order and the state digest.
func (s *Service) Snapshot(ctx context.Context) (record.Snapshot, error) {
	n, err := s.records.Len(ctx)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	entries, err := s.List(ctx, uint64(n))
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	digest, err := record.Digest(entries)
	if err != nil {
		return record.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return record.Snapshot{Owner: s.owner, Entries: entries, Digest: digest}, nil
}
