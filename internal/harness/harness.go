package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/oracle"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store/memstore"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/testutil"
)

// Harness executes scenario steps against one oracle.
type Harness struct {
	backend store.Backend
	svc     *oracle.Service
	clock   *testutil.DeterministicClock
	sink    *testutil.RecordingSink
	logger  *slog.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes oracle and harness logs to l. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario against a fresh in-memory oracle and returns its
// trace. Expectation and assertion failures are reported in the Result; the
// error is reserved for failures of the harness itself.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		backend: memstore.New(),
		clock:   testutil.NewDeterministicClock(),
		sink:    &testutil.RecordingSink{},
		logger:  testutil.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	defer h.backend.Close()

	svc, err := oracle.Initialize(ctx, h.backend, scenario.Owner,
		oracle.WithClock(h.clock),
		oracle.WithSink(h.sink),
		oracle.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oracle: %w", err)
	}
	h.svc = svc

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.execute(ctx, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		result.Trace = append(result.Trace, ev)
		for _, msg := range checkExpect(i+1, step, ev) {
			result.AddError(msg)
		}
		h.logger.DebugContext(ctx, "step completed", "seq", ev.Seq, "op", ev.Op, "outcome", ev.Outcome)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot: %w", err)
	}
	result.Digest = snap.Digest
	result.Events = len(h.sink.Events())

	actx := &AssertionContext{Ctx: ctx, Store: h.backend, Events: result.Events}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. Oracle errors become the event outcome; anything
// else aborts the run.
func (h *Harness) execute(ctx context.Context, seq int, step Step) (TraceEvent, error) {
	ev := TraceEvent{Seq: seq, Op: step.Op, Outcome: OutcomeOK}

	switch step.Op {
	case OpStore:
		ev.Caller, ev.ID, ev.Text = step.Caller, step.ID, step.Text
		err := h.svc.Store(ctx, h.svc.Call(step.Caller), step.ID, step.Text)
		return outcome(ev, err)

	case OpGet:
		ev.ID = step.ID
		rec, found, err := h.svc.Get(ctx, step.ID)
		if err != nil {
			return ev, err
		}
		ev.Found = found
		if found {
			ev.Record = &rec
		}
		return ev, nil

	case OpList:
		ev.Limit = *step.Limit
		entries, err := h.svc.List(ctx, ev.Limit)
		if err != nil {
			return ev, err
		}
		ev.Entries = entries
		return ev, nil

	case OpInit:
		ev.Caller = step.Caller
		_, err := oracle.Initialize(ctx, h.backend, step.Caller, oracle.WithLogger(h.logger))
		return outcome(ev, err)
	}
	return ev, fmt.Errorf("unknown op %q", step.Op)
}

func outcome(ev TraceEvent, err error) (TraceEvent, error) {
	if err == nil {
		return ev, nil
	}
	var oe *oracle.Error
	if errors.As(err, &oe) {
		ev.Outcome = string(oe.Code)
		return ev, nil
	}
	return ev, err
}

func checkExpect(seq int, step Step, ev TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		exp = &Expect{}
	}

	var errs []string
	wantOutcome := OutcomeOK
	if exp.Error != "" {
		wantOutcome = exp.Error
	}
	if ev.Outcome != wantOutcome {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected outcome %s, got %s", seq, step.Op, wantOutcome, ev.Outcome))
	}

	if exp.Found != nil && ev.Found != *exp.Found {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected found=%t, got %t", seq, step.Op, *exp.Found, ev.Found))
	}

	var rec record.Record
	if ev.Record != nil {
		rec = *ev.Record
	}
	if exp.Text != nil && rec.Text != *exp.Text {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected text %q, got %q", seq, step.Op, *exp.Text, rec.Text))
	}
	if exp.Creator != nil && rec.Creator != *exp.Creator {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected creator %q, got %q", seq, step.Op, *exp.Creator, rec.Creator))
	}

	if exp.IDs != nil {
		got := entryIDs(ev.Entries)
		if !slices.Equal(got, exp.IDs) {
			errs = append(errs, fmt.Sprintf("step %d (%s): expected ids %v, got %v", seq, step.Op, exp.IDs, got))
		}
	}
	return errs
}

func entryIDs(entries []record.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
