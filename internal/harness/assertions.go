package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
)

// AssertionContext gives assertions access to the final state.
type AssertionContext struct {
	Ctx    context.Context
	Store  store.RecordStore
	Events int
}

// AssertionError describes a failed assertion with the trace for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s caller=%q id=%q -> %s\n", ev.Seq, ev.Op, ev.Caller, ev.ID, ev.Outcome)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertRecordCount:
		n, err := actx.Store.Len(actx.Ctx)
		if err != nil {
			return err
		}
		if n != *a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d records", *a.Count), Actual: fmt.Sprintf("%d records", n), Trace: result.Trace}
		}

	case AssertListOrder:
		entries, err := actx.Store.List(actx.Ctx, math.MaxUint64)
		if err != nil {
			return err
		}
		got := entryIDs(entries)
		if !slices.Equal(got, a.IDs) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%v", a.IDs), Actual: fmt.Sprintf("%v", got), Trace: result.Trace}
		}

	case AssertAbsent:
		_, found, err := actx.Store.Get(actx.Ctx, a.ID)
		if err != nil {
			return err
		}
		if found {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%q absent", a.ID), Actual: "present", Trace: result.Trace}
		}

	case AssertEventCount:
		if actx.Events != *a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d events", *a.Count), Actual: fmt.Sprintf("%d events", actx.Events), Trace: result.Trace}
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
