package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
)

// canonical converts a trace event to the map form record.MarshalCanonical
// accepts. Fields that do not apply to the op are left out.
func (ev TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"seq":     ev.Seq,
		"op":      ev.Op,
		"outcome": ev.Outcome,
	}
	switch ev.Op {
	case OpStore:
		m["caller"] = ev.Caller
		m["id"] = ev.ID
		m["text"] = ev.Text
	case OpGet:
		m["id"] = ev.ID
		m["found"] = ev.Found
		if ev.Record != nil {
			m["record"] = *ev.Record
		}
	case OpList:
		m["limit"] = ev.Limit
		entries := ev.Entries
		if entries == nil {
			entries = []record.Entry{}
		}
		m["entries"] = entries
	case OpInit:
		m["caller"] = ev.Caller
	}
	return m
}

// Render serialises a scenario result as canonical JSON. The output is
// byte-stable and is what golden files hold.
func Render(scenario *Scenario, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = ev.canonical()
	}
	return record.MarshalCanonical(map[string]any{
		"name":   scenario.Name,
		"owner":  scenario.Owner,
		"trace":  trace,
		"digest": result.Digest,
		"events": result.Events,
	})
}

// RunWithGolden executes a scenario and compares its rendered trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Render(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
