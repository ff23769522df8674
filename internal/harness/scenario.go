package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpStore = "store"
	OpGet   = "get"
	OpList  = "list"
	OpInit  = "init"
)

// Assertion types.
const (
	AssertRecordCount = "record_count"
	AssertListOrder   = "list_order"
	AssertAbsent      = "absent"
	AssertEventCount  = "event_count"
)

// Scenario is a scripted sequence of oracle operations.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Owner is the identity the oracle is initialized with.
	Owner string `yaml:"owner"`

	// Steps run in order against one oracle.
	Steps []Step `yaml:"steps"`

	// Assertions check the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op     string  `yaml:"op"`
	Caller string  `yaml:"caller,omitempty"`
	ID     string  `yaml:"id,omitempty"`
	Text   string  `yaml:"text,omitempty"`
	Limit  *uint64 `yaml:"limit,omitempty"`

	// Expect is checked against the step outcome. Nil expects success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a step. Unset fields are not
// checked.
type Expect struct {
	// Error is the expected oracle error code; empty means success.
	Error   string  `yaml:"error,omitempty"`
	Found   *bool   `yaml:"found,omitempty"`
	Text    *string `yaml:"text,omitempty"`
	Creator *string `yaml:"creator,omitempty"`
	// IDs is the exact identifier sequence a list step must return.
	IDs []string `yaml:"ids,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	Type  string   `yaml:"type"`
	Count *int     `yaml:"count,omitempty"`
	IDs   []string `yaml:"ids,omitempty"`
	ID    string   `yaml:"id,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpStore, OpGet:
		case OpInit:
			if step.Caller == "" {
				return fmt.Errorf("steps[%d]: caller is required for init", i)
			}
		case OpList:
			if step.Limit == nil {
				return fmt.Errorf("steps[%d]: limit is required for list", i)
			}
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertRecordCount, AssertEventCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertListOrder:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for list_order", index)
		}
	case AssertAbsent:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
