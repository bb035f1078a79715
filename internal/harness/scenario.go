package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios execute a sequence of record operations against a fresh
// database and assert on the resulting event log and final state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Entities holds inline CUE entity definitions.
	Entities string `yaml:"entities"`

	// Steps contains the operations to execute, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final event log and state.
	// Supported types: event_count, event_contains, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Step represents one record operation.
type Step struct {
	// Op is the operation: create, get, list, update, or delete.
	Op string `yaml:"op"`

	// Entity names the entity type.
	Entity string `yaml:"entity"`

	// Key is the primary key (update, delete, get).
	Key any `yaml:"key,omitempty"`

	// Args contains the payload fields (create, update) or equality
	// filters (list).
	Args map[string]any `yaml:"args,omitempty"`

	// Actor is recorded on the lifecycle event.
	Actor string `yaml:"actor,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step is assumed to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected step outcome.
type ExpectClause struct {
	// Error is the expected error code (VALIDATION, NOT_FOUND,
	// CONFLICT). Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Result contains expected result field values.
	// Subset match - only specified fields are validated.
	Result map[string]any `yaml:"result,omitempty"`

	// Count is the expected number of rows (list only).
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates the event log or final state after all steps ran.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_count": record's history has exactly Count events
	// - "event_contains": an event of Kind exists for the record
	// - "final_state": record exists with Expect values (or is gone)
	Type string `yaml:"type"`

	// Entity names the entity type.
	Entity string `yaml:"entity"`

	// Key identifies the record. event_* assertions use the string
	// form; final_state coerces it to the key type.
	Key any `yaml:"key"`

	// Count is the expected event count (event_count).
	Count int `yaml:"count,omitempty"`

	// Kind is the expected event kind (event_contains).
	Kind string `yaml:"kind,omitempty"`

	// Payload is the exact expected canonical payload (event_contains,
	// optional).
	Payload string `yaml:"payload,omitempty"`

	// Actor is the expected event actor (event_contains, optional).
	Actor string `yaml:"actor,omitempty"`

	// Expect contains expected field values (final_state). Subset
	// match. Absent means the record must not exist.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount    = "event_count"
	AssertEventContains = "event_contains"
	AssertFinalState    = "final_state"
)

// Operation constants for Step.Op.
const (
	OpCreate = "create"
	OpGet    = "get"
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Entities == "" {
		return fmt.Errorf("entities is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	if step.Entity == "" {
		return fmt.Errorf("steps[%d]: entity is required", index)
	}
	switch step.Op {
	case OpCreate:
		if step.Args == nil {
			return fmt.Errorf("steps[%d]: args is required for create", index)
		}
	case OpUpdate:
		if step.Key == nil {
			return fmt.Errorf("steps[%d]: key is required for update", index)
		}
		if step.Args == nil {
			return fmt.Errorf("steps[%d]: args is required for update", index)
		}
	case OpGet, OpDelete:
		if step.Key == nil {
			return fmt.Errorf("steps[%d]: key is required for %s", index, step.Op)
		}
	case OpList:
		// filters are optional
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Entity == "" {
		return fmt.Errorf("assertions[%d]: entity is required", index)
	}

	switch a.Type {
	case AssertEventCount:
		if a.Key == nil {
			return fmt.Errorf("assertions[%d]: key is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertEventContains:
		if a.Key == nil {
			return fmt.Errorf("assertions[%d]: key is required for event_contains", index)
		}
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_contains", index)
		}
	case AssertFinalState:
		if a.Key == nil {
			return fmt.Errorf("assertions[%d]: key is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
