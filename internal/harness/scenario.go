package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sbip-sg/slotstore/internal/word"
)

// Scenario defines a conformance test scenario.
// Scenarios validate the contract's observable behavior by driving a
// sequence of calls through the live host and asserting on the resulting
// trace and final slot word.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Token is the fixed account token every call carries.
	// If empty, defaults to "test-token-default" for deterministic golden
	// file comparison.
	Token string `yaml:"token,omitempty"`

	// Genesis optionally seeds the slot before the first step.
	// Decimal or 0x-hex word text; defaults to zero.
	Genesis string `yaml:"genesis,omitempty"`

	// Steps is the call sequence. Each step invokes one method and
	// optionally validates its receipt.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and slot word.
	// Supported types: trace_contains, trace_order, trace_count, final_value
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one call in the scenario.
type Step struct {
	// Invoke is the method name ("set" or "get"). Unknown names are
	// legitimate steps: they exercise the boundary rejection path.
	Invoke string `yaml:"invoke"`

	// Args contains the call arguments. Word values are strings
	// (decimal or 0x-hex) because they exceed YAML integer precision.
	Args map[string]string `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must produce a Success receipt.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Case is the expected output case: "Success" for applied calls,
	// "DomainViolation" or "UnknownMethod" for boundary rejections.
	Case string `yaml:"case"`

	// Result contains expected receipt result fields.
	// Subset match - only specified fields are validated.
	// If nil, only the case is validated.
	Result map[string]string `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final slot word.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check a call appears in the trace with args
	// - "trace_order": Check methods appear in order
	// - "trace_count": Check a method appears exactly N times
	// - "final_value": Check the slot word after the last step
	Type string `yaml:"type"`

	// Method is the method name (used by trace_contains, trace_count).
	Method string `yaml:"method,omitempty"`

	// Args are the expected call arguments (used by trace_contains).
	// Subset match - only specified fields are validated.
	Args map[string]string `yaml:"args,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Methods is the expected method order (used by trace_order).
	Methods []string `yaml:"methods,omitempty"`

	// Value is the expected slot word (used by final_value).
	// Decimal or 0x-hex; compared numerically.
	Value string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalValue    = "final_value"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Genesis != "" {
		if _, err := word.Parse(s.Genesis); err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Invoke == "" {
			return fmt.Errorf("steps[%d]: invoke is required", i)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("steps[%d].expect: case is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Methods) == 0 {
			return fmt.Errorf("assertions[%d]: methods list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalValue:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for final_value", index)
		}
		if _, err := word.Parse(a.Value); err != nil {
			return fmt.Errorf("assertions[%d]: value: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
