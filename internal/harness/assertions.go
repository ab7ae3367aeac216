package harness

import (
	"fmt"
	"strings"

	"github.com/sbip-sg/slotstore/internal/word"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		if event.Type == "call" || event.Type == "rejected" {
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", i+1, event.Type, event.Method, event.Args)
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an applied call matching
// the specified method and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == "call" && event.Method == assertion.Method {
			if matchArgs(event.Args, assertion.Args) {
				return nil
			}
		}
	}

	return &AssertionError{
		Type:     "trace_contains",
		Expected: fmt.Sprintf("call %s with args %v", assertion.Method, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if methods appear in the specified order.
// Calls don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// First position of each expected method, 1-indexed for readability
	positions := make(map[string]int)

	for i, event := range trace {
		if event.Type == "call" {
			for _, expectedMethod := range assertion.Methods {
				if event.Method == expectedMethod && positions[expectedMethod] == 0 {
					positions[expectedMethod] = i + 1
				}
			}
		}
	}

	for _, method := range assertion.Methods {
		if positions[method] == 0 {
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("all methods present: %v", assertion.Methods),
				Actual:   fmt.Sprintf("missing method: %s", method),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Methods); i++ {
		prev := assertion.Methods[i-1]
		curr := assertion.Methods[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("methods in order: %v", assertion.Methods),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the method was applied exactly the specified
// number of times. Rejected calls are not counted.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0

	for _, event := range trace {
		if event.Type == "call" && event.Method == assertion.Method {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     "trace_count",
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Method),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalValue checks the slot word after the last step. The expected
// value is parsed as a word so the assertion may use hex or decimal.
func assertFinalValue(result *Result, assertion Assertion) error {
	expected, err := word.Parse(assertion.Value)
	if err != nil {
		return fmt.Errorf("final_value assertion: invalid value %q: %w", assertion.Value, err)
	}

	if result.FinalValue != expected.String() {
		return &AssertionError{
			Type:     "final_value",
			Expected: expected.String(),
			Actual:   result.FinalValue,
			Trace:    result.Trace,
		}
	}

	return nil
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored. Values compare numerically when both
// sides parse as words.
func matchArgs(actual map[string]string, expected map[string]string) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !wordTextEqual(actualVal, expectedVal) {
			return false
		}
	}

	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalValue:
			err = assertFinalValue(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
