// Package harness provides a conformance testing framework for the slot
// store host.
//
// Scenarios drive the REAL host: every step goes through host.Apply, which
// validates the call at the abi boundary, mutates the in-memory slot, and
// journals the call and receipt. The trace the harness asserts on is built
// from the records the host actually produced, so a scenario can fail - a
// wrong receipt, a mis-ordered journal, or a replay divergence all surface
// as errors.
//
// Each scenario runs against a fresh in-memory SQLite database with a fixed
// account token, so repeated runs produce byte-identical traces for golden
// file comparison. After the last step the harness replays the journal and
// fails the scenario if the journal does not reproduce the persisted state.
package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/host"
	"github.com/sbip-sg/slotstore/internal/store"
	"github.com/sbip-sg/slotstore/internal/testutil"
	"github.com/sbip-sg/slotstore/internal/word"
)

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory database
//  2. Open a host with the scenario's genesis word and fixed token
//  3. Execute steps through host.Apply, validating expect clauses
//  4. Verify the journal with a full replay
//  5. Evaluate assertions against trace and final slot word
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	spec := abi.DefaultSpec()
	if scenario.Genesis != "" {
		genesis, err := word.Parse(scenario.Genesis)
		if err != nil {
			return nil, fmt.Errorf("invalid genesis: %w", err)
		}
		spec.Genesis = genesis
	}

	gen := testutil.NewFixedTokenGenerator(scenario.Token)

	ctx := context.Background()
	h, err := host.Open(ctx, st, spec, gen)
	if err != nil {
		return nil, fmt.Errorf("failed to open host: %w", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- h.Run(ctx) }()

	token := gen.Generate()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := executeStep(ctx, h, token, i, step, result); err != nil {
			h.Stop()
			<-runErr
			return nil, err
		}
	}

	h.Stop()
	if err := <-runErr; err != nil {
		return nil, fmt.Errorf("host loop: %w", err)
	}

	// The journal must reproduce the state it claims
	report, err := host.Replay(ctx, st, spec)
	if err != nil {
		return nil, fmt.Errorf("replay verification: %w", err)
	}
	for _, d := range report.Divergences {
		result.AddError(fmt.Sprintf("replay divergence: %s", d))
	}
	result.FinalValue = report.FinalValue.String()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep applies one scenario step through the host and validates its
// expect clause. Boundary rejections are legitimate outcomes: they land in
// the trace with their output case but never reach the journal.
func executeStep(ctx context.Context, h *host.Host, token string, index int, step Step, result *Result) error {
	call, rec, err := h.Apply(ctx, token, step.Invoke, step.Args)

	if err != nil {
		var callErr *abi.CallError
		if !errors.As(err, &callErr) {
			return fmt.Errorf("step %d: %w", index, err)
		}

		result.AddRejectedTrace(step.Invoke, callErr.OutputCase())

		if step.Expect == nil {
			result.AddError(fmt.Sprintf(
				"step %d (%s): expected Success, call was rejected: %v", index, step.Invoke, callErr))
		} else if step.Expect.Case != callErr.OutputCase() {
			result.AddError(fmt.Sprintf(
				"step %d (%s): expected case %s, got %s", index, step.Invoke, step.Expect.Case, callErr.OutputCase()))
		}
		return nil
	}

	result.AddCallTrace(call)
	result.AddReceiptTrace(rec)

	expectedCase := abi.CaseSuccess
	if step.Expect != nil {
		expectedCase = step.Expect.Case
	}
	if rec.OutputCase != expectedCase {
		result.AddError(fmt.Sprintf(
			"step %d (%s): expected case %s, got %s", index, step.Invoke, expectedCase, rec.OutputCase))
	}

	// Subset match on receipt result fields
	if step.Expect != nil {
		for key, want := range step.Expect.Result {
			got, ok := rec.Result[key]
			if !ok {
				result.AddError(fmt.Sprintf(
					"step %d (%s): receipt result missing field %q", index, step.Invoke, key))
				continue
			}
			if !wordTextEqual(got, want) {
				result.AddError(fmt.Sprintf(
					"step %d (%s): result %q = %s, expected %s", index, step.Invoke, key, got, want))
			}
		}
	}

	return nil
}

// wordTextEqual compares two word texts numerically, so an expect clause
// may use hex while receipts carry canonical decimal.
func wordTextEqual(got, want string) bool {
	g, err := word.Parse(got)
	if err != nil {
		return got == want
	}
	w, err := word.Parse(want)
	if err != nil {
		return got == want
	}
	return g.Cmp(w) == 0
}
