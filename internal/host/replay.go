package host

import (
	"context"
	"fmt"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/store"
	"github.com/sbip-sg/slotstore/internal/word"
)

// Replay and idempotency
//
// Idempotency here is structural, not a special "replay mode". Applied
// calls are content-addressed: the same (token, method, args, seq) always
// produces the same call ID, and ApplyCallAtomic's ON CONFLICT insert makes
// re-applying a journaled call a no-op. Replay therefore re-derives state
// by walking the same journal rows in the same order (seq ASC, id COLLATE
// BINARY ASC) that the live loop produced them in.
//
// Replay rebuilds the slot from genesis using only the set calls, then
// checks three things against the persisted records:
//
//  1. Every call ID re-hashes to itself (the journal was not edited)
//  2. Every get receipt carries the word the rebuilt slot held at that seq
//  3. The final slot row matches the rebuilt word
//
// Any mismatch is reported as a divergence rather than an error: the
// journal is still readable, it just no longer proves the state.

// ReplayReport summarizes one verification pass over the journal.
type ReplayReport struct {
	Calls       int       `json:"calls"`
	Receipts    int       `json:"receipts"`
	FinalValue  word.Word `json:"final_value"`
	Divergences []string  `json:"divergences"`
}

// Diverged reports whether the journal failed verification.
func (r *ReplayReport) Diverged() bool {
	return len(r.Divergences) > 0
}

// Replay walks the whole journal in deterministic order, rebuilds the slot
// word from genesis, and verifies the persisted receipts and slot row.
//
// Returns an error only for storage failures; journal mismatches land in
// the report's Divergences.
func Replay(ctx context.Context, st *store.Store, spec abi.ContractSpec) (*ReplayReport, error) {
	calls, err := st.ReadAllCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	receipts, err := st.ReadAllReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	report := &ReplayReport{
		Calls:       len(calls),
		Receipts:    len(receipts),
		Divergences: []string{},
	}

	byCall := make(map[string]abi.Receipt, len(receipts))
	for _, rec := range receipts {
		byCall[rec.CallID] = rec
	}

	current := spec.Genesis

	for _, call := range calls {
		id, err := abi.CallID(call.Token, string(call.Method), call.Args, call.Seq)
		if err != nil {
			return nil, fmt.Errorf("replay: rehash call %s: %w", call.ID, err)
		}
		if id != call.ID {
			report.diverge("call %s: stored ID does not match content hash %s", call.ID, id)
			continue
		}

		rec, ok := byCall[call.ID]
		if !ok {
			report.diverge("call %s (seq %d): no receipt", call.ID, call.Seq)
			continue
		}
		delete(byCall, call.ID)

		if rec.OutputCase != abi.CaseSuccess {
			report.diverge("call %s: journaled receipt has output case %q", call.ID, rec.OutputCase)
		}

		var expected abi.Args
		switch call.Method {
		case abi.MethodSet:
			value, err := call.SetArg()
			if err != nil {
				report.diverge("call %s: journaled set argument no longer parses: %v", call.ID, err)
				continue
			}
			expected = abi.Args{}
			current = value

		case abi.MethodGet:
			expected = abi.Args{abi.ArgValue: current.String()}

		default:
			report.diverge("call %s: unknown journaled method %q", call.ID, call.Method)
			continue
		}

		if !sameResult(rec.Result, expected) {
			report.diverge("call %s (seq %d): receipt result %v, replay derived %v",
				call.ID, call.Seq, rec.Result, expected)
		}

		recID, err := abi.ReceiptID(rec.CallID, rec.OutputCase, rec.Result, rec.Seq)
		if err != nil {
			return nil, fmt.Errorf("replay: rehash receipt %s: %w", rec.ID, err)
		}
		if recID != rec.ID {
			report.diverge("receipt %s: stored ID does not match content hash %s", rec.ID, recID)
		}
	}

	// Receipts whose call never appears in the journal
	for callID, rec := range byCall {
		report.diverge("receipt %s answers unknown call %s", rec.ID, callID)
	}

	// The slot row must match the rebuilt word. A fresh ledger has no row
	// and reads as genesis.
	persisted, _, ok, err := st.ReadSlot(ctx, spec.Name, spec.Slot.Index)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if !ok {
		persisted = spec.Genesis
	}
	if persisted.Cmp(current) != 0 {
		report.diverge("slot holds %s, replay derived %s", persisted, current)
	}

	report.FinalValue = current
	return report, nil
}

func (r *ReplayReport) diverge(format string, args ...any) {
	r.Divergences = append(r.Divergences, fmt.Sprintf(format, args...))
}

// sameResult compares receipt results field by field. Word values are
// canonical decimal strings, so string equality is value equality.
func sameResult(a, b abi.Args) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
