package harness

import "github.com/sbip-sg/slotstore/internal/abi"

// TraceEvent is one observed event in a scenario run: a journaled call, its
// receipt, or a boundary rejection.
type TraceEvent struct {
	Type       string   `json:"type"` // "call", "receipt", or "rejected"
	Method     string   `json:"method,omitempty"`
	Args       abi.Args `json:"args,omitempty"`
	OutputCase string   `json:"output_case,omitempty"`
	Result     abi.Args `json:"result,omitempty"`
	Seq        int64    `json:"seq"`
}

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all calls, receipts, and rejections in order.
	// Used for trace assertions and golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalValue is the slot word after the last step, in canonical decimal.
	FinalValue string `json:"final_value"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCallTrace records a journaled call.
func (r *Result) AddCallTrace(call abi.Call) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   "call",
		Method: string(call.Method),
		Args:   call.Args,
		Seq:    call.Seq,
	})
}

// AddReceiptTrace records the receipt answering a call.
func (r *Result) AddReceiptTrace(rec abi.Receipt) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       "receipt",
		OutputCase: rec.OutputCase,
		Result:     rec.Result,
		Seq:        rec.Seq,
	})
}

// AddRejectedTrace records a call refused at the abi boundary.
// Rejections are never journaled and carry no seq.
func (r *Result) AddRejectedTrace(method, outputCase string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       "rejected",
		Method:     method,
		OutputCase: outputCase,
	})
}
