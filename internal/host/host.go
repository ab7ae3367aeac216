// Package host runs the single-writer call loop in front of the slot.
//
// The host owns the in-memory slot, the logical clock, and the journal.
// External callers submit calls with Apply; the Run loop applies them one
// at a time, journals each applied call with its receipt, and keeps the
// persisted slot row in step. Calls that fail the abi boundary check are
// refused before they touch the clock or the journal.
package host

import (
	"context"
	"log/slog"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/slot"
	"github.com/sbip-sg/slotstore/internal/store"
	"github.com/sbip-sg/slotstore/internal/word"
)

// Host is the single-writer event loop around one contract slot.
//
// CRITICAL: All mutations happen in the single-writer Run loop goroutine.
// External callers use Apply() to submit calls for processing.
//
// Thread-safety model:
//   - Apply(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - NewToken(): safe from any goroutine (delegates to thread-safe generator)
type Host struct {
	store    *store.Store
	slot     *slot.Slot
	spec     abi.ContractSpec
	clock    *Clock
	queue    *requestQueue
	tokenGen TokenGenerator
}

// Option allows configuration of host parameters.
type Option func(*Host)

// WithClock replaces the journal-resumed clock. Used by tests and the
// scenario harness to pin seq numbers.
func WithClock(c *Clock) Option {
	return func(h *Host) {
		h.clock = c
	}
}

// Open loads the persisted slot and resumes the logical clock from the
// journal, then returns a host ready to Run.
//
// A fresh ledger has no slot row: the slot starts at the manifest genesis
// value (zero for the default contract). The clock resumes from the highest
// journaled seq so replayed histories and live histories never collide.
func Open(ctx context.Context, st *store.Store, spec abi.ContractSpec, gen TokenGenerator, opts ...Option) (*Host, error) {
	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		return nil, err
	}

	value, _, ok, err := st.ReadSlot(ctx, spec.Name, spec.Slot.Index)
	if err != nil {
		return nil, err
	}
	if !ok {
		value = spec.Genesis
	}

	h := &Host{
		store:    st,
		slot:     slot.NewWithValue(value),
		spec:     spec,
		clock:    NewClockAt(maxSeq),
		queue:    newRequestQueue(),
		tokenGen: gen,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// NewToken generates a new account token for an external caller.
// Thread-safe: may be called from any goroutine.
//
// Each external session should call NewToken() once; all its calls carry
// the same token so traces group by origin.
func (h *Host) NewToken() string {
	return h.tokenGen.Generate()
}

// Apply submits one call and blocks until the Run loop has applied or
// refused it. Thread-safe: may be called from any goroutine.
//
// On success the returned call and receipt are the journaled records.
// A boundary rejection returns a *abi.CallError; the call is not
// journaled and consumes no seq.
func (h *Host) Apply(ctx context.Context, token, method string, rawArgs map[string]string) (abi.Call, abi.Receipt, error) {
	req := request{
		ctx:     ctx,
		token:   token,
		method:  method,
		rawArgs: rawArgs,
		reply:   make(chan outcome, 1),
	}

	if !h.queue.Enqueue(req) {
		return abi.Call{}, abi.Receipt{}, NewStoppedError(token)
	}

	select {
	case <-ctx.Done():
		return abi.Call{}, abi.Receipt{}, ctx.Err()
	case out := <-req.reply:
		return out.call, out.receipt, out.err
	}
}

// Run starts the single-writer call loop.
// Blocks until context is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
// All slot mutations and journal writes happen in this goroutine.
func (h *Host) Run(ctx context.Context) error {
	slog.Info("host starting", "contract", h.spec.Name, "seq", h.clock.Current())

	for {
		req, ok := h.queue.TryDequeue()
		if ok {
			out := h.apply(ctx, req.token, req.method, req.rawArgs)
			req.reply <- out // buffered, never blocks
			if out.err != nil {
				slog.Warn("call refused",
					"token", req.token,
					"method", req.method,
					"error", out.err,
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("host stopping: context cancelled")
			h.queue.Close()
			h.drainPending()
			return ctx.Err()

		case <-h.queue.Wait():
			// The fast path above may have already consumed the request
			// this signal announced, leaving a stale token. Exit only
			// when the queue is closed and drained; a stale wakeup loops
			// back to TryDequeue.
			if h.queue.IsClosed() && h.queue.Len() == 0 {
				slog.Info("host stopping: queue closed")
				return nil
			}
		}
	}
}

// drainPending replies to every request still queued at shutdown so
// callers blocked in Apply are released instead of waiting forever.
func (h *Host) drainPending() {
	for {
		req, ok := h.queue.TryDequeue()
		if !ok {
			return
		}
		req.reply <- outcome{err: NewStoppedError(req.token)}
	}
}

// Stop gracefully shuts down the host.
// Closes the request queue, which will cause Run() to return after the
// remaining queued calls are applied.
func (h *Host) Stop() {
	h.queue.Close()
}

// apply validates, executes, and journals one call.
// CRITICAL: Called only from the Run() goroutine - single-writer guarantee.
func (h *Host) apply(ctx context.Context, token, method string, rawArgs map[string]string) outcome {
	// A refused call must not consume a clock tick, so the seq is
	// provisional until the boundary check passes. Single-writer: nothing
	// else advances the clock between Current and Next.
	seq := h.clock.Current() + 1

	call, err := abi.ParseCall(token, method, rawArgs, seq)
	if err != nil {
		return outcome{err: err}
	}
	h.clock.Next()

	switch call.Method {
	case abi.MethodSet:
		return h.applySet(ctx, call)
	case abi.MethodGet:
		return h.applyGet(ctx, call)
	default:
		// ParseCall admits only the methods above
		return outcome{err: &abi.CallError{Code: abi.CodeUnknownMethod, Method: method}}
	}
}

// applySet replaces the slot word and journals the call with its receipt.
func (h *Host) applySet(ctx context.Context, call abi.Call) outcome {
	value, err := call.SetArg()
	if err != nil {
		return outcome{err: NewStorageError(call.Token, call.ID, err)}
	}

	rec, err := h.successReceipt(call, abi.Args{})
	if err != nil {
		return outcome{err: NewStorageError(call.Token, call.ID, err)}
	}

	update := &store.SlotUpdate{
		Contract: h.spec.Name,
		Index:    h.spec.Slot.Index,
		Value:    value,
		Seq:      call.Seq,
	}

	inserted, err := h.store.ApplyCallAtomic(ctx, call, rec, update)
	if err != nil {
		return outcome{err: NewStorageError(call.Token, call.ID, err)}
	}
	if inserted {
		h.slot.Set(value)
	}

	slog.Info("set applied",
		"call_id", call.ID,
		"token", call.Token,
		"seq", call.Seq,
	)

	return outcome{call: call, receipt: rec}
}

// applyGet journals a read of the current slot word.
// The observed word travels in the receipt result so a trace is
// self-contained: replay checks it against the rebuilt state.
func (h *Host) applyGet(ctx context.Context, call abi.Call) outcome {
	observed := h.slot.Get()

	rec, err := h.successReceipt(call, abi.Args{abi.ArgValue: observed.String()})
	if err != nil {
		return outcome{err: NewStorageError(call.Token, call.ID, err)}
	}

	if _, err := h.store.ApplyCallAtomic(ctx, call, rec, nil); err != nil {
		return outcome{err: NewStorageError(call.Token, call.ID, err)}
	}

	slog.Debug("get applied",
		"call_id", call.ID,
		"token", call.Token,
		"seq", call.Seq,
	)

	return outcome{call: call, receipt: rec}
}

// successReceipt stamps and content-addresses a Success receipt for a call.
func (h *Host) successReceipt(call abi.Call, result abi.Args) (abi.Receipt, error) {
	seq := h.clock.Next()
	id, err := abi.ReceiptID(call.ID, abi.CaseSuccess, result, seq)
	if err != nil {
		return abi.Receipt{}, err
	}
	return abi.Receipt{
		ID:         id,
		CallID:     call.ID,
		OutputCase: abi.CaseSuccess,
		Result:     result,
		Seq:        seq,
	}, nil
}

// Value returns the slot word the host currently holds.
// NOT synchronized with a running loop: call it before Run or after Stop,
// or observe the slot through a get call instead.
func (h *Host) Value() word.Word {
	return h.slot.Get()
}

// Spec returns the compiled contract manifest the host serves.
func (h *Host) Spec() abi.ContractSpec {
	return h.spec
}

// Clock returns the host's logical clock.
func (h *Host) Clock() *Clock {
	return h.clock
}

// QueueLen returns the current number of pending calls.
// Useful for monitoring and testing.
func (h *Host) QueueLen() int {
	return h.queue.Len()
}
