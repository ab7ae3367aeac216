package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sbip-sg/slotstore/internal/abi"
)

func TestReadSlot_MissingRow(t *testing.T) {
	s := openTestStore(t)

	value, seq, ok, err := s.ReadSlot(context.Background(), "SimpleStorage", 0)
	if err != nil {
		t.Fatalf("ReadSlot() failed: %v", err)
	}
	if ok {
		t.Error("ok = true for missing slot, want false")
	}
	if !value.IsZero() || seq != 0 {
		t.Errorf("missing slot returned value=%s seq=%d, want zero", value, seq)
	}
}

func TestReadCall_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadCall(context.Background(), "missing")
	if err != sql.ErrNoRows {
		t.Errorf("ReadCall() error = %v, want sql.ErrNoRows", err)
	}
}

func TestReadReceiptForCall_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadReceiptForCall(context.Background(), "missing")
	if err != sql.ErrNoRows {
		t.Errorf("ReadReceiptForCall() error = %v, want sql.ErrNoRows", err)
	}
}

func TestReadTrace_EmptyToken(t *testing.T) {
	s := openTestStore(t)

	calls, receipts, err := s.ReadTrace(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("ReadTrace() failed: %v", err)
	}
	if calls == nil || receipts == nil {
		t.Error("ReadTrace() returned nil slices, want empty slices")
	}
	if len(calls) != 0 || len(receipts) != 0 {
		t.Errorf("ReadTrace() = %d calls, %d receipts, want 0, 0", len(calls), len(receipts))
	}
}

func TestReadTrace_OrderedBySeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Insert out of seq order; reads must come back ordered
	c3 := testCall(t, "tok-1", abi.MethodGet, nil, 5)
	c1 := testCall(t, "tok-1", abi.MethodSet, abi.Args{abi.ArgValue: "1"}, 1)
	c2 := testCall(t, "tok-1", abi.MethodSet, abi.Args{abi.ArgValue: "2"}, 3)
	other := testCall(t, "tok-2", abi.MethodGet, nil, 7)

	for _, c := range []abi.Call{c3, c1, c2, other} {
		if err := s.WriteCall(ctx, c); err != nil {
			t.Fatalf("WriteCall(seq=%d) failed: %v", c.Seq, err)
		}
		rec := testReceipt(t, c.ID, abi.CaseSuccess, nil, c.Seq+1)
		if err := s.WriteReceipt(ctx, rec); err != nil {
			t.Fatalf("WriteReceipt(seq=%d) failed: %v", rec.Seq, err)
		}
	}

	calls, receipts, err := s.ReadTrace(ctx, "tok-1")
	if err != nil {
		t.Fatalf("ReadTrace() failed: %v", err)
	}

	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if calls[i].Seq < calls[i-1].Seq {
			t.Errorf("calls out of order: seq %d before %d", calls[i-1].Seq, calls[i].Seq)
		}
	}
	for _, c := range calls {
		if c.Token != "tok-1" {
			t.Errorf("foreign token leaked into trace: %q", c.Token)
		}
	}

	if len(receipts) != 3 {
		t.Fatalf("got %d receipts, want 3", len(receipts))
	}
	for i := 1; i < len(receipts); i++ {
		if receipts[i].Seq < receipts[i-1].Seq {
			t.Errorf("receipts out of order: seq %d before %d", receipts[i-1].Seq, receipts[i].Seq)
		}
	}
}

func TestReadAllCalls_Ordering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c2 := testCall(t, "tok-1", abi.MethodGet, nil, 3)
	c1 := testCall(t, "tok-1", abi.MethodSet, abi.Args{abi.ArgValue: "9"}, 1)
	for _, c := range []abi.Call{c2, c1} {
		if err := s.WriteCall(ctx, c); err != nil {
			t.Fatalf("WriteCall() failed: %v", err)
		}
	}

	calls, err := s.ReadAllCalls(ctx)
	if err != nil {
		t.Fatalf("ReadAllCalls() failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Seq != 1 || calls[1].Seq != 3 {
		t.Errorf("calls not ordered by seq: %d, %d", calls[0].Seq, calls[1].Seq)
	}
}

func TestListTokens(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tokens, err := s.ListTokens(ctx)
	if err != nil {
		t.Fatalf("ListTokens() on empty journal failed: %v", err)
	}
	if tokens == nil || len(tokens) != 0 {
		t.Errorf("empty journal tokens = %v, want empty slice", tokens)
	}

	for _, c := range []abi.Call{
		testCall(t, "tok-b", abi.MethodGet, nil, 1),
		testCall(t, "tok-a", abi.MethodGet, nil, 3),
		testCall(t, "tok-b", abi.MethodGet, nil, 5),
	} {
		if err := s.WriteCall(ctx, c); err != nil {
			t.Fatalf("WriteCall() failed: %v", err)
		}
	}

	tokens, err = s.ListTokens(ctx)
	if err != nil {
		t.Fatalf("ListTokens() failed: %v", err)
	}
	want := []string{"tok-b", "tok-a"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestMaxSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	max, err := s.MaxSeq(ctx)
	if err != nil {
		t.Fatalf("MaxSeq() on empty journal failed: %v", err)
	}
	if max != 0 {
		t.Errorf("empty journal MaxSeq() = %d, want 0", max)
	}

	call := testCall(t, "tok-1", abi.MethodSet, abi.Args{abi.ArgValue: "5"}, 1)
	if err := s.WriteCall(ctx, call); err != nil {
		t.Fatalf("WriteCall() failed: %v", err)
	}
	rec := testReceipt(t, call.ID, abi.CaseSuccess, nil, 2)
	if err := s.WriteReceipt(ctx, rec); err != nil {
		t.Fatalf("WriteReceipt() failed: %v", err)
	}

	max, err = s.MaxSeq(ctx)
	if err != nil {
		t.Fatalf("MaxSeq() failed: %v", err)
	}
	if max != 2 {
		t.Errorf("MaxSeq() = %d, want 2 (receipt seq)", max)
	}
}
