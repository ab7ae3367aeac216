package slot

import (
	"testing"

	"github.com/sbip-sg/slotstore/internal/word"
)

func TestGet_FreshSlotReturnsZero(t *testing.T) {
	s := New()
	if got := s.Get(); !got.IsZero() {
		t.Errorf("fresh slot Get() = %s, want 0", got)
	}
}

func TestSetThenGet(t *testing.T) {
	s := New()
	s.Set(word.FromUint64(42))
	if got := s.Get(); got != word.FromUint64(42) {
		t.Errorf("Get() = %s, want 42", got)
	}
}

func TestSet_LastWriteWins(t *testing.T) {
	s := New()
	s.Set(word.FromUint64(42))
	s.Set(word.FromUint64(7))
	if got := s.Get(); got != word.FromUint64(7) {
		t.Errorf("Get() = %s, want 7", got)
	}

	// Rewriting the same value is also a plain replacement.
	s.Set(word.FromUint64(7))
	if got := s.Get(); got != word.FromUint64(7) {
		t.Errorf("Get() after same-value Set = %s, want 7", got)
	}
}

func TestGet_Idempotent(t *testing.T) {
	s := New()
	s.Set(word.FromUint64(99))
	first := s.Get()
	second := s.Get()
	if first != second {
		t.Errorf("consecutive reads differ: %s then %s", first, second)
	}
}

func TestSet_Boundaries(t *testing.T) {
	s := New()

	s.Set(word.Max)
	if got := s.Get(); got != word.Max {
		t.Errorf("Get() = %s, want 2^256-1", got)
	}

	s.Set(word.Zero)
	if got := s.Get(); !got.IsZero() {
		t.Errorf("Get() = %s, want 0", got)
	}
}

func TestNewWithValue(t *testing.T) {
	s := NewWithValue(word.FromUint64(5))
	if got := s.Get(); got != word.FromUint64(5) {
		t.Errorf("Get() = %s, want 5", got)
	}
}
