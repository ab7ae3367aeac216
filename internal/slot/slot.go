// Package slot implements the value store itself: one mutable slot holding
// one 256-bit word, mutated only through Set and observed only through Get.
//
// The slot performs no locking, queuing, or validation. It assumes the two
// preconditions its host provides: all calls arrive as a strictly
// sequential, non-overlapping stream, and every argument is already inside
// the word domain (the abi boundary rejects anything else). Embedders that
// deliver concurrent calls must add external mutual exclusion around both
// operations.
package slot

import "github.com/sbip-sg/slotstore/internal/word"

// Slot is a single storage slot. The zero value is ready to use and reads
// as the zero word.
type Slot struct {
	value word.Word
}

// New creates a slot initialized to the zero default.
func New() *Slot {
	return &Slot{}
}

// NewWithValue creates a slot initialized to a specific word, used when
// restoring persisted state or installing a genesis value.
func NewWithValue(v word.Word) *Slot {
	return &Slot{value: v}
}

// Set unconditionally replaces the stored word. There is no comparison
// against the previous value and no failure path.
func (s *Slot) Set(v word.Word) {
	s.value = v
}

// Get returns the stored word without mutating it.
func (s *Slot) Get() word.Word {
	return s.value
}
