// Package word implements the bounded unsigned integer held by a storage
// slot: a 256-bit word.
//
// The domain [0, 2^256 − 1] is wider than any native Go integer, so the
// type is explicit rather than relying on machine-width wraparound. The
// canonical representation is a 32-byte big-endian array; math/big is used
// only at parse and format boundaries.
//
// All constructors are checked-range: out-of-range or negative input
// returns ErrRange. Values are never clamped or wrapped.
package word

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Size is the width of a word in bytes.
const Size = 32

// ErrRange indicates input outside [0, 2^256 − 1].
var ErrRange = errors.New("word: value out of range [0, 2^256 - 1]")

// Word is a 256-bit unsigned integer in canonical big-endian form.
// The zero value is the zero word, so Word is usable without construction.
type Word [Size]byte

// Zero is the zero word, the documented default of an untouched slot.
var Zero = Word{}

// Max is the largest representable word, 2^256 − 1.
var Max = Word{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// maxBig is 2^256 − 1 for range checks.
var maxBig = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// FromUint64 converts a native unsigned integer. Always in range.
func FromUint64(v uint64) Word {
	var w Word
	for i := 0; i < 8; i++ {
		w[Size-1-i] = byte(v >> (8 * i))
	}
	return w
}

// FromBig converts a big integer with range checking.
// Negative values and values above 2^256 − 1 return ErrRange.
func FromBig(v *big.Int) (Word, error) {
	if v == nil {
		return Word{}, fmt.Errorf("word: nil big.Int")
	}
	if v.Sign() < 0 || v.Cmp(maxBig) > 0 {
		return Word{}, fmt.Errorf("%w: %s", ErrRange, v.String())
	}
	var w Word
	v.FillBytes(w[:])
	return w, nil
}

// FromBytes converts a big-endian byte slice of at most 32 bytes,
// left-padding with zeros. Longer input returns ErrRange unless the extra
// leading bytes are zero.
func FromBytes(b []byte) (Word, error) {
	for len(b) > Size {
		if b[0] != 0 {
			return Word{}, fmt.Errorf("%w: %d-byte value", ErrRange, len(b))
		}
		b = b[1:]
	}
	var w Word
	copy(w[Size-len(b):], b)
	return w, nil
}

// Parse decodes a textual word: an unsigned decimal integer or a
// 0x-prefixed hexadecimal string. This is the host boundary where
// out-of-range input is rejected.
func Parse(s string) (Word, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Word{}, fmt.Errorf("word: empty value")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return parseHex(s[2:])
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Word{}, fmt.Errorf("word: invalid decimal value %q", s)
	}
	return FromBig(v)
}

// MustParse is like Parse but panics on error. Use only in tests or with
// known-valid literals.
func MustParse(s string) Word {
	w, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return w
}

func parseHex(s string) (Word, error) {
	if s == "" {
		return Word{}, fmt.Errorf("word: empty hex value")
	}
	if len(s) > 2*Size {
		return Word{}, fmt.Errorf("%w: %d hex digits", ErrRange, len(s))
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Word{}, fmt.Errorf("word: invalid hex value: %v", err)
	}
	return FromBytes(b)
}

// Big returns the word as a fresh big integer.
func (w Word) Big() *big.Int {
	return new(big.Int).SetBytes(w[:])
}

// String returns the unsigned decimal form. This is the canonical text
// form used in journal records and trace output.
func (w Word) String() string {
	return w.Big().String()
}

// Hex returns the 0x-prefixed, zero-padded 64-digit hexadecimal form.
// This is the fixed-width form persisted in the slots table.
func (w Word) Hex() string {
	return "0x" + hex.EncodeToString(w[:])
}

// Bytes returns a copy of the canonical big-endian form.
func (w Word) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, w[:])
	return b
}

// IsZero reports whether the word is the zero default.
func (w Word) IsZero() bool {
	return w == Zero
}

// Cmp compares two words, returning -1, 0, or 1.
func (w Word) Cmp(other Word) int {
	for i := 0; i < Size; i++ {
		switch {
		case w[i] < other[i]:
			return -1
		case w[i] > other[i]:
			return 1
		}
	}
	return 0
}

// MarshalText encodes the word as its decimal form. Words exceed both
// int64 and float64 precision, so all serialized forms are strings.
func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes a decimal or 0x-hex textual word.
func (w *Word) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
