package word

import (
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestZeroDefault(t *testing.T) {
	var w Word
	if !w.IsZero() {
		t.Error("zero value is not the zero word")
	}
	if w.String() != "0" {
		t.Errorf("String() = %q, want %q", w.String(), "0")
	}
	if w != Zero {
		t.Error("zero value differs from Zero sentinel")
	}
}

func TestFromUint64(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{42, "42"},
		{18446744073709551615, "18446744073709551615"},
	}
	for _, tc := range cases {
		if got := FromUint64(tc.in).String(); got != tc.want {
			t.Errorf("FromUint64(%d).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromBig_RangeChecks(t *testing.T) {
	// Negative is rejected, never wrapped.
	if _, err := FromBig(big.NewInt(-1)); !errors.Is(err, ErrRange) {
		t.Errorf("FromBig(-1) error = %v, want ErrRange", err)
	}

	// 2^256 is one past the top of the domain.
	over := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := FromBig(over); !errors.Is(err, ErrRange) {
		t.Errorf("FromBig(2^256) error = %v, want ErrRange", err)
	}

	// 2^256 - 1 is the boundary and must round-trip exactly.
	max := new(big.Int).Sub(over, big.NewInt(1))
	w, err := FromBig(max)
	if err != nil {
		t.Fatalf("FromBig(2^256-1) failed: %v", err)
	}
	if w != Max {
		t.Error("FromBig(2^256-1) != Max")
	}
	if w.Big().Cmp(max) != 0 {
		t.Errorf("round-trip lost precision: %s", w.Big())
	}
}

func TestParse_Decimal(t *testing.T) {
	w, err := Parse("42")
	if err != nil {
		t.Fatalf("Parse(42) failed: %v", err)
	}
	if w != FromUint64(42) {
		t.Errorf("Parse(42) = %s", w)
	}
}

func TestParse_Hex(t *testing.T) {
	w, err := Parse("0x2a")
	if err != nil {
		t.Fatalf("Parse(0x2a) failed: %v", err)
	}
	if w != FromUint64(42) {
		t.Errorf("Parse(0x2a) = %s", w)
	}

	// Full-width max value.
	w, err = Parse("0x" + strings.Repeat("ff", 32))
	if err != nil {
		t.Fatalf("Parse(max hex) failed: %v", err)
	}
	if w != Max {
		t.Error("Parse(max hex) != Max")
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []string{
		"",
		"-1",
		"abc",
		"1.5",
		"0x",
		"0xzz",
		"0x" + strings.Repeat("ff", 33),
		"115792089237316195423570985008687907853269984665640564039457584007913129639936", // 2^256
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestParse_MaxDecimal(t *testing.T) {
	// 2^256 - 1 in decimal.
	const maxDec = "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	w, err := Parse(maxDec)
	if err != nil {
		t.Fatalf("Parse(max decimal) failed: %v", err)
	}
	if w != Max {
		t.Error("Parse(max decimal) != Max")
	}
	if w.String() != maxDec {
		t.Errorf("String() = %q, want %q", w.String(), maxDec)
	}
}

func TestFromBytes(t *testing.T) {
	// Short input is left-padded.
	w, err := FromBytes([]byte{0x2a})
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if w != FromUint64(42) {
		t.Errorf("FromBytes([0x2a]) = %s", w)
	}

	// Oversized input with nonzero leading bytes is rejected.
	big := make([]byte, 33)
	big[0] = 1
	if _, err := FromBytes(big); !errors.Is(err, ErrRange) {
		t.Errorf("FromBytes(33 bytes) error = %v, want ErrRange", err)
	}

	// Oversized input with zero leading bytes is accepted.
	padded := make([]byte, 40)
	padded[39] = 7
	w, err = FromBytes(padded)
	if err != nil {
		t.Fatalf("FromBytes(padded) failed: %v", err)
	}
	if w != FromUint64(7) {
		t.Errorf("FromBytes(padded) = %s", w)
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, w := range []Word{Zero, FromUint64(42), Max} {
		got, err := Parse(w.Hex())
		if err != nil {
			t.Fatalf("Parse(%s) failed: %v", w.Hex(), err)
		}
		if got != w {
			t.Errorf("hex round-trip: got %s, want %s", got, w)
		}
	}
}

func TestHexFixedWidth(t *testing.T) {
	h := FromUint64(42).Hex()
	if len(h) != 2+64 {
		t.Errorf("Hex() length = %d, want 66", len(h))
	}
	if h != "0x000000000000000000000000000000000000000000000000000000000000002a" {
		t.Errorf("Hex() = %q", h)
	}
}

func TestCmp(t *testing.T) {
	if Zero.Cmp(Max) != -1 || Max.Cmp(Zero) != 1 || Zero.Cmp(Zero) != 0 {
		t.Error("Cmp ordering wrong")
	}
}

func TestTextRoundTrip(t *testing.T) {
	var w Word
	if err := w.UnmarshalText([]byte("42")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	out, err := w.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(out) != "42" {
		t.Errorf("MarshalText = %q", out)
	}
}
