package abi

import (
	"errors"
	"strings"
	"testing"

	"github.com/sbip-sg/slotstore/internal/word"
)

func TestParseCall_Set(t *testing.T) {
	call, err := ParseCall("tok-1", "set", map[string]string{"value": "42"}, 1)
	if err != nil {
		t.Fatalf("ParseCall failed: %v", err)
	}
	if call.Method != MethodSet {
		t.Errorf("Method = %q", call.Method)
	}
	if call.Args[ArgValue] != "42" {
		t.Errorf("Args[value] = %q, want 42", call.Args[ArgValue])
	}
	if call.Seq != 1 || call.Token != "tok-1" {
		t.Errorf("Seq/Token = %d/%q", call.Seq, call.Token)
	}
	if call.ID == "" {
		t.Error("ID not computed")
	}
	w, err := call.SetArg()
	if err != nil {
		t.Fatalf("SetArg failed: %v", err)
	}
	if w != word.FromUint64(42) {
		t.Errorf("SetArg = %s", w)
	}
}

func TestParseCall_SetCanonicalizesHex(t *testing.T) {
	call, err := ParseCall("tok-1", "set", map[string]string{"value": "0x2a"}, 1)
	if err != nil {
		t.Fatalf("ParseCall failed: %v", err)
	}
	// Journal text is decimal regardless of the input radix, so the same
	// logical call always hashes to the same ID.
	if call.Args[ArgValue] != "42" {
		t.Errorf("Args[value] = %q, want canonical decimal 42", call.Args[ArgValue])
	}

	dec, err := ParseCall("tok-1", "set", map[string]string{"value": "42"}, 1)
	if err != nil {
		t.Fatalf("ParseCall failed: %v", err)
	}
	if call.ID != dec.ID {
		t.Error("hex and decimal forms of the same call produced different IDs")
	}
}

func TestParseCall_Get(t *testing.T) {
	call, err := ParseCall("tok-1", "get", nil, 3)
	if err != nil {
		t.Fatalf("ParseCall failed: %v", err)
	}
	if call.Method != MethodGet {
		t.Errorf("Method = %q", call.Method)
	}
	if len(call.Args) != 0 {
		t.Errorf("Args = %v, want empty", call.Args)
	}
}

func TestParseCall_UnknownMethod(t *testing.T) {
	_, err := ParseCall("tok-1", "increment", nil, 1)
	var ce *CallError
	if !errors.As(err, &ce) || ce.Code != CodeUnknownMethod {
		t.Fatalf("error = %v, want UNKNOWN_METHOD CallError", err)
	}
	if ce.OutputCase() != CaseUnknownMethod {
		t.Errorf("OutputCase() = %q", ce.OutputCase())
	}
}

func TestParseCall_DomainViolations(t *testing.T) {
	cases := []struct {
		name string
		meth string
		args map[string]string
	}{
		{"set missing value", "set", map[string]string{}},
		{"set extra arg", "set", map[string]string{"value": "1", "other": "2"}},
		{"set negative", "set", map[string]string{"value": "-1"}},
		{"set overflow", "set", map[string]string{"value": "115792089237316195423570985008687907853269984665640564039457584007913129639936"}},
		{"set hex overflow", "set", map[string]string{"value": "0x" + strings.Repeat("ff", 33)}},
		{"set not a number", "set", map[string]string{"value": "forty-two"}},
		{"get with args", "get", map[string]string{"value": "1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCall("tok-1", tc.meth, tc.args, 1)
			if !IsDomainViolation(err) {
				t.Fatalf("error = %v, want DOMAIN_VIOLATION", err)
			}
		})
	}
}

func TestParseCall_OverflowWrapsErrRange(t *testing.T) {
	_, err := ParseCall("tok-1", "set", map[string]string{
		"value": "115792089237316195423570985008687907853269984665640564039457584007913129639936",
	}, 1)
	if !errors.Is(err, word.ErrRange) {
		t.Errorf("error = %v, want wrapped word.ErrRange", err)
	}
}

func TestParseCall_BoundaryValuesAccepted(t *testing.T) {
	for _, v := range []string{
		"0",
		"115792089237316195423570985008687907853269984665640564039457584007913129639935",
	} {
		if _, err := ParseCall("tok-1", "set", map[string]string{"value": v}, 1); err != nil {
			t.Errorf("ParseCall(set %s) failed: %v", v, err)
		}
	}
}
