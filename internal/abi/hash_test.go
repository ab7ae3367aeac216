package abi

import "testing"

func TestCallID_Deterministic(t *testing.T) {
	a := MustCallID("tok-1", "set", Args{"value": "42"}, 1)
	b := MustCallID("tok-1", "set", Args{"value": "42"}, 1)
	if a != b {
		t.Error("same inputs produced different IDs")
	}
	if len(a) != 64 {
		t.Errorf("ID length = %d, want 64 hex chars", len(a))
	}
}

func TestCallID_SensitiveToInputs(t *testing.T) {
	base := MustCallID("tok-1", "set", Args{"value": "42"}, 1)
	variants := []string{
		MustCallID("tok-2", "set", Args{"value": "42"}, 1),
		MustCallID("tok-1", "get", Args{}, 1),
		MustCallID("tok-1", "set", Args{"value": "7"}, 1),
		MustCallID("tok-1", "set", Args{"value": "42"}, 2),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base ID", i)
		}
	}
}

func TestReceiptID_DomainSeparation(t *testing.T) {
	// A call and a receipt hashing structurally similar content must not
	// collide thanks to the domain prefix.
	callID := MustCallID("tok-1", "get", Args{}, 1)
	receiptID := MustReceiptID(callID, CaseSuccess, Args{"value": "0"}, 2)
	if callID == receiptID {
		t.Error("call and receipt IDs collided")
	}

	again := MustReceiptID(callID, CaseSuccess, Args{"value": "0"}, 2)
	if receiptID != again {
		t.Error("same receipt inputs produced different IDs")
	}
}
