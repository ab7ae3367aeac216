package abi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration.
const (
	DomainCall    = "slotstore/call/v1"
	DomainReceipt = "slotstore/receipt/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallID computes the content-addressed ID of a call. The ID is stable
// across restarts and replays given the same inputs, which is what makes
// journal replay idempotent.
func CallID(token, method string, args Args, seq int64) (string, error) {
	obj := map[string]any{
		"token":  token,
		"method": method,
		"args":   args.canonicalMap(),
		"seq":    seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CallID: marshal: %w", err)
	}
	return hashWithDomain(DomainCall, canonical), nil
}

// ReceiptID computes the content-addressed ID of a receipt, linked to the
// call it settles.
func ReceiptID(callID, outputCase string, result Args, seq int64) (string, error) {
	obj := map[string]any{
		"call_id":     callID,
		"output_case": outputCase,
		"result":      result.canonicalMap(),
		"seq":         seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ReceiptID: marshal: %w", err)
	}
	return hashWithDomain(DomainReceipt, canonical), nil
}

// MustCallID is like CallID but panics on error. Use only in tests.
func MustCallID(token, method string, args Args, seq int64) string {
	id, err := CallID(token, method, args, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// MustReceiptID is like ReceiptID but panics on error. Use only in tests.
func MustReceiptID(callID, outputCase string, result Args, seq int64) string {
	id, err := ReceiptID(callID, outputCase, result, seq)
	if err != nil {
		panic(err)
	}
	return id
}
