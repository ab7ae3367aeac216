package store

import (
	"encoding/json"
	"fmt"

	"github.com/sbip-sg/slotstore/internal/abi"
)

// marshalArgs converts call arguments to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalArgs(args abi.Args) (string, error) {
	data, err := abi.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// marshalResult converts a receipt result to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalResult(result abi.Args) (string, error) {
	data, err := abi.MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses canonical JSON TEXT back to arguments.
// Word values are stored as decimal strings, so plain json.Unmarshal into
// map[string]string loses no precision.
func unmarshalArgs(data string) (abi.Args, error) {
	if data == "" || data == "{}" {
		return abi.Args{}, nil
	}
	var args abi.Args
	if err := json.Unmarshal([]byte(data), &args); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return args, nil
}

// unmarshalResult parses canonical JSON TEXT back to a receipt result.
func unmarshalResult(data string) (abi.Args, error) {
	if data == "" || data == "{}" {
		return abi.Args{}, nil
	}
	var result abi.Args
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}
