package abi

import (
	"errors"
	"fmt"

	"github.com/sbip-sg/slotstore/internal/word"
)

// CallError codes for calls refused at the decoding boundary.
const (
	CodeUnknownMethod   = "UNKNOWN_METHOD"
	CodeDomainViolation = "DOMAIN_VIOLATION"
)

// CallError is returned when a call cannot be decoded. Rejected calls never
// reach the slot and are not journaled.
type CallError struct {
	Code   string
	Method string
	Err    error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: method %q: %v", e.Code, e.Method, e.Err)
	}
	return fmt.Sprintf("%s: method %q", e.Code, e.Method)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// OutputCase maps the rejection to the receipt case name used in traces.
func (e *CallError) OutputCase() string {
	switch e.Code {
	case CodeUnknownMethod:
		return CaseUnknownMethod
	default:
		return CaseDomainViolation
	}
}

// IsDomainViolation reports whether err is a boundary rejection for an
// argument outside the word domain or otherwise undecodable.
func IsDomainViolation(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Code == CodeDomainViolation
}

// ParseCall decodes one invocation at the host boundary.
//
// For set, rawArgs must carry exactly one "value" entry holding a decimal
// or 0x-hex word inside [0, 2^256 − 1]; anything else is a DomainViolation.
// For get, rawArgs must be empty. The returned Call carries canonical
// decimal argument text and a content-addressed ID.
func ParseCall(token string, method string, rawArgs map[string]string, seq int64) (Call, error) {
	var args Args

	switch Method(method) {
	case MethodSet:
		raw, ok := rawArgs[ArgValue]
		if !ok {
			return Call{}, &CallError{
				Code:   CodeDomainViolation,
				Method: method,
				Err:    fmt.Errorf("missing argument %q", ArgValue),
			}
		}
		if len(rawArgs) != 1 {
			return Call{}, &CallError{
				Code:   CodeDomainViolation,
				Method: method,
				Err:    fmt.Errorf("set takes exactly one argument, got %d", len(rawArgs)),
			}
		}
		w, err := word.Parse(raw)
		if err != nil {
			return Call{}, &CallError{Code: CodeDomainViolation, Method: method, Err: err}
		}
		// Canonical decimal text, regardless of the input radix.
		args = Args{ArgValue: w.String()}

	case MethodGet:
		if len(rawArgs) != 0 {
			return Call{}, &CallError{
				Code:   CodeDomainViolation,
				Method: method,
				Err:    fmt.Errorf("get takes no arguments, got %d", len(rawArgs)),
			}
		}
		args = Args{}

	default:
		return Call{}, &CallError{Code: CodeUnknownMethod, Method: method}
	}

	id, err := CallID(token, method, args, seq)
	if err != nil {
		return Call{}, fmt.Errorf("compute call ID: %w", err)
	}

	return Call{
		ID:          id,
		Token:       token,
		Method:      Method(method),
		Args:        args,
		Seq:         seq,
		ABIVersion:  Version,
		HostVersion: HostVersion,
	}, nil
}
