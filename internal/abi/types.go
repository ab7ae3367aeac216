// Package abi is the host argument-decoding boundary for the slot store.
//
// It defines the wire-level records the host journals (calls and receipts),
// the compiled contract manifest types, content-addressed identity, and the
// canonical JSON used to compute it. Range enforcement for the 256-bit word
// domain happens here: an out-of-range argument is rejected before it can
// reach the slot.
package abi

import "github.com/sbip-sg/slotstore/internal/word"

// Method is the exported call surface of the store.
type Method string

const (
	// MethodSet replaces the stored word with its single argument.
	MethodSet Method = "set"
	// MethodGet returns the stored word. Read-only, no arguments.
	MethodGet Method = "get"
)

// Receipt output cases. Success is the only case that reaches the journal;
// the rejection cases appear in traces for calls refused at this boundary.
const (
	CaseSuccess         = "Success"
	CaseDomainViolation = "DomainViolation"
	CaseUnknownMethod   = "UnknownMethod"
)

// ArgValue is the argument name carrying the word for a set call, and the
// result field carrying the observed word in a get receipt.
const ArgValue = "value"

// Args holds textual call arguments or receipt result fields. Word values
// travel as decimal strings: they exceed both int64 and float64 precision.
type Args map[string]string

// Call is one journaled invocation delivered to the host.
type Call struct {
	ID          string `json:"id"` // Content-addressed hash
	Token       string `json:"token"`
	Method      Method `json:"method"`
	Args        Args   `json:"args"`
	Seq         int64  `json:"seq"` // Logical clock stamp
	ABIVersion  string `json:"abi_version"`
	HostVersion string `json:"host_version"`
}

// Receipt is the recorded outcome of one applied call. Each call has
// exactly one receipt.
type Receipt struct {
	ID         string `json:"id"` // Content-addressed hash
	CallID     string `json:"call_id"`
	OutputCase string `json:"output_case"`
	Result     Args   `json:"result"`
	Seq        int64  `json:"seq"`
}

// SetArg decodes the word argument of a set call. The call must already
// have passed ParseCall; the parse here exists for journal round-trips.
func (c Call) SetArg() (word.Word, error) {
	return word.Parse(c.Args[ArgValue])
}

// ContractSpec is a compiled contract manifest.
type ContractSpec struct {
	Name    string      `json:"name"`
	Purpose string      `json:"purpose"`
	Slot    SlotDecl    `json:"slot"`
	Genesis word.Word   `json:"genesis"`
	Methods []MethodSig `json:"methods"`
}

// SlotDecl declares the persisted slot: a fixed index holding one word.
type SlotDecl struct {
	Index int64  `json:"index"`
	Type  string `json:"type"` // always "uint256"
}

// MethodSig is an exported method signature from the manifest.
type MethodSig struct {
	Name    string       `json:"name"`
	Args    []NamedArg   `json:"args,omitempty"`
	Outputs []OutputCase `json:"outputs"`
}

// NamedArg is a named argument with its manifest type.
type NamedArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// OutputCase is a declared output variant of a method.
type OutputCase struct {
	Case   string            `json:"case"`
	Fields map[string]string `json:"fields,omitempty"` // field name -> type name
}

// Method looks up a method signature by name.
func (s ContractSpec) Method(name string) (MethodSig, bool) {
	for _, m := range s.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSig{}, false
}

// DefaultSpec is the contract used when no manifest is supplied: a single
// uint256 slot at index 0 with a zero genesis and the set/get surface.
func DefaultSpec() ContractSpec {
	return ContractSpec{
		Name:    "SimpleStorage",
		Purpose: "hold one 256-bit unsigned integer behind set and get",
		Slot:    SlotDecl{Index: 0, Type: "uint256"},
		Methods: []MethodSig{
			{
				Name:    string(MethodSet),
				Args:    []NamedArg{{Name: ArgValue, Type: "uint256"}},
				Outputs: []OutputCase{{Case: CaseSuccess}},
			},
			{
				Name: string(MethodGet),
				Outputs: []OutputCase{{
					Case:   CaseSuccess,
					Fields: map[string]string{ArgValue: "uint256"},
				}},
			},
		},
	}
}
