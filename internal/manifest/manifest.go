// Package manifest compiles CUE contract manifests into the host's
// contract spec. A manifest declares the contract surface the host serves:
// the slot, its genesis word, and the set/get method signatures.
package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/word"
)

// WordType is the only slot and argument type the host understands.
const WordType = "uint256"

// CompileContract parses a CUE value into a ContractSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the contract struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`contract: SimpleStorage: { ... }`)
//	spec, err := CompileContract(v.LookupPath(cue.ParsePath("contract.SimpleStorage")))
func CompileContract(v cue.Value) (abi.ContractSpec, error) {
	if err := v.Err(); err != nil {
		return abi.ContractSpec{}, formatCUEError(err)
	}

	spec := abi.ContractSpec{}

	// Contract name from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	purposeVal := v.LookupPath(cue.ParsePath("purpose"))
	if !purposeVal.Exists() {
		return abi.ContractSpec{}, &CompileError{
			Field:   "purpose",
			Message: "purpose is required",
			Pos:     v.Pos(),
		}
	}
	purpose, err := purposeVal.String()
	if err != nil {
		return abi.ContractSpec{}, formatCUEError(err)
	}
	spec.Purpose = purpose

	slot, genesis, err := parseSlot(v)
	if err != nil {
		return abi.ContractSpec{}, err
	}
	spec.Slot = slot
	spec.Genesis = genesis

	methods, err := parseMethods(v)
	if err != nil {
		return abi.ContractSpec{}, err
	}
	spec.Methods = methods

	if err := validateSurface(spec, v.Pos()); err != nil {
		return abi.ContractSpec{}, err
	}

	return spec, nil
}

// parseSlot extracts the slot declaration and its genesis word.
func parseSlot(v cue.Value) (abi.SlotDecl, word.Word, error) {
	slotVal := v.LookupPath(cue.ParsePath("slot"))
	if !slotVal.Exists() {
		return abi.SlotDecl{}, word.Zero, &CompileError{
			Field:   "slot",
			Message: "slot declaration is required",
			Pos:     v.Pos(),
		}
	}

	var decl abi.SlotDecl

	indexVal := slotVal.LookupPath(cue.ParsePath("index"))
	if indexVal.Exists() {
		index, err := indexVal.Int64()
		if err != nil {
			return abi.SlotDecl{}, word.Zero, formatCUEError(err)
		}
		if index < 0 {
			return abi.SlotDecl{}, word.Zero, &CompileError{
				Field:   "slot.index",
				Message: "slot index must be non-negative",
				Pos:     indexVal.Pos(),
			}
		}
		decl.Index = index
	}

	typeVal := slotVal.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return abi.SlotDecl{}, word.Zero, &CompileError{
			Field:   "slot.type",
			Message: "slot type is required",
			Pos:     slotVal.Pos(),
		}
	}
	typeName, err := typeVal.String()
	if err != nil {
		return abi.SlotDecl{}, word.Zero, formatCUEError(err)
	}
	if typeName != WordType {
		return abi.SlotDecl{}, word.Zero, &CompileError{
			Field:   "slot.type",
			Message: fmt.Sprintf("unsupported slot type %q (only %q)", typeName, WordType),
			Pos:     typeVal.Pos(),
		}
	}
	decl.Type = typeName

	// Genesis is optional and defaults to zero. Decimal or 0x-hex.
	genesis := word.Zero
	genesisVal := slotVal.LookupPath(cue.ParsePath("genesis"))
	if genesisVal.Exists() {
		raw, err := genesisVal.String()
		if err != nil {
			return abi.SlotDecl{}, word.Zero, formatCUEError(err)
		}
		genesis, err = word.Parse(raw)
		if err != nil {
			return abi.SlotDecl{}, word.Zero, &CompileError{
				Field:   "slot.genesis",
				Message: err.Error(),
				Pos:     genesisVal.Pos(),
			}
		}
	}

	return decl, genesis, nil
}

// parseMethods extracts the method signatures.
func parseMethods(v cue.Value) ([]abi.MethodSig, error) {
	var methods []abi.MethodSig

	methodVal := v.LookupPath(cue.ParsePath("method"))
	if !methodVal.Exists() {
		return methods, nil
	}

	iter, err := methodVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		methodName := iter.Label()
		methodValue := iter.Value()

		method := abi.MethodSig{
			Name: methodName,
		}

		argsVal := methodValue.LookupPath(cue.ParsePath("args"))
		if argsVal.Exists() {
			argsIter, err := argsVal.Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}

			for argsIter.Next() {
				argName := argsIter.Label()
				argType, err := extractTypeName(argsIter.Value())
				if err != nil {
					return nil, err
				}
				method.Args = append(method.Args, abi.NamedArg{
					Name: argName,
					Type: argType,
				})
			}
		}

		outputsVal := methodValue.LookupPath(cue.ParsePath("outputs"))
		if !outputsVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("method.%s.outputs", methodName),
				Message: "method outputs are required",
				Pos:     methodValue.Pos(),
			}
		}

		outputIter, err := outputsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}

		for outputIter.Next() {
			outVal := outputIter.Value()

			caseName, err := outVal.LookupPath(cue.ParsePath("case")).String()
			if err != nil {
				return nil, formatCUEError(err)
			}

			output := abi.OutputCase{
				Case: caseName,
			}

			fieldsVal := outVal.LookupPath(cue.ParsePath("fields"))
			if fieldsVal.Exists() {
				output.Fields = make(map[string]string)
				fieldsIter, err := fieldsVal.Fields()
				if err != nil {
					return nil, formatCUEError(err)
				}

				for fieldsIter.Next() {
					fieldName := fieldsIter.Label()
					fieldType, err := extractTypeName(fieldsIter.Value())
					if err != nil {
						return nil, err
					}
					output.Fields[fieldName] = fieldType
				}
			}

			method.Outputs = append(method.Outputs, output)
		}

		methods = append(methods, method)
	}

	return methods, nil
}

// validateSurface checks the compiled manifest against the call surface the
// host can actually serve: a set taking one word and an argument-less get.
func validateSurface(spec abi.ContractSpec, pos token.Pos) error {
	set, ok := spec.Method(string(abi.MethodSet))
	if !ok {
		return &CompileError{Field: "method.set", Message: "set method is required", Pos: pos}
	}
	if len(set.Args) != 1 || set.Args[0].Name != abi.ArgValue || set.Args[0].Type != WordType {
		return &CompileError{
			Field:   "method.set.args",
			Message: fmt.Sprintf("set takes exactly one %q argument of type %q", abi.ArgValue, WordType),
			Pos:     pos,
		}
	}

	get, ok := spec.Method(string(abi.MethodGet))
	if !ok {
		return &CompileError{Field: "method.get", Message: "get method is required", Pos: pos}
	}
	if len(get.Args) != 0 {
		return &CompileError{
			Field:   "method.get.args",
			Message: "get takes no arguments",
			Pos:     pos,
		}
	}

	for _, m := range spec.Methods {
		if m.Name != string(abi.MethodSet) && m.Name != string(abi.MethodGet) {
			return &CompileError{
				Field:   "method." + m.Name,
				Message: "unknown method: the host serves only set and get",
				Pos:     pos,
			}
		}
	}

	return nil
}

// extractTypeName reads a manifest type name. Types are declared as string
// literals; the only supported type is uint256.
func extractTypeName(v cue.Value) (string, error) {
	name, err := v.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if name != WordType {
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type %q (only %q)", name, WordType),
			Pos:     v.Pos(),
		}
	}
	return name, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
