package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/host"
	"github.com/sbip-sg/slotstore/internal/store"
)

// InvokeOptions holds the shared flags for the set and get commands.
type InvokeOptions struct {
	*RootOptions
	Database string
	Manifest string
	Token    string
}

// InvokeResult is the JSON payload for a single applied call.
type InvokeResult struct {
	Call    abi.Call    `json:"call"`
	Receipt abi.Receipt `json:"receipt"`
}

// RejectionResult is the JSON payload for a call refused at the boundary.
type RejectionResult struct {
	Method     string `json:"method"`
	OutputCase string `json:"output_case"`
	Reason     string `json:"reason"`
}

func addInvokeFlags(cmd *cobra.Command, opts *InvokeOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "directory of CUE contract manifests")
	cmd.Flags().StringVar(&opts.Token, "token", "", "account token (defaults to a fresh UUIDv7)")
}

// applyOne opens the host on the database, applies a single call, and shuts
// the host down again. The call is journaled before the command returns.
func applyOne(opts *InvokeOptions, method string, rawArgs map[string]string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	spec, err := resolveContract(opts.Manifest)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile manifest", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	h, err := host.Open(ctx, st, spec, host.UUIDv7Generator{})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open host", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- h.Run(ctx) }()

	token := opts.Token
	if token == "" {
		token = h.NewToken()
	}

	call, rec, applyErr := h.Apply(ctx, token, method, rawArgs)

	h.Stop()
	if loopErr := <-runErr; loopErr != nil {
		return WrapExitError(ExitFailure, "host loop error", loopErr)
	}

	if applyErr != nil {
		var callErr *abi.CallError
		if errors.As(applyErr, &callErr) {
			return outputRejection(formatter, method, callErr)
		}
		return WrapExitError(ExitCommandError, "call failed", applyErr)
	}

	return outputInvokeResult(formatter, call, rec)
}

// outputInvokeResult prints the journaled call and its receipt.
func outputInvokeResult(formatter *OutputFormatter, call abi.Call, rec abi.Receipt) error {
	if formatter.Format == "json" {
		return formatter.Success(InvokeResult{Call: call, Receipt: rec})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s applied\n", call.Method)
	fmt.Fprintf(w, "  Token: %s\n", call.Token)
	fmt.Fprintf(w, "  Seq: %d\n", call.Seq)
	if v, ok := rec.Result[abi.ArgValue]; ok {
		fmt.Fprintf(w, "  Value: %s\n", v)
	}
	if formatter.Verbose {
		fmt.Fprintf(w, "  Call ID: %s\n", call.ID)
		fmt.Fprintf(w, "  Receipt ID: %s\n", rec.ID)
	}
	return nil
}

// outputRejection prints a boundary rejection and exits with code 1.
func outputRejection(formatter *OutputFormatter, method string, callErr *abi.CallError) error {
	if formatter.Format == "json" {
		_ = formatter.Error(callErr.Code, callErr.Error(), RejectionResult{
			Method:     method,
			OutputCase: callErr.OutputCase(),
			Reason:     callErr.Error(),
		})
		return NewExitError(ExitFailure, callErr.Error())
	}

	fmt.Fprintf(formatter.Writer, "✗ %s rejected: %s\n", method, callErr.OutputCase())
	fmt.Fprintf(formatter.Writer, "  %s\n", callErr.Error())
	return NewExitError(ExitFailure, callErr.Error())
}
