package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sbip-sg/slotstore/internal/host"
	"github.com/sbip-sg/slotstore/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Manifest string
}

// ReplayResult holds the replay verification result for JSON output.
type ReplayResult struct {
	Calls       int      `json:"calls"`
	Receipts    int      `json:"receipts"`
	FinalValue  string   `json:"final_value"`
	Verified    bool     `json:"verified"`
	Divergences []string `json:"divergences,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify it reproduces the slot",
		Long: `Replay the call journal and verify it reproduces the persisted slot.

The replay rebuilds the slot word from genesis by re-applying every
journaled set call in order, verifying along the way that:
  - every call and receipt hashes to its recorded content address
  - every call has exactly one Success receipt
  - every get receipt carries the word observed at its position
  - the persisted slot row matches the rebuilt word

Exit codes:
  0 - Journal verified
  1 - Divergences detected
  2 - Command error (database not found, etc.)

Examples:
  slotstore replay --db ./slot.db
  slotstore replay --db ./slot.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplayCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "directory of CUE contract manifests")

	return cmd
}

func runReplayCmd(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	spec, err := resolveContract(opts.Manifest)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile manifest", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	report, err := host.Replay(ctx, st, spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Calls:       report.Calls,
		Receipts:    report.Receipts,
		FinalValue:  report.FinalValue.String(),
		Verified:    !report.Diverged(),
		Divergences: report.Divergences,
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.Verified {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DIVERGENCE",
			Message: "journal verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Verified {
		// Divergence = exit code 1
		return NewExitError(ExitFailure, "journal verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d call(s), %d receipt(s)\n", result.Calls, result.Receipts)
	fmt.Fprintf(w, "Final value: %s\n", result.FinalValue)
	fmt.Fprintln(w)

	if result.Verified {
		fmt.Fprintln(w, "✓ Journal verified: replay reproduces the slot")
		return nil
	}

	fmt.Fprintf(w, "✗ Journal verification failed: %d divergence(s)\n", len(result.Divergences))
	for _, d := range result.Divergences {
		fmt.Fprintf(w, "  - %s\n", d)
	}

	return NewExitError(ExitFailure, "journal verification failed")
}
