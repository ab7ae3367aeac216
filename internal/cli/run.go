package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/host"
	"github.com/sbip-sg/slotstore/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Manifest string

	// TokenGenerator allows overriding the account token generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	TokenGenerator host.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the host with a journaled slot",
		Long: `Start the slot store host on a SQLite journal.

The host resumes the slot word and logical clock from the database
(creating it if it doesn't exist) and starts the single-writer call loop.
With --manifest, the contract surface is compiled from CUE; otherwise the
built-in SimpleStorage contract is used.

Example:
  slotstore run --db ./slot.db
  slotstore run --db /tmp/slot.db --manifest ./manifests --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "directory of CUE contract manifests")

	return cmd
}

func runHost(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	spec, err := resolveContract(opts.Manifest)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile manifest", err)
	}
	slog.Info("contract ready", "name", spec.Name, "slot", spec.Slot.Index)

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database ready")

	tokenGen := opts.TokenGenerator
	if tokenGen == nil {
		tokenGen = host.UUIDv7Generator{}
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	h, err := host.Open(ctx, st, spec, tokenGen)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open host", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("host starting", "db", opts.Database, "contract", spec.Name)
	fmt.Fprintln(cmd.OutOrStdout(), "Host started. Listening for calls...")
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := h.Run(ctx); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return WrapExitError(ExitFailure, "host error", err)
	}

	slog.Info("host stopped gracefully")
	return nil
}

// resolveContract compiles the manifest directory if given, otherwise falls
// back to the built-in contract.
func resolveContract(manifestDir string) (abi.ContractSpec, error) {
	if manifestDir == "" {
		return abi.DefaultSpec(), nil
	}
	return LoadSingleContract(manifestDir)
}
