package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Token    string
	Method   string // optional - filter to specific method
}

// TimelineEvent represents a single event in the trace timeline.
type TimelineEvent struct {
	Seq        int64    `json:"seq"`
	Type       string   `json:"type"` // "call" or "receipt"
	ID         string   `json:"id"`
	Method     string   `json:"method,omitempty"`
	Args       abi.Args `json:"args,omitempty"`
	OutputCase string   `json:"output_case,omitempty"`
	Result     abi.Args `json:"result,omitempty"`
}

// TraceCmdResult holds the complete trace output.
type TraceCmdResult struct {
	Token    string          `json:"token"`
	Timeline []TimelineEvent `json:"timeline"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Calls       int `json:"calls"`
	Receipts    int `json:"receipts"`
	Writes      int `json:"writes"`
	Reads       int `json:"reads"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled history for an account token",
		Long: `Show the journaled call history for a specific account token.

The timeline interleaves calls with their receipts in journal order,
so a read's receipt shows the word it observed at that point in the
history.

Examples:
  slotstore trace --db ./slot.db --token my-account
  slotstore trace --db ./slot.db --token my-account --method set
  slotstore trace --db ./slot.db --token my-account --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Token, "token", "", "account token to trace (required)")
	_ = cmd.MarkFlagRequired("token")
	cmd.Flags().StringVar(&opts.Method, "method", "", "filter to a specific method")

	return cmd
}

func runTraceCmd(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	calls, receipts, err := st.ReadTrace(ctx, opts.Token)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	if len(calls) == 0 {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, TraceCmdResult{
				Token:    opts.Token,
				Timeline: []TimelineEvent{},
				Stats:    TraceStats{},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No calls found for token: %s\n", opts.Token)
		return nil
	}

	timeline, stats := buildTimeline(calls, receipts, opts.Method)

	result := TraceCmdResult{
		Token:    opts.Token,
		Timeline: timeline,
		Stats:    stats,
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}

	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTimeline interleaves calls and receipts in journal order. When
// methodFilter is set, only calls of that method and their receipts are
// included; stats always cover the full history.
func buildTimeline(calls []abi.Call, receipts []abi.Receipt, methodFilter string) ([]TimelineEvent, TraceStats) {
	stats := TraceStats{
		Calls:    len(calls),
		Receipts: len(receipts),
	}
	for _, call := range calls {
		switch call.Method {
		case abi.MethodSet:
			stats.Writes++
		case abi.MethodGet:
			stats.Reads++
		}
	}

	methodByCall := make(map[string]string, len(calls))
	for _, call := range calls {
		methodByCall[call.ID] = string(call.Method)
	}

	var timeline []TimelineEvent
	for _, call := range calls {
		if methodFilter != "" && string(call.Method) != methodFilter {
			continue
		}
		timeline = append(timeline, TimelineEvent{
			Seq:    call.Seq,
			Type:   "call",
			ID:     call.ID,
			Method: string(call.Method),
			Args:   call.Args,
		})
	}
	for _, rec := range receipts {
		if methodFilter != "" && methodByCall[rec.CallID] != methodFilter {
			continue
		}
		timeline = append(timeline, TimelineEvent{
			Seq:        rec.Seq,
			Type:       "receipt",
			ID:         rec.ID,
			OutputCase: rec.OutputCase,
			Result:     rec.Result,
		})
	}

	sort.Slice(timeline, func(i, j int) bool {
		if timeline[i].Seq != timeline[j].Seq {
			return timeline[i].Seq < timeline[j].Seq
		}
		return timeline[i].ID < timeline[j].ID
	})

	stats.TotalEvents = len(timeline)
	return timeline, stats
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceCmdResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceCmdResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Token: %s\n", result.Token)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Calls:        %d\n", result.Stats.Calls)
	fmt.Fprintf(w, "  Receipts:     %d\n", result.Stats.Receipts)
	fmt.Fprintf(w, "  Writes:       %d\n", result.Stats.Writes)
	fmt.Fprintf(w, "  Reads:        %d\n", result.Stats.Reads)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TimelineEvent, verbose bool) {
	switch event.Type {
	case "call":
		fmt.Fprintf(w, "  [%d] CALL %s %s\n", event.Seq, event.Method, formatArgs(event.Args))
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}

	case "receipt":
		fmt.Fprintf(w, "  [%d] RCPT %s %s\n", event.Seq, event.OutputCase, formatArgs(event.Result))
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}
	}
}

// formatArgs formats args for display with sorted keys.
func formatArgs(args abi.Args) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, args[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// truncateID truncates a long content address for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
