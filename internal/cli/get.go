package cli

import (
	"github.com/spf13/cobra"

	"github.com/sbip-sg/slotstore/internal/abi"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read the stored word",
		Long: `Read the stored word.

Reads are journaled like writes: the call and its receipt land in the
journal with the word observed at read time, so a later replay can
verify what this command saw.

Examples:
  slotstore get --db ./slot.db
  slotstore get --db ./slot.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyOne(opts, string(abi.MethodGet), nil, cmd)
		},
	}

	addInvokeFlags(cmd, opts)

	return cmd
}
