package cli

import (
	"github.com/spf13/cobra"

	"github.com/sbip-sg/slotstore/internal/abi"
)

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <value>",
		Short: "Replace the stored word",
		Long: `Replace the stored word with the given value.

The value is a decimal or 0x-hex unsigned integer inside the 256-bit
domain. Anything outside it is refused without touching the slot or
the journal.

Exit codes:
  0 - Call applied and journaled
  1 - Call rejected at the boundary
  2 - Command error (database not found, bad manifest, etc.)

Examples:
  slotstore set 42 --db ./slot.db
  slotstore set 0xff --db ./slot.db --token my-account`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawArgs := map[string]string{abi.ArgValue: args[0]}
			return applyOne(opts, string(abi.MethodSet), rawArgs, cmd)
		},
	}

	addInvokeFlags(cmd, opts)

	return cmd
}
