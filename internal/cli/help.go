package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/output"
)

// walkCommands visits cmd and every descendant depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong lists a parent's subcommands under its Long text so
// "gateway link --help" names tx, address and block without extra upkeep.
// Call it after the subcommands are registered.
func enrichParentLong(cmd *cobra.Command) {
	t := output.NewTable()
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			t.AddRow("  "+sub.Name(), sub.Short)
		}
	}
	list := t.String()
	if list == "" {
		return
	}

	long := cmd.Long
	if long == "" {
		long = cmd.Short + "."
	}
	cmd.Long = strings.TrimRight(long, "\n") + "\n\nSubcommands:\n" + list
}
