package cli

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCommandsHaveShortDescription(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Short, "%s: missing Short description", cmd.CommandPath())
		})
	})
}

func TestParentCommandsListSubcommands(t *testing.T) {
	for _, parent := range []*cobra.Command{addressCmd, linkCmd, configCmd} {
		t.Run(parent.Name(), func(t *testing.T) {
			require.Contains(t, parent.Long, "Subcommands:")
			for _, sub := range parent.Commands() {
				assert.Contains(t, parent.Long, sub.Name(), "%s not listed", sub.CommandPath())
			}
		})
	}
}

func TestEnrichParentLong(t *testing.T) {
	parent := &cobra.Command{Use: "link", Short: "Build explorer links"}
	parent.AddCommand(
		&cobra.Command{Use: "tx", Short: "Link to a transaction", Run: func(*cobra.Command, []string) {}},
		&cobra.Command{Use: "address", Short: "Link to an address", Run: func(*cobra.Command, []string) {}},
		&cobra.Command{Use: "hidden", Short: "Not shown", Hidden: true, Run: func(*cobra.Command, []string) {}},
	)
	enrichParentLong(parent)

	assert.Equal(t, ""+
		"Build explorer links.\n\n"+
		"Subcommands:\n"+
		"  address  Link to an address\n"+
		"  tx       Link to a transaction\n", parent.Long)

	leaf := &cobra.Command{Use: "leaf", Long: "unchanged"}
	enrichParentLong(leaf)
	assert.Equal(t, "unchanged", leaf.Long)
}

func TestContextWithTimeout(t *testing.T) {
	orig := commandTimeout
	t.Cleanup(func() { commandTimeout = orig })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	commandTimeout = 0
	ctx, cancel := contextWithTimeout(cmd, time.Hour)
	deadline, ok := ctx.Deadline()
	cancel()
	require.True(t, ok)
	assert.Greater(t, time.Until(deadline), 59*time.Minute)

	commandTimeout = time.Second
	ctx, cancel = contextWithTimeout(cmd, time.Hour)
	deadline, _ = ctx.Deadline()
	cancel()
	assert.LessOrEqual(t, time.Until(deadline), time.Second)

	ctx, cancel = contextWithTimeout(&cobra.Command{}, time.Minute)
	defer cancel()
	assert.NoError(t, ctx.Err(), "nil command context falls back to background")
}

func TestTimeoutFlag(t *testing.T) {
	_, _, err := runCLI(t, nil, "--timeout", "90s", "link", "tx", "ab")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, commandTimeout)
	assert.Equal(t, "0s", rootCmd.PersistentFlags().Lookup("timeout").DefValue)
}
