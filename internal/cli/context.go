package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/config"
	"github.com/scifier/blockchain-gateway/internal/output"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Log      *config.Logger
	Fmt      *output.Formatter
	Factory  chain.Factory
	Chain    chain.ID
	Network  account.NetworkType
	Progress *output.Progress

	// PromptKey reads a private key when none is given in the environment.
	PromptKey func(prompt string) (string, error)
}

type cmdContextKey struct{}

// SetCmdContext attaches the command context to cmd.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the command context attached to cmd, or nil.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	cc, _ := cmd.Context().Value(cmdContextKey{}).(*CommandContext)
	return cc
}

// mustCmdContext is GetCmdContext for command handlers, which always run
// after initGlobals.
func mustCmdContext(cmd *cobra.Command) (*CommandContext, error) {
	cc := GetCmdContext(cmd)
	if cc == nil {
		return nil, gwerr.WithSuggestion(gwerr.ErrGeneral, "command context not initialized")
	}
	return cc, nil
}

// network creates the adapter for the selected chain.
func (cc *CommandContext) network(ctx context.Context) (chain.Network, error) {
	return cc.Factory.NewNetwork(ctx, cc.Chain, cc.Network)
}

// closeNetwork releases adapter connections.
func closeNetwork(n chain.Network) {
	if c, ok := n.(chain.ClientCloser); ok {
		c.Close()
	}
}
