// Package cli implements the gateway command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/config"
	"github.com/scifier/blockchain-gateway/internal/metrics"
	"github.com/scifier/blockchain-gateway/internal/output"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	chainName    string
	networkName  string

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	// factoryOverride replaces the configured chain factory in tests.
	factoryOverride chain.Factory

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Send and track transactions on Bitcoin and Ethereum",
	Long: `gateway is a chain-agnostic wallet and transaction-lifecycle tool.

It generates keys, reads balances, and builds, signs, broadcasts and tracks
transactions on Bitcoin (BlockCypher) and Ethereum (JSON-RPC) through one
command surface.

Example:
  gateway keygen --chain btc
  gateway balance --chain eth 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
  gateway send --chain btc --to mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn --amount 0.0001`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(stderr, err, format)
	}
	return err
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return gwerr.ExitCode(err)
}

// initGlobals loads configuration, applies environment and flag overrides,
// and wires the logger, formatter and chain factory into the command.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if errors.Is(err, gwerr.ErrConfigNotFound) {
		cfg = config.Defaults()
		cfg.Home = home
	} else if err != nil {
		return err
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if networkName != "" {
		cfg.Network = networkName
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	if cfg.Output.Verbose {
		logger = config.NewWriterLogger(logLevel, stderr)
	} else if logger, err = config.NewLogger(logLevel, cfg.Logging.File); err != nil {
		logger = config.NullLogger()
	}
	logger.SetJSONOutput(cfg.Logging.JSON)

	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), stdout)

	network, err := cfg.NetworkType()
	if err != nil {
		return err
	}
	id, err := parseChain(chainName)
	if err != nil {
		return err
	}

	factory := factoryOverride
	if factory == nil {
		factory = NewFactory(cfg, logger)
	}

	SetCmdContext(cmd, &CommandContext{
		Cfg:       cfg,
		Log:       logger,
		Fmt:       formatter,
		Factory:   factory,
		Chain:     id,
		Network:   network,
		Progress:  output.NewProgress(stderr, formatter.IsJSON()),
		PromptKey: promptSecretFn,
	})
	return nil
}

// parseChain resolves the --chain flag with a suggestion for near misses.
func parseChain(name string) (chain.ID, error) {
	id, ok := chain.ParseChainID(strings.ToLower(strings.TrimSpace(name)))
	if ok {
		return id, nil
	}
	err := fmt.Errorf("%w: %s", gwerr.ErrUnsupportedChain, name)
	for _, candidate := range chain.AllChains() {
		if levenshtein.ComputeDistance(string(id), string(candidate)) <= 1 {
			return "", gwerr.WithSuggestion(err, fmt.Sprintf("did you mean --chain %s?", candidate))
		}
	}
	return "", gwerr.WithSuggestion(err, "use --chain btc or --chain eth")
}

// cleanup logs the session counters and releases resources.
func cleanup() {
	if logger == nil {
		return
	}
	snap := metrics.Global.Snapshot()
	logger.DebugKV("session metrics",
		"rpc_calls", snap.RPCCallsTotal,
		"rpc_errors", snap.RPCErrorsTotal,
		"rpc_latency_avg_ms", metrics.Global.RPCLatencyAvgMs(),
		"broadcasts", snap.BroadcastTotal,
		"polls", snap.PollsTotal,
	)
	_ = logger.Close()
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "gateway data directory (default: ~/.gateway)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().StringVarP(&chainName, "chain", "c", "btc", "chain: btc, eth")
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", "", "network: mainnet, testnet (default from config)")
	rootCmd.PersistentFlags().DurationVar(&commandTimeout, "timeout", 0, "deadline for ledger calls, e.g. 90s (default depends on the command)")
}
