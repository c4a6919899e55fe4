//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scifier/blockchain-gateway/internal/config"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify the gateway configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Create config.yaml with the default settings in the gateway home.

An existing file is kept unless --force is given.`,
	Example: `  gateway config init
  gateway --home /srv/gateway config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after environment and flag overrides.
The BlockCypher token is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Print one configuration value. Keys use dot notation and follow the
layout of config.yaml.`,
	Example: `  gateway config get networks.eth.rpc
  gateway config get confirmation.schedule_ms`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Update one value in config.yaml. The file is validated before it is
written; lists take comma separated values.`,
	Example: `  gateway config set networks.eth.rpc wss://node.example/ws
  gateway config set networks.eth.connection websocket
  gateway config set confirmation.schedule_ms 1000,2000,4000`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// ConfigValue is the output of config get and config set.
type ConfigValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RenderText implements output.TextRenderer.
func (v ConfigValue) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, v.Value)
	return err
}

func configFile(cc *CommandContext) (string, error) {
	home, err := config.ExpandHome(cc.Cfg.GetHome())
	if err != nil {
		return "", err
	}
	return config.Path(home), nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}
	path, err := configFile(cc)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return gwerr.WithSuggestion(
			gwerr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s; use --force to overwrite", path),
		)
	}

	defaults := config.Defaults()
	defaults.Home = cc.Cfg.GetHome()
	if err := config.Save(defaults, path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	cc.Log.Debug("wrote default configuration to %s", path)

	return cc.Fmt.Print(ConfigValue{Key: "path", Value: path})
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}

	shown := *cc.Cfg
	if shown.Networks.BTC.Token != "" {
		shown.Networks.BTC.Token = "********"
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return err
	}
	if !cc.Fmt.IsJSON() {
		_, err = cc.Fmt.Writer().Write(data)
		return err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	return cc.Fmt.Print(doc)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}

	value, err := config.Get(cc.Cfg, args[0])
	if err != nil {
		return err
	}
	return cc.Fmt.Print(ConfigValue{Key: args[0], Value: value})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}
	key, value := args[0], args[1]

	path, err := configFile(cc)
	if err != nil {
		return err
	}

	// Edit the file contents, not the effective config, so environment
	// overrides are never persisted.
	current, err := config.Load(path)
	if gwerr.Is(err, gwerr.ErrConfigNotFound) {
		current = config.Defaults()
		current.Home = cc.Cfg.GetHome()
	} else if err != nil {
		return err
	}

	if err := config.Set(current, key, value); err != nil {
		return err
	}
	if err := config.Save(current, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cc.Log.Debug("set %s in %s", key, path)

	return cc.Fmt.Print(ConfigValue{Key: key, Value: value})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)
	enrichParentLong(configCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing configuration")
}
