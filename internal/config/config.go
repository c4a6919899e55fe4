// Package config provides configuration management for the gateway.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/fileutil"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version      int                `yaml:"version"`
	Home         string             `yaml:"home"`
	Network      string             `yaml:"network"`
	Networks     NetworksConfig     `yaml:"networks"`
	Fees         FeesConfig         `yaml:"fees"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	Cache        CacheConfig        `yaml:"cache"`
	Output       OutputConfig       `yaml:"output"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// NetworksConfig defines per-chain network settings.
type NetworksConfig struct {
	BTC BTCNetworkConfig `yaml:"btc"`
	ETH ETHNetworkConfig `yaml:"eth"`
}

// BTCNetworkConfig defines Bitcoin ledger settings.
type BTCNetworkConfig struct {
	// API overrides the BlockCypher endpoint for the selected network.
	API               string  `yaml:"api"`
	Token             string  `yaml:"token"`
	ExplorerURL       string  `yaml:"explorer_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ETHNetworkConfig defines Ethereum node settings.
type ETHNetworkConfig struct {
	RPC         string `yaml:"rpc"`
	Connection  string `yaml:"connection"`
	ChainID     int64  `yaml:"chain_id"` // 0 uses the network default
	ExplorerURL string `yaml:"explorer_url"`
}

// FeesConfig defines fee settings.
type FeesConfig struct {
	// DefaultSatPerByte is used when the ledger fee rate is unavailable.
	DefaultSatPerByte string `yaml:"default_sat_per_byte"`
	DustSats          uint64 `yaml:"dust_sats"`
	MinSpendSats      uint64 `yaml:"min_spend_sats"`
	ETHGasSpeed       string `yaml:"eth_gas_speed"`
}

// ConfirmationConfig defines the confirmation poll schedule.
type ConfirmationConfig struct {
	// ScheduleMillis lists the waits before each retry poll.
	ScheduleMillis []int `yaml:"schedule_ms"`
}

// CacheConfig defines the local balance cache.
type CacheConfig struct {
	// BalanceTTLSeconds is how long a fetched balance is reused; 0 always fetches.
	BalanceTTLSeconds int `yaml:"balance_ttl_seconds"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// Load reads configuration from the specified file on top of Defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, gwerr.WithDetails(gwerr.ErrConfigNotFound, map[string]string{"path": path})
	}
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gwerr.ErrConfigInvalid, path, err)
	}
	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if _, err := account.ParseNetworkType(c.Network); err != nil {
		return invalid("network", c.Network)
	}
	if _, err := c.DefaultFeeRate(); err != nil {
		return invalid("fees.default_sat_per_byte", c.Fees.DefaultSatPerByte)
	}
	for _, ms := range c.Confirmation.ScheduleMillis {
		if ms <= 0 {
			return invalid("confirmation.schedule_ms", fmt.Sprint(c.Confirmation.ScheduleMillis))
		}
	}
	if c.Cache.BalanceTTLSeconds < 0 {
		return invalid("cache.balance_ttl_seconds", fmt.Sprint(c.Cache.BalanceTTLSeconds))
	}
	if c.Networks.ETH.RPC != "" {
		if err := ValidateRPCURL(c.Networks.ETH.RPC); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, value string) error {
	return gwerr.WithDetails(gwerr.ErrConfigInvalid, map[string]string{
		"field": field,
		"value": value,
	})
}

// NetworkType returns the configured network.
func (c *Config) NetworkType() (account.NetworkType, error) {
	return account.ParseNetworkType(c.Network)
}

// DefaultFeeRate returns the fallback fee rate in sat/byte.
func (c *Config) DefaultFeeRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.Fees.DefaultSatPerByte))
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: fee rate %q", gwerr.ErrConfigInvalid, c.Fees.DefaultSatPerByte)
	}
	return rate, nil
}

// Schedule returns the confirmation schedule, or nil to use the built-in one.
func (c *Config) Schedule() []time.Duration {
	if len(c.Confirmation.ScheduleMillis) == 0 {
		return nil
	}
	out := make([]time.Duration, len(c.Confirmation.ScheduleMillis))
	for i, ms := range c.Confirmation.ScheduleMillis {
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}

// BalanceTTL returns how long a cached balance may be shown.
func (c *Config) BalanceTTL() time.Duration {
	return time.Duration(c.Cache.BalanceTTLSeconds) * time.Second
}

// GetHome returns the gateway home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default gateway home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gateway"
	}
	return filepath.Join(home, ".gateway")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
