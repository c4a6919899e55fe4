package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Environment variable names.
const (
	EnvHome            = "GATEWAY_HOME"
	EnvNetwork         = "GATEWAY_NETWORK"
	EnvETHRPC          = "GATEWAY_ETH_RPC"
	EnvETHConnection   = "GATEWAY_ETH_CONNECTION"
	EnvBlockCypher     = "GATEWAY_BLOCKCYPHER_TOKEN" // #nosec G101 -- variable name, not a credential
	EnvFeeRate         = "GATEWAY_FEE_RATE"
	EnvOutputFormat    = "GATEWAY_OUTPUT_FORMAT"
	EnvVerbose         = "GATEWAY_VERBOSE"
	EnvLogLevel        = "GATEWAY_LOG_LEVEL"
	EnvNoColor         = "NO_COLOR"
	EnvConfirmSchedule = "GATEWAY_CONFIRM_SCHEDULE_MS"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvETHRPC); v != "" {
		cfg.Networks.ETH.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvETHConnection); v != "" {
		cfg.Networks.ETH.Connection = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvBlockCypher); v != "" {
		cfg.Networks.BTC.Token = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvFeeRate); v != "" {
		cfg.Fees.DefaultSatPerByte = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	// Comma separated millisecond waits; malformed lists are ignored.
	if v := os.Getenv(EnvConfirmSchedule); v != "" {
		if schedule, ok := parseSchedule(v); ok {
			cfg.Confirmation.ScheduleMillis = schedule
		}
	}
}

func parseSchedule(s string) ([]int, bool) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		ms, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || ms <= 0 {
			return nil, false
		}
		out = append(out, ms)
	}
	return out, true
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL trims whitespace and drops control and space characters that
// copy-paste tends to leave inside URLs.
func SanitizeURL(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

// ValidateRPCURL checks an Ethereum node URL is absolute with a supported
// scheme.
func ValidateRPCURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return gwerr.WithDetails(gwerr.ErrConfigInvalid, map[string]string{
			"field": "networks.eth.rpc",
			"value": raw,
		})
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
		return nil
	default:
		return gwerr.WithDetails(gwerr.ErrConfigInvalid, map[string]string{
			"field":  "networks.eth.rpc",
			"value":  raw,
			"reason": "scheme must be http, https, ws or wss",
		})
	}
}
