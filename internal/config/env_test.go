package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"1", "1", true},
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"yes", "yes", true},
		{"on", "on", true},
		{"with spaces", "  true  ", true},
		{"0", "0", false},
		{"false", "false", false},
		{"no", "no", false},
		{"off", "off", false},
		{"empty", "", false},
		{"random", "random", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, parseBool(tc.input))
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean URL", "https://mainnet.infura.io/v3/abc123", "https://mainnet.infura.io/v3/abc123"},
		{"leading and trailing spaces", "  https://node.example/rpc  ", "https://node.example/rpc"},
		{"embedded newline", "https://node.example/\nrpc", "https://node.example/rpc"},
		{"tab and cr", "\thttps://node.example/rpc\r\n", "https://node.example/rpc"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SanitizeURL(tc.input))
		})
	}
}

func TestValidateRPCURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://ethereum-rpc.publicnode.com", false},
		{"http://localhost:8545", false},
		{"wss://node.example/ws", false},
		{"ws://127.0.0.1:8546", false},
		{"ftp://node.example", true},
		{"localhost:8545", true},
		{"not a url", true},
		{"", true},
	}

	for _, tc := range tests {
		err := ValidateRPCURL(tc.url)
		if tc.wantErr {
			require.ErrorIs(t, err, gwerr.ErrConfigInvalid, tc.url)
		} else {
			require.NoError(t, err, tc.url)
		}
	}
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	got, ok := parseSchedule("100, 200,400")
	require.True(t, ok)
	assert.Equal(t, []int{100, 200, 400}, got)

	for _, bad := range []string{"100,x", "0", "-5", "100,,200"} {
		_, ok = parseSchedule(bad)
		assert.False(t, ok, bad)
	}
}

func TestApplyEnvironment(t *testing.T) {
	// Cannot run in parallel because we modify environment variables

	t.Run("home", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvHome, "/custom/home")
		ApplyEnvironment(cfg)
		assert.Equal(t, "/custom/home", cfg.Home)
	})

	t.Run("network", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvNetwork, " MAINNET ")
		ApplyEnvironment(cfg)
		assert.Equal(t, "mainnet", cfg.Network)
	})

	t.Run("eth rpc is sanitized", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvETHRPC, "  https://mainnet.infura.io/v3/test\n")
		ApplyEnvironment(cfg)
		assert.Equal(t, "https://mainnet.infura.io/v3/test", cfg.Networks.ETH.RPC)
	})

	t.Run("eth connection", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvETHConnection, "WebSocket")
		ApplyEnvironment(cfg)
		assert.Equal(t, "websocket", cfg.Networks.ETH.Connection)
	})

	t.Run("blockcypher token", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvBlockCypher, " tok ")
		ApplyEnvironment(cfg)
		assert.Equal(t, "tok", cfg.Networks.BTC.Token)
	})

	t.Run("fee rate", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvFeeRate, "2.5")
		ApplyEnvironment(cfg)
		rate, err := cfg.DefaultFeeRate()
		require.NoError(t, err)
		assert.Equal(t, "2.5", rate.String())
	})

	t.Run("output and logging", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvOutputFormat, "JSON")
		t.Setenv(EnvVerbose, "yes")
		t.Setenv(EnvLogLevel, "DEBUG")
		ApplyEnvironment(cfg)
		assert.Equal(t, "json", cfg.Output.DefaultFormat)
		assert.True(t, cfg.Output.Verbose)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("no color", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvNoColor, "")
		ApplyEnvironment(cfg)
		assert.Equal(t, "never", cfg.Output.Color)
	})

	t.Run("confirmation schedule", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvConfirmSchedule, "10,20")
		ApplyEnvironment(cfg)
		assert.Equal(t, []int{10, 20}, cfg.Confirmation.ScheduleMillis)
	})

	t.Run("malformed schedule is ignored", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvConfirmSchedule, "10,soon")
		ApplyEnvironment(cfg)
		assert.Equal(t, Defaults().Confirmation.ScheduleMillis, cfg.Confirmation.ScheduleMillis)
	})
}
