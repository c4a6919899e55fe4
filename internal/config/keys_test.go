package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scifier/blockchain-gateway/internal/config"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

func TestGet(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	tests := []struct {
		key  string
		want string
	}{
		{"network", "testnet"},
		{"networks.eth.rpc", config.DefaultETHRPCURL},
		{"networks.eth.chain_id", "0"},
		{"networks.btc.token", ""},
		{"fees.dust_sats", "546"},
		{"confirmation.schedule_ms", "1250,2500,5000,10000,20000"},
		{"cache.balance_ttl_seconds", "30"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			got, err := config.Get(cfg, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_Errors(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()

	_, err := config.Get(cfg, "networks.bsv.api")
	require.ErrorIs(t, err, gwerr.ErrNotFound)

	_, err = config.Get(cfg, "networks.eth.rpc.host")
	require.ErrorIs(t, err, gwerr.ErrNotFound)

	_, err = config.Get(cfg, "fees")
	require.ErrorIs(t, err, gwerr.ErrInvalidInput)
}

func TestSet(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	require.NoError(t, config.Set(cfg, "networks.btc.token", "abc123"))
	require.NoError(t, config.Set(cfg, "networks.eth.chain_id", "1337"))
	require.NoError(t, config.Set(cfg, "confirmation.schedule_ms", "100, 200"))
	require.NoError(t, config.Set(cfg, "output.verbose", "true"))
	require.NoError(t, config.Set(cfg, "fees.default_sat_per_byte", "12"))

	assert.Equal(t, "abc123", cfg.Networks.BTC.Token)
	assert.Equal(t, int64(1337), cfg.Networks.ETH.ChainID)
	assert.Equal(t, []int{100, 200}, cfg.Confirmation.ScheduleMillis)
	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "12", cfg.Fees.DefaultSatPerByte)
}

func TestSet_NumericStringStaysString(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	require.NoError(t, config.Set(cfg, "networks.btc.token", "12345"))
	assert.Equal(t, "12345", cfg.Networks.BTC.Token)
}

func TestSet_RejectedValueLeavesConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key   string
		value string
		want  error
	}{
		{"networks.eth.chain_id", "mainnet", gwerr.ErrConfigInvalid},
		{"network", "regtest", gwerr.ErrConfigInvalid},
		{"cache.balance_ttl_seconds", "-5", gwerr.ErrConfigInvalid},
		{"networks.eth.rpc", "ftp://node", gwerr.ErrConfigInvalid},
		{"networks.eth.missing", "x", gwerr.ErrNotFound},
		{"networks", "x", gwerr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			cfg := config.Defaults()
			require.ErrorIs(t, config.Set(cfg, tt.key, tt.value), tt.want)
			assert.Equal(t, config.Defaults(), cfg)
		})
	}
}
