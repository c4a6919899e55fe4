package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/config"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

func TestParseChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         string
		want       chain.ID
		suggestion string
	}{
		{in: "btc", want: chain.BTC},
		{in: "ETH", want: chain.ETH},
		{in: " eth ", want: chain.ETH},
		{in: "bth", suggestion: "did you mean --chain btc?"},
		{in: "doge", suggestion: "use --chain btc or --chain eth"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			id, err := parseChain(tt.in)
			if tt.suggestion == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, id)
				return
			}
			require.ErrorIs(t, err, gwerr.ErrUnsupportedChain)
			var ge *gwerr.GatewayError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.suggestion, ge.Suggestion)
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, gwerr.ExitSuccess, ExitCode(nil))
	assert.Equal(t, gwerr.ExitFunds, ExitCode(gwerr.ErrInsufficientFunds))
	assert.Equal(t, gwerr.ExitGeneral, ExitCode(errors.New("boom"))) //nolint:err113 // test error
}

func TestExecute_UnknownChainWritesStructuredError(t *testing.T) {
	_, errOut, err := runCLI(t, nil, "link", "tx", "--chain", "dgoe", "abc")
	require.ErrorIs(t, err, gwerr.ErrUnsupportedChain)

	detail := decodeJSON[map[string]map[string]any](t, errOut)["error"]
	assert.Equal(t, "UNSUPPORTED_CHAIN", detail["code"])
}

func TestExecute_InvalidNetwork(t *testing.T) {
	_, _, err := runCLI(t, nil, "link", "tx", "--network", "moon", "abc")
	require.ErrorIs(t, err, gwerr.ErrConfigInvalid)
}

func TestInitGlobals_WiresContext(t *testing.T) {
	factory := &fakeFactory{network: newFakeNetwork(chain.ETH, account.Mainnet)}
	_, _, err := runCLI(t, factory, "link", "block", "--chain", "eth", "--network", "mainnet", "1")
	require.NoError(t, err)

	cc := GetCmdContext(linkBlockCmd)
	require.NotNil(t, cc)
	assert.Equal(t, chain.ETH, cc.Chain)
	assert.Equal(t, account.Mainnet, cc.Network)
	assert.Same(t, factory, cc.Factory)
	assert.True(t, cc.Fmt.IsJSON(), "buffers are not terminals")
	assert.Equal(t, "mainnet", cc.Cfg.Network)
}

func TestInitGlobals_ReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	c := config.Defaults()
	c.Network = "mainnet"
	c.Networks.BTC.ExplorerURL = "https://mempool.example/"
	require.NoError(t, config.Save(c, config.Path(home)))

	out, _, err := runCLI(t, nil, "--home", home, "-o", "text", "link", "tx", "abcd")
	require.NoError(t, err)
	assert.Equal(t, "https://mempool.example/tx/abcd\n", out)
}

func TestInitGlobals_BrokenConfigFails(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(home, "config.yaml"), "network: [unterminated"))

	_, _, err := runCLI(t, nil, "--home", home, "link", "tx", "abcd")
	require.ErrorIs(t, err, gwerr.ErrConfigInvalid)
}

func TestInitGlobals_VerboseLogsToStderr(t *testing.T) {
	_, errOut, err := runCLI(t, nil, "-v", "keygen", "--chain", "eth")
	require.NoError(t, err)
	assert.Contains(t, errOut, "generated eth keypair")
	assert.Contains(t, errOut, "session metrics")
}
