package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

func TestAddressShow_FromPrompt(t *testing.T) {
	withPrompts(t, testETHKey, true)
	out, _, err := runCLI(t, nil, "address", "show", "--chain", "eth", "--network", "mainnet")
	require.NoError(t, err)

	got := decodeJSON[AddressResult](t, out)
	assert.Equal(t, testETHAddress, got.Address)
	assert.True(t, got.Valid)
	assert.Equal(t, "ethereum:"+testETHAddress, got.URI)
	assert.Equal(t, "https://etherscan.io/address/"+testETHAddress, got.Link)
}

func TestAddressShow_EnvKeyWins(t *testing.T) {
	withPrompts(t, "not-a-key", true)
	t.Setenv(EnvPrivateKey, testETHKey)

	out, _, err := runCLI(t, nil, "address", "show", "--chain", "eth")
	require.NoError(t, err)
	assert.Equal(t, testETHAddress, decodeJSON[AddressResult](t, out).Address)
}

func TestAddressShow_QRNeedsTerminal(t *testing.T) {
	withPrompts(t, testETHKey, true)

	out, errOut, err := runCLI(t, nil, "-o", "text", "address", "show", "--chain", "eth", "--qr")
	require.NoError(t, err)
	assert.Contains(t, out, testETHAddress)
	assert.Contains(t, errOut, "QR codes need a terminal")
}

func TestAddressShow_InvalidKey(t *testing.T) {
	withPrompts(t, "0x1234", true)

	_, _, err := runCLI(t, nil, "address", "show", "--chain", "eth")
	require.ErrorIs(t, err, gwerr.ErrInvalidKey)
}

func TestAddressShow_EmptyKey(t *testing.T) {
	withPrompts(t, "", true)

	_, _, err := runCLI(t, nil, "address", "show", "--chain", "btc")
	require.ErrorIs(t, err, gwerr.ErrInvalidKey)
}

func TestAddressValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		valid   bool
		wantErr error
	}{
		{"btc testnet", []string{"--chain", "btc", testBTCTo}, true, nil},
		{"btc wrong network", []string{"--chain", "btc", "--network", "mainnet", testBTCTo}, false, gwerr.ErrInvalidAddress},
		{"eth checksummed", []string{"--chain", "eth", testETHTo}, true, nil},
		{"eth garbage", []string{"--chain", "eth", "0x1234"}, false, gwerr.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, nil, append([]string{"address", "validate"}, tt.args...)...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			got := decodeJSON[AddressResult](t, out)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.NotEmpty(t, got.Link)
			}
		})
	}
}

func TestAddressParentHelpListsSubcommands(t *testing.T) {
	t.Parallel()
	assert.Contains(t, addressCmd.Long, "Subcommands:")
	assert.Contains(t, addressCmd.Long, "validate")
	assert.Contains(t, linkCmd.Long, "block")
}
