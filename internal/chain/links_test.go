package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
)

func TestExplorerLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
	}{
		{"no trailing slash", "https://etherscan.io"},
		{"trailing slash stripped", "https://etherscan.io/"},
		{"several trailing slashes", "https://etherscan.io//"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			links := chain.NewExplorerLinks(tt.base)
			assert.Equal(t, "https://etherscan.io/tx/0xabc", links.TransactionLink("0xabc"))
			assert.Equal(t, "https://etherscan.io/address/0xdef", links.AddressLink("0xdef"))
			assert.Equal(t, "https://etherscan.io/block/12345", links.BlockLink(12345))
		})
	}
}

func TestDefaultExplorer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      chain.ID
		network account.NetworkType
		want    string
	}{
		{chain.BTC, account.Mainnet, "https://live.blockcypher.com/btc"},
		{chain.BTC, account.Testnet, "https://live.blockcypher.com/btc-testnet"},
		{chain.ETH, account.Mainnet, "https://etherscan.io"},
		{chain.ETH, account.Testnet, "https://ropsten.etherscan.io"},
		{chain.ID("doge"), account.Mainnet, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, chain.DefaultExplorer(tt.id, tt.network))
	}

	links := chain.NewExplorerLinks(chain.DefaultExplorer(chain.BTC, account.Testnet))
	assert.Equal(t, "https://live.blockcypher.com/btc-testnet/tx/ff", links.TransactionLink("ff"))
}
