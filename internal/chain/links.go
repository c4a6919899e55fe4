package chain

import (
	"fmt"
	"strings"

	"github.com/scifier/blockchain-gateway/internal/account"
)

// Default block explorers per chain and network type.
const (
	BTCMainnetExplorer = "https://live.blockcypher.com/btc"
	BTCTestnetExplorer = "https://live.blockcypher.com/btc-testnet"
	ETHMainnetExplorer = "https://etherscan.io"
	ETHTestnetExplorer = "https://ropsten.etherscan.io"
)

// DefaultExplorer returns the explorer base URL for a chain and network.
func DefaultExplorer(id ID, network account.NetworkType) string {
	switch id {
	case BTC:
		if network.IsTestnet() {
			return BTCTestnetExplorer
		}
		return BTCMainnetExplorer
	case ETH:
		if network.IsTestnet() {
			return ETHTestnetExplorer
		}
		return ETHMainnetExplorer
	default:
		return ""
	}
}

// ExplorerLinks builds links of the form {base}/tx/{hash}.
type ExplorerLinks struct {
	base string
}

// NewExplorerLinks creates link builders rooted at base. A trailing slash is
// stripped.
func NewExplorerLinks(base string) *ExplorerLinks {
	return &ExplorerLinks{base: strings.TrimRight(base, "/")}
}

// Base returns the explorer base URL.
func (e *ExplorerLinks) Base() string {
	return e.base
}

// TransactionLink returns the explorer page of a transaction.
func (e *ExplorerLinks) TransactionLink(hash string) string {
	return e.base + "/tx/" + hash
}

// AddressLink returns the explorer page of an address.
func (e *ExplorerLinks) AddressLink(address string) string {
	return e.base + "/address/" + address
}

// BlockLink returns the explorer page of a block.
func (e *ExplorerLinks) BlockLink(number uint64) string {
	return fmt.Sprintf("%s/block/%d", e.base, number)
}

var _ Explorer = (*ExplorerLinks)(nil)
