//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
package cli

import (
	"math"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/cache"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// balanceTimeout bounds a balance lookup.
const balanceTimeout = 30 * time.Second

var (
	// balanceRefresh forces a ledger lookup, ignoring the cache.
	balanceRefresh bool
	// balanceCachedOnly shows the last known balance without network calls.
	balanceCachedOnly bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Show the balance of an address",
	Long: `Show the confirmed balance of an address in the chain's display unit
and its smallest unit (satoshi or wei).

Without an address the balance of the private key's address is shown; the
key is read from GATEWAY_PRIVATE_KEY or prompted with hidden input.

Balances are cached under the gateway home for cache.balance_ttl_seconds
(30 by default). A send drops the cached balances of both parties.
Use --refresh to always ask the ledger, or --cached to skip it.`,
	Example: `  gateway balance --chain btc mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn
  gateway balance --chain eth --network mainnet 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
  gateway balance --chain eth -o json --refresh`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}
	if balanceRefresh && balanceCachedOnly {
		return gwerr.WithSuggestion(gwerr.ErrInvalidInput, "use either --refresh or --cached")
	}

	var address string
	if len(args) == 1 {
		address = args[0]
		if err := validateAddress(cc.Chain, address, cc.Network); err != nil {
			return err
		}
	}

	bc := cache.NewBalanceCache()
	if !balanceRefresh {
		bc = loadBalanceCache(cc)
	}
	if address != "" {
		if result, ok := cachedBalance(cc, bc, address); ok {
			return cc.Fmt.Print(result)
		}
		if balanceCachedOnly {
			return noCachedBalance(address)
		}
	}

	ctx, cancel := contextWithTimeout(cmd, balanceTimeout)
	defer cancel()

	network, err := cc.network(ctx)
	if err != nil {
		return err
	}
	defer closeNetwork(network)

	if address == "" {
		key, err := readPrivateKey(cc)
		if err != nil {
			return err
		}
		if err := network.Connect(key); err != nil {
			return err
		}
		address = network.State().Address()
		if result, ok := cachedBalance(cc, bc, address); ok {
			return cc.Fmt.Print(result)
		}
	}

	if balanceCachedOnly {
		return noCachedBalance(address)
	}

	cc.Log.Debug("fetching %s balance of %s", cc.Chain, address)
	balance, err := network.Balance(ctx, address)
	if err != nil {
		return err
	}

	bc.Set(cc.Chain, cc.Network, address, balance)
	saveBalanceCache(cc, bc)

	return cc.Fmt.Print(newBalanceResult(cc, address, balance))
}

// cachedBalance serves address from bc when the flags and TTL allow it.
func cachedBalance(cc *CommandContext, bc *cache.BalanceCache, address string) (BalanceResult, bool) {
	if balanceRefresh {
		return BalanceResult{}, false
	}

	maxAge := cc.Cfg.BalanceTTL()
	if balanceCachedOnly {
		maxAge = time.Duration(math.MaxInt64)
	}
	if maxAge <= 0 {
		return BalanceResult{}, false
	}

	balance, ok := bc.Fresh(cc.Chain, cc.Network, address, maxAge)
	if !ok {
		return BalanceResult{}, false
	}
	entry, _, age := bc.Get(cc.Chain, cc.Network, address)
	cc.Log.Debug("serving cached %s balance of %s (age %s)", cc.Chain, address, age.Round(time.Second))

	result := newBalanceResult(cc, address, balance)
	result.Cached = true
	result.UpdatedAt = entry.UpdatedAt.Format(time.RFC3339)
	return result, true
}

func noCachedBalance(address string) error {
	return gwerr.WithSuggestion(gwerr.ErrNotFound, "no cached balance for "+address+"; run without --cached")
}

func newBalanceResult(cc *CommandContext, address string, balance *big.Int) BalanceResult {
	return BalanceResult{
		Chain:   cc.Chain,
		Network: cc.Network.String(),
		Address: address,
		Balance: newAmount(cc.Chain, balance),
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVar(&balanceRefresh, "refresh", false, "ignore the cache and ask the ledger")
	balanceCmd.Flags().BoolVar(&balanceCachedOnly, "cached", false, "show the last known balance without network calls")
}
