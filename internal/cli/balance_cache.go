package cli

import (
	"errors"

	"github.com/scifier/blockchain-gateway/internal/cache"
	"github.com/scifier/blockchain-gateway/internal/config"
)

// balanceStorage returns the cache file store under the gateway home.
func balanceStorage(cc *CommandContext) (*cache.FileStorage, error) {
	home, err := config.ExpandHome(cc.Cfg.GetHome())
	if err != nil {
		return nil, err
	}
	return cache.NewFileStorage(cache.Path(home)), nil
}

// loadBalanceCache reads the cache, starting empty on any failure.
func loadBalanceCache(cc *CommandContext) *cache.BalanceCache {
	storage, err := balanceStorage(cc)
	if err != nil {
		cc.Log.Error("locating balance cache: %v", err)
		return cache.NewBalanceCache()
	}

	bc, err := storage.Load()
	switch {
	case err == nil:
		return bc
	case errors.Is(err, cache.ErrCorruptCache):
		cc.Log.Error("balance cache file is corrupted: %v", err)
		cc.Progress.Warnf("balance cache was corrupted and has been reset")
	default:
		cc.Log.Error("failed to load balance cache: %v", err)
	}
	return cache.NewBalanceCache()
}

// saveBalanceCache writes the cache, logging failures.
func saveBalanceCache(cc *CommandContext, bc *cache.BalanceCache) {
	storage, err := balanceStorage(cc)
	if err == nil {
		err = storage.Save(bc)
	}
	if err != nil {
		cc.Log.Error("failed to save balance cache: %v", err)
	}
}

// invalidateBalances drops cached balances touched by a broadcast.
func invalidateBalances(cc *CommandContext, addresses ...string) {
	bc := loadBalanceCache(cc)
	before := bc.Size()
	for _, addr := range addresses {
		bc.Delete(cc.Chain, cc.Network, addr)
	}
	if bc.Size() != before {
		saveBalanceCache(cc, bc)
	}
}
