// Package cache keeps the last balance seen for each address.
package cache

import (
	"math/big"
	"sync"
	"time"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
)

// DefaultStaleness is how long an entry is served without a ledger lookup.
const DefaultStaleness = 30 * time.Second

// BalanceCache stores balances keyed by chain, network and address.
type BalanceCache struct {
	mu      sync.RWMutex     `json:"-"`
	Entries map[string]Entry `json:"entries"`
}

// Entry is one cached balance in the chain's smallest unit.
type Entry struct {
	Chain     chain.ID  `json:"chain"`
	Network   string    `json:"network"`
	Address   string    `json:"address"`
	Units     string    `json:"units"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Balance returns the cached units, or nil when the entry is malformed.
func (e Entry) Balance() *big.Int {
	v, ok := new(big.Int).SetString(e.Units, 10)
	if !ok {
		return nil
	}
	return v
}

// NewBalanceCache creates an empty cache.
func NewBalanceCache() *BalanceCache {
	return &BalanceCache{Entries: make(map[string]Entry)}
}

// Key identifies an address on one chain and network.
func Key(id chain.ID, network account.NetworkType, address string) string {
	return string(id) + ":" + network.String() + ":" + address
}

// Get returns the entry, whether it exists, and its age.
func (c *BalanceCache) Get(id chain.ID, network account.NetworkType, address string) (Entry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[Key(id, network, address)]
	if !ok {
		return Entry{}, false, 0
	}
	return entry, true, time.Since(entry.UpdatedAt)
}

// Fresh returns the balance when an entry younger than maxAge exists.
func (c *BalanceCache) Fresh(id chain.ID, network account.NetworkType, address string, maxAge time.Duration) (*big.Int, bool) {
	entry, ok, age := c.Get(id, network, address)
	if !ok || age > maxAge {
		return nil, false
	}
	balance := entry.Balance()
	return balance, balance != nil
}

// Set records balance for address, stamped with the current time.
func (c *BalanceCache) Set(id chain.ID, network account.NetworkType, address string, balance *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries[Key(id, network, address)] = Entry{
		Chain:     id,
		Network:   network.String(),
		Address:   address,
		Units:     balance.String(),
		UpdatedAt: time.Now().UTC(),
	}
}

// Delete drops the entry for address.
func (c *BalanceCache) Delete(id chain.ID, network account.NetworkType, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.Entries, Key(id, network, address))
}

// Size returns the number of entries.
func (c *BalanceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.Entries)
}

// Prune removes entries older than maxAge and reports how many went.
func (c *BalanceCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
