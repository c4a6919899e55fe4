package eth

import (
	"strings"
	"sync"
)

// NonceManager tracks nonces the node has accepted per sender so that a
// transaction assembled before the previous one reaches the node's pending
// pool does not reuse its nonce. Nothing is reserved until Commit, so an
// assembled transaction that is never broadcast leaves no gap. Addresses are
// compared case-insensitively.
type NonceManager struct {
	mu     sync.Mutex
	nonces map[string]uint64 // one past the highest nonce committed
}

// NewNonceManager creates an empty manager.
func NewNonceManager() *NonceManager {
	return &NonceManager{nonces: make(map[string]uint64)}
}

// Next returns the higher of the node's pending nonce and the nonce after
// the last one committed for address.
func (nm *NonceManager) Next(address string, pending uint64) uint64 {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if local, ok := nm.nonces[strings.ToLower(address)]; ok && local > pending {
		return local
	}
	return pending
}

// Commit records that the node accepted a transaction from address with
// nonce.
func (nm *NonceManager) Commit(address string, nonce uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	key := strings.ToLower(address)
	if local, ok := nm.nonces[key]; !ok || nonce+1 > local {
		nm.nonces[key] = nonce + 1
	}
}

// Reset forgets the local state of address.
func (nm *NonceManager) Reset(address string) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.nonces, strings.ToLower(address))
}
