package chain

import (
	"context"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/scifier/blockchain-gateway/internal/account"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Factory creates network adapters.
// The base chain package cannot import the btc/eth packages, so creators
// are registered by the caller (see cli).
type Factory interface {
	// NewNetwork creates an adapter for the given chain and network type.
	NewNetwork(ctx context.Context, id ID, network account.NetworkType) (Network, error)
}

// ClientCloser is implemented by adapters that hold connections.
type ClientCloser interface {
	Close()
}

// Creator constructs one chain's adapter.
type Creator func(ctx context.Context, network account.NetworkType) (Network, error)

// ConfigurableFactory is a factory that can have chain creators registered.
type ConfigurableFactory struct {
	creators map[ID]Creator
}

// NewConfigurableFactory creates a new configurable factory.
func NewConfigurableFactory() *ConfigurableFactory {
	return &ConfigurableFactory{
		creators: make(map[ID]Creator),
	}
}

// Register adds a chain creator for the given ID.
func (f *ConfigurableFactory) Register(id ID, creator Creator) {
	f.creators[id] = creator
}

// NewNetwork creates an adapter using the registered creator.
func (f *ConfigurableFactory) NewNetwork(ctx context.Context, id ID, network account.NetworkType) (Network, error) {
	creator, ok := f.creators[id]
	if !ok {
		err := fmt.Errorf("%w: %s", gwerr.ErrUnsupportedChain, id)
		if s := f.suggest(id); s != "" {
			return nil, gwerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", s))
		}
		return nil, err
	}
	return creator(ctx, network)
}

// IsSupported returns true if the chain ID has a registered creator.
func (f *ConfigurableFactory) IsSupported(id ID) bool {
	_, ok := f.creators[id]
	return ok
}

// SupportedChains returns all registered chain IDs, sorted.
func (f *ConfigurableFactory) SupportedChains() []ID {
	chains := make([]ID, 0, len(f.creators))
	for id := range f.creators {
		chains = append(chains, id)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}

// suggest returns the closest registered chain within edit distance 1.
func (f *ConfigurableFactory) suggest(id ID) ID {
	for _, candidate := range f.SupportedChains() {
		if levenshtein.ComputeDistance(string(id), string(candidate)) <= 1 {
			return candidate
		}
	}
	return ""
}

// Compile-time interface check
var _ Factory = (*ConfigurableFactory)(nil)
