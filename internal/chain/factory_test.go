package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scifier/blockchain-gateway/internal/account"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// stubNetwork satisfies Network; only ID is called by these tests.
type stubNetwork struct {
	Network

	id      ID
	network account.NetworkType
}

func (s *stubNetwork) ID() ID { return s.id }

func TestConfigurableFactory_NewNetwork(t *testing.T) {
	t.Parallel()

	factory := NewConfigurableFactory()
	factory.Register(BTC, func(_ context.Context, network account.NetworkType) (Network, error) {
		return &stubNetwork{id: BTC, network: network}, nil
	})

	t.Run("registered chain", func(t *testing.T) {
		t.Parallel()
		n, err := factory.NewNetwork(context.Background(), BTC, account.Testnet)
		require.NoError(t, err)
		assert.Equal(t, BTC, n.ID())
		assert.Equal(t, account.Testnet, n.(*stubNetwork).network)
	})

	t.Run("unregistered chain", func(t *testing.T) {
		t.Parallel()
		_, err := factory.NewNetwork(context.Background(), ETH, account.Mainnet)
		require.ErrorIs(t, err, gwerr.ErrUnsupportedChain)
	})

	t.Run("typo gets a suggestion", func(t *testing.T) {
		t.Parallel()
		_, err := factory.NewNetwork(context.Background(), ID("bts"), account.Mainnet)
		var ge *gwerr.GatewayError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, `did you mean "btc"?`, ge.Suggestion)
	})
}

func TestConfigurableFactory_SupportedChains(t *testing.T) {
	t.Parallel()

	factory := NewConfigurableFactory()
	assert.Empty(t, factory.SupportedChains())

	creator := func(context.Context, account.NetworkType) (Network, error) { return nil, nil } //nolint:nilnil // test stub
	factory.Register(ETH, creator)
	factory.Register(BTC, creator)

	assert.Equal(t, []ID{BTC, ETH}, factory.SupportedChains())
	assert.True(t, factory.IsSupported(ETH))
	assert.False(t, factory.IsSupported(ID("doge")))
}
