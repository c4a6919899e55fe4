package cli

import (
	"context"
	"fmt"
	"math/big"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/chain/btc"
	"github.com/scifier/blockchain-gateway/internal/chain/eth"
	"github.com/scifier/blockchain-gateway/internal/config"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// NewFactory returns a chain factory wired from configuration.
func NewFactory(c *config.Config, logger chain.LogWriter) *chain.ConfigurableFactory {
	f := chain.NewConfigurableFactory()
	f.Register(chain.BTC, btcCreator(c, logger))
	f.Register(chain.ETH, ethCreator(c, logger))
	return f
}

func newPoller(c *config.Config, logger chain.LogWriter) *chain.Poller {
	opts := []chain.PollerOption{chain.WithLogger(logger)}
	if schedule := c.Schedule(); schedule != nil {
		opts = append(opts, chain.WithSchedule(schedule))
	}
	return chain.NewPoller(opts...)
}

func btcCreator(c *config.Config, logger chain.LogWriter) chain.Creator {
	return func(_ context.Context, network account.NetworkType) (chain.Network, error) {
		rate, err := c.DefaultFeeRate()
		if err != nil {
			return nil, err
		}
		btcCfg := c.Networks.BTC

		var limiter *chain.RateLimiter
		if btcCfg.RequestsPerSecond > 0 {
			burst := btcCfg.Burst
			if burst < 1 {
				burst = 1
			}
			limiter = chain.NewRateLimiter(btcCfg.RequestsPerSecond, burst)
		}

		client := btc.NewClient(network, &btc.ClientOptions{
			BaseURL: btcCfg.API,
			Token:   btcCfg.Token,
			Limiter: limiter,
		})
		logger.Debug("btc adapter using %s", client.BaseURL())

		return btc.New(network, &btc.Options{
			Ledger:         client,
			ExplorerURL:    btcCfg.ExplorerURL,
			DefaultFeeRate: rate,
			Dust:           c.Fees.DustSats,
			MinSpend:       c.Fees.MinSpendSats,
			Poller:         newPoller(c, logger),
			Logger:         logger,
		}), nil
	}
}

func ethCreator(c *config.Config, logger chain.LogWriter) chain.Creator {
	return func(ctx context.Context, network account.NetworkType) (chain.Network, error) {
		ethCfg := c.Networks.ETH
		conn, err := eth.ParseConnection(ethCfg.Connection)
		if err != nil {
			return nil, err
		}
		speed, err := eth.ParseGasSpeed(c.Fees.ETHGasSpeed)
		if err != nil {
			return nil, err
		}
		if ethCfg.RPC == "" {
			return nil, gwerr.WithSuggestion(
				fmt.Errorf("%w: no ethereum rpc url configured", gwerr.ErrInvalidConnection),
				"set networks.eth.rpc or GATEWAY_ETH_RPC",
			)
		}

		ledger, err := eth.Dial(ctx, ethCfg.RPC, &eth.LedgerOptions{Connection: conn})
		if err != nil {
			return nil, err
		}
		logger.Debug("eth adapter connected over %s", conn)

		var chainID *big.Int
		if ethCfg.ChainID > 0 {
			chainID = big.NewInt(ethCfg.ChainID)
		}
		return eth.New(network, ledger, &eth.Options{
			ExplorerURL: ethCfg.ExplorerURL,
			ChainID:     chainID,
			GasSpeed:    speed,
			Poller:      newPoller(c, logger),
			Logger:      logger,
		}), nil
	}
}
